package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the per-request deadline applied by the CLI.
	// Probing hundreds of services means a few slow ones otherwise
	// dominate the run. Zero disables the deadline entirely.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxWorkers caps concurrent probes per dispatch round.
	// Higher values speed up large catalogs but start tripping
	// rate limits on popular services.
	DefaultMaxWorkers = 20

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	// 127.0.0.1 instead of localhost avoids IPv6 resolution surprises.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorControlAddress is the standard Tor control port, used
	// for circuit rotation in unique-tor mode.
	DefaultTorControlAddress = "127.0.0.1:9051"

	// DefaultTorStartupTimeout bounds the embedded Tor daemon's
	// bootstrap. Three minutes covers most network conditions.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultCatalogFile is the catalog file name searched in the XDG
	// config directory when no --db flag is given.
	DefaultCatalogFile = "data.json"

	// AppName is the application name used for XDG directory paths.
	AppName = "namescan"
)

// Config holds all options for one scan run. It is populated from CLI
// flags, validated once, and treated as immutable afterwards.
type Config struct {
	// Identifiers are the values to probe, usually usernames.
	Identifiers []string

	// IdentifierKind labels the identifiers. Empty means "username".
	IdentifierKind string

	// CatalogPath is the site catalog file. Empty falls back to the
	// XDG config directory.
	CatalogPath string

	// Sites restricts probing to the named catalog entries.
	// A requested site missing from the catalog is a fatal error.
	Sites []string

	// Tags restricts probing to descriptors carrying at least one of
	// these tags.
	Tags []string

	// OverridePath is an explicit site override file. Empty triggers
	// the usual .namescan search in the working and home directories.
	OverridePath string

	// TopSites probes only the N best-ranked sites. Zero means all.
	TopSites int

	// Timeout is the per-request deadline. Zero means none; the engine
	// never imposes one silently.
	Timeout time.Duration

	// MaxWorkers caps concurrent probes per round.
	MaxWorkers int

	// NoRecursion disables recursive identifier discovery.
	NoRecursion bool

	// CaseSensitive keeps identifiers differing only by case as
	// distinct targets. By default they are folded together.
	CaseSensitive bool

	// UserAgent overrides the default request User-Agent.
	UserAgent string

	// ProxyURL routes requests through an explicit socks5:// or
	// http:// proxy. Mutually exclusive with the Tor modes.
	ProxyURL string

	// UseTor routes requests through Tor. An embedded daemon is
	// started unless UseExternalTor is set.
	UseTor bool

	// UseExternalTor uses an already-running Tor daemon at
	// TorProxyAddress instead of starting an embedded one.
	UseExternalTor bool

	// UniqueTor rotates the Tor circuit after every request.
	// Implies sequential probing. Requires UseTor.
	UniqueTor bool

	// TorProxyAddress and TorControlAddress locate an external Tor
	// daemon. Only used with UseExternalTor.
	TorProxyAddress   string
	TorControlAddress string

	// TorStartupTimeout bounds the embedded daemon's bootstrap.
	TorStartupTimeout time.Duration

	// FoundOnly prints only Claimed verdicts on the console.
	FoundOnly bool

	// SkipErrors hides Unknown verdicts on the console.
	SkipErrors bool

	// NoColor disables ANSI colors on the console.
	NoColor bool

	// Verbose enables debug-level logging.
	Verbose bool

	// LogJSON emits logs as JSON lines instead of text, for piping
	// into log collectors.
	LogJSON bool

	// CSVFile, JSONFile, MarkdownFile, and TextFile are optional
	// report destinations. Any combination may be set.
	CSVFile      string
	JSONFile     string
	MarkdownFile string
	TextFile     string
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be misleading.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		MaxWorkers:        DefaultMaxWorkers,
		TorProxyAddress:   DefaultTorProxyAddress,
		TorControlAddress: DefaultTorControlAddress,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// Validate checks the configuration and returns the first problem
// found. It is called once after CLI parsing, before any probing.
func (c *Config) Validate() error {
	if len(c.Identifiers) == 0 {
		return ErrNoIdentifier
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}
	if c.ProxyURL != "" && (c.UseTor || c.UniqueTor) {
		return ErrProxyWithTor
	}
	if c.UniqueTor && !c.UseTor {
		return ErrUniqueTorWithoutTor
	}
	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || u.Host == "" {
			return ErrInvalidProxyURL
		}
		switch u.Scheme {
		case "socks5", "http", "https":
		default:
			return ErrInvalidProxyURL
		}
	}
	return nil
}

// ResolveCatalogPath returns the catalog file to load: the explicit
// path when set, otherwise the XDG config location.
func (c *Config) ResolveCatalogPath() string {
	if c.CatalogPath != "" {
		return c.CatalogPath
	}
	return filepath.Join(XDGConfigDir(), DefaultCatalogFile)
}

// XDGConfigDir returns the XDG config directory for namescan.
// On Linux: ~/.config/namescan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
