package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/config"
	"github.com/nao1215/namescan/internal/explore"
	"github.com/nao1215/namescan/internal/extract"
	applog "github.com/nao1215/namescan/internal/log"
	"github.com/nao1215/namescan/internal/model"
	"github.com/nao1215/namescan/internal/probe"
	"github.com/nao1215/namescan/internal/report"
	"github.com/nao1215/namescan/internal/tor"
	"github.com/spf13/cobra"
	"golang.org/x/net/proxy"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [identifier]...",
		Short: "Search web services for registered identifiers",
		Long: `Search probes every applicable site in the catalog and reports whether
each identifier is registered there.

Fetched pages are parsed for further identifiers
(linked social accounts, embedded account IDs), which are probed in
later rounds unless --no-recursion is set.

Examples:
  # Check one username against the whole catalog
  namescan search alice

  # Check several usernames, claimed accounts only
  namescan search --found-only alice bob carol

  # Restrict to specific sites and write a CSV report
  namescan search --site GitHub --site Reddit --csv report.csv alice

  # Probe the 50 best-ranked sites through Tor with a fresh
  # circuit per request
  namescan search --tor --unique-tor --top 50 alice

Site override file (.namescan) example:
  defaults:
    headers:
      Accept-Language: "en-US"
  sites:
    GitHub:
      disabled: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearchCmd,
	}

	// Identifier flags
	cmd.Flags().StringP("ids", "i", "",
		fmt.Sprintf("Identifier kind to probe (default %q)", model.KindUsername))
	cmd.Flags().Bool("case-sensitive", false,
		"Treat identifiers differing only by letter case as distinct")
	cmd.Flags().Bool("no-recursion", false,
		"Disable recursive probing of identifiers discovered on profile pages")

	// Catalog flags
	cmd.Flags().String("db", "",
		"Site catalog file (default: data.json in the XDG config directory)")
	cmd.Flags().StringSliceP("site", "s", nil,
		"Probe only the named catalog sites (repeatable)")
	cmd.Flags().StringSlice("tags", nil,
		"Probe only sites carrying at least one of these tags")
	cmd.Flags().Int("top", 0,
		"Probe only the N best-ranked sites (0 = all)")
	cmd.Flags().StringP("config", "c", "",
		"Site override file path (default: .namescan in current or home directory)")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request (0 = none)")
	cmd.Flags().IntP("max-workers", "w", config.DefaultMaxWorkers,
		"Maximum number of concurrent probes")
	cmd.Flags().StringP("user-agent", "a", "",
		"Override the request User-Agent header")
	cmd.Flags().String("proxy", "",
		"Route requests through a proxy (socks5:// or http:// URL)")

	// Tor flags
	cmd.Flags().Bool("tor", false,
		"Route requests through Tor (starts an embedded daemon)")
	cmd.Flags().StringP("external-tor", "e", "",
		"Use external Tor proxy at specified address (e.g., 127.0.0.1:9050); implies --tor")
	cmd.Flags().Bool("unique-tor", false,
		"Rotate the Tor circuit after every request (implies sequential probing)")
	cmd.Flags().String("tor-control", config.DefaultTorControlAddress,
		"Tor control port address used for circuit rotation")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Console output flags
	cmd.Flags().Bool("found-only", false,
		"Report only claimed identifiers (console and text report)")
	cmd.Flags().Bool("skip-errors", false,
		"Hide sites that could not be checked on the console")
	cmd.Flags().Bool("no-color", false,
		"Disable colored console output")
	cmd.Flags().Bool("log-json", false,
		"Emit logs as JSON lines on stderr")

	// Report file flags
	cmd.Flags().String("csv", "", "Write a CSV report to the specified file")
	cmd.Flags().String("json", "", "Write a JSON report to the specified file")
	cmd.Flags().String("markdown", "", "Write a Markdown report to the specified file")
	cmd.Flags().String("txt", "", "Write a plain-text report to the specified file")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildSearchConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureLogger(os.Stderr, cfg.Verbose)
	if cfg.LogJSON {
		logger = applog.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runSearch(ctx, cfg, logger)
}

// buildSearchConfig creates a Config from cobra command flags.
func buildSearchConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Identifiers = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.IdentifierKind, err = cmd.Flags().GetString("ids")
	if err != nil {
		return nil, err
	}

	cfg.CaseSensitive, err = cmd.Flags().GetBool("case-sensitive")
	if err != nil {
		return nil, err
	}

	cfg.NoRecursion, err = cmd.Flags().GetBool("no-recursion")
	if err != nil {
		return nil, err
	}

	cfg.CatalogPath, err = cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}

	cfg.Sites, err = cmd.Flags().GetStringSlice("site")
	if err != nil {
		return nil, err
	}

	cfg.Tags, err = cmd.Flags().GetStringSlice("tags")
	if err != nil {
		return nil, err
	}

	cfg.TopSites, err = cmd.Flags().GetInt("top")
	if err != nil {
		return nil, err
	}

	cfg.OverridePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxWorkers, err = cmd.Flags().GetInt("max-workers")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ProxyURL, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.UseTor, err = cmd.Flags().GetBool("tor")
	if err != nil {
		return nil, err
	}

	externalTor, err := cmd.Flags().GetString("external-tor")
	if err != nil {
		return nil, err
	}
	if externalTor != "" {
		cfg.UseTor = true
		cfg.UseExternalTor = true
		cfg.TorProxyAddress = externalTor
	}

	cfg.UniqueTor, err = cmd.Flags().GetBool("unique-tor")
	if err != nil {
		return nil, err
	}

	cfg.TorControlAddress, err = cmd.Flags().GetString("tor-control")
	if err != nil {
		return nil, err
	}

	cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	cfg.FoundOnly, err = cmd.Flags().GetBool("found-only")
	if err != nil {
		return nil, err
	}

	cfg.SkipErrors, err = cmd.Flags().GetBool("skip-errors")
	if err != nil {
		return nil, err
	}

	cfg.NoColor, err = cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	cfg.LogJSON, err = cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, err
	}

	cfg.CSVFile, err = cmd.Flags().GetString("csv")
	if err != nil {
		return nil, err
	}

	cfg.JSONFile, err = cmd.Flags().GetString("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownFile, err = cmd.Flags().GetString("markdown")
	if err != nil {
		return nil, err
	}

	cfg.TextFile, err = cmd.Flags().GetString("txt")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runSearch executes the search.
func runSearch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	sites, err := loadSites(cfg, logger)
	if err != nil {
		return err
	}

	transport, rotator, cleanup, err := setupTransport(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting search",
		"identifiers", cfg.Identifiers,
		"sites", len(sites),
		"useTor", cfg.UseTor,
		"maxWorkers", cfg.MaxWorkers,
	)

	opts := []probe.Option{
		probe.WithTimeout(cfg.Timeout),
		probe.WithMaxWorkers(cfg.MaxWorkers),
		probe.WithLogger(logger),
	}
	if cfg.UseTor {
		opts = append(opts, probe.WithTorRouting())
	}
	if rotator != nil {
		opts = append(opts, probe.WithRotator(rotator))
	}
	if len(cfg.Tags) > 0 {
		opts = append(opts, probe.WithTagFilter(cfg.Tags))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, probe.WithUserAgent(cfg.UserAgent))
	}
	dispatcher := probe.NewDispatcher(transport, opts...)

	sinkOpts := []report.ConsoleSinkOption{}
	if cfg.FoundOnly {
		sinkOpts = append(sinkOpts, report.WithFoundOnly())
	}
	if cfg.SkipErrors {
		sinkOpts = append(sinkOpts, report.WithSkipErrors())
	}
	if cfg.NoColor {
		sinkOpts = append(sinkOpts, report.WithoutColor())
	}
	sink := report.NewConsoleSink(os.Stdout, sinkOpts...)

	driverOpts := []explore.DriverOption{explore.WithDriverLogger(logger)}
	if !cfg.NoRecursion {
		driverOpts = append(driverOpts, explore.WithExtractor(extract.NewHTMLExtractor()))
	}
	if cfg.CaseSensitive {
		driverOpts = append(driverOpts, explore.WithCaseSensitive())
	}
	driver := explore.NewDriver(dispatcher, sites, sink, driverOpts...)

	ids := make([]model.Identifier, 0, len(cfg.Identifiers))
	for _, value := range cfg.Identifiers {
		ids = append(ids, model.NewIdentifier(value, cfg.IdentifierKind))
	}

	startTime := time.Now()
	verdicts, runErr := driver.Run(ctx, ids)
	logger.Info("search finished",
		"verdicts", len(verdicts),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	// Partial results are still worth writing after a cancellation.
	if err := writeReports(cfg, verdicts); err != nil {
		return err
	}
	return runErr
}

// loadSites loads the catalog, applies overrides and filters, and
// returns the descriptors to probe in rank order.
func loadSites(cfg *config.Config, logger *slog.Logger) ([]*catalog.SiteDescriptor, error) {
	path := cfg.ResolveCatalogPath()
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load site catalog %s: %w", path, err)
	}
	for _, inv := range cat.Invalid {
		logger.Warn("skipping invalid catalog entry", "site", inv.Name, "reason", inv.Reason)
	}

	// An explicit override path that does not exist is an error;
	// silence is fine when we only searched the default locations.
	overridePath := catalog.FindOverrideFile(cfg.OverridePath)
	if overridePath != "" {
		overrides, err := catalog.LoadOverrides(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load override file %s: %w", overridePath, err)
		}
		cat = overrides.Apply(cat)
		logger.Debug("applied site overrides", "path", overridePath)
	} else if cfg.OverridePath != "" {
		return nil, fmt.Errorf("override file not found: %s", cfg.OverridePath)
	}

	if len(cfg.Sites) > 0 {
		cat, err = cat.Select(cfg.Sites)
		if err != nil {
			return nil, err
		}
	}

	sites := cat.SortByRank().Sites()
	if cfg.TopSites > 0 && cfg.TopSites < len(sites) {
		sites = sites[:cfg.TopSites]
	}
	if len(sites) == 0 {
		return nil, errors.New("site catalog is empty after filtering")
	}
	return sites, nil
}

// setupTransport builds the HTTP transport for the run: direct, via an
// explicit proxy, or through Tor. The returned cleanup stops any
// embedded Tor daemon and is always safe to call.
func setupTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.RoundTripper, probe.CircuitRotator, func(), error) {
	noop := func() {}

	if cfg.UseTor {
		return setupTorTransport(ctx, cfg, logger)
	}

	if cfg.ProxyURL != "" {
		transport, err := proxyTransport(cfg.ProxyURL)
		if err != nil {
			return nil, nil, noop, err
		}
		logger.Info("routing requests through proxy", "proxy", cfg.ProxyURL)
		return transport, nil, noop, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return transport, nil, noop, nil
}

// setupTorTransport connects to an external Tor daemon or starts an
// embedded one, verifies the SOCKS connection, and wires up circuit
// rotation when requested.
func setupTorTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.RoundTripper, probe.CircuitRotator, func(), error) {
	noop := func() {}

	var client *tor.Client
	cleanup := noop

	if cfg.UseExternalTor {
		var err error
		client, err = tor.NewClient(cfg.TorProxyAddress, cfg.TorControlAddress)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}

		status := client.CheckConnection(ctx)
		if status != tor.ProxyStatusOK {
			return nil, nil, noop, fmt.Errorf("tor proxy check failed: %s (make sure Tor is running at %s)",
				status, cfg.TorProxyAddress)
		}
		logger.Info("Tor proxy connection verified", "address", cfg.TorProxyAddress)
	} else {
		fmt.Println("Starting embedded Tor daemon...")
		fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		embeddedTor := tor.NewEmbeddedTor(
			tor.WithStartupTimeout(cfg.TorStartupTimeout),
		)
		if err := embeddedTor.Start(ctx); err != nil {
			return nil, nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		cleanup = func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}

		var err error
		client, err = embeddedTor.NewClient()
		if err != nil {
			cleanup()
			return nil, nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}

		status := client.CheckConnection(ctx)
		if status != tor.ProxyStatusOK {
			cleanup()
			return nil, nil, noop, fmt.Errorf("embedded Tor proxy check failed: %s", status)
		}
		logger.Info("embedded Tor daemon started", "socksAddr", embeddedTor.SocksAddr())
	}

	var rotator probe.CircuitRotator
	if cfg.UniqueTor {
		controller, err := client.Controller()
		if err != nil {
			cleanup()
			return nil, nil, noop, fmt.Errorf("circuit rotation unavailable: %w", err)
		}
		rotator = controller
	}

	return client.Transport(), rotator, cleanup, nil
}

// proxyTransport builds a transport routing through an explicit proxy URL.
// The URL scheme was already validated by Config.Validate.
func proxyTransport(proxyURL string) (*http.Transport, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %s: %w", proxyURL, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	switch u.Scheme {
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: password}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		transport.Proxy = http.ProxyURL(u)
	}
	return transport, nil
}

// writeReports writes the requested report files in a single pass over
// the verdicts via a MultiWriter.
func writeReports(cfg *config.Config, verdicts []model.Verdict) error {
	type reportFile struct {
		path      string
		newWriter func(*os.File) report.Writer
	}

	files := []reportFile{
		{cfg.CSVFile, func(f *os.File) report.Writer { return report.NewCSVWriter(f) }},
		{cfg.JSONFile, func(f *os.File) report.Writer { return report.NewJSONWriter(f, report.WithPrettyPrint()) }},
		{cfg.MarkdownFile, func(f *os.File) report.Writer { return report.NewMarkdownWriter(f) }},
		{cfg.TextFile, func(f *os.File) report.Writer { return newTextReportWriter(cfg, f) }},
	}

	var writers []report.Writer
	for _, rf := range files {
		if rf.path == "" {
			continue
		}
		f, err := openReportFile(rf.path)
		if err != nil {
			return err
		}
		defer f.Close()
		writers = append(writers, rf.newWriter(f))
	}
	if len(writers) == 0 {
		return nil
	}

	if _, err := report.NewMultiWriter(writers...).Write(verdicts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// newTextReportWriter builds the text writer honoring the found-only
// filter: by default the file records every verdict, like the console.
func newTextReportWriter(cfg *config.Config, f *os.File) report.Writer {
	if cfg.FoundOnly {
		return report.NewTextWriter(f)
	}
	return report.NewTextWriter(f, report.WithAllVerdicts())
}

// openReportFile creates one report file, with parent directories as
// needed. Reports may reveal what was searched for, so the file is only
// readable by the owner.
func openReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}
