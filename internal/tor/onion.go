package tor

import (
	"encoding/base32"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionV3Version is the version byte for v3 onion addresses.
	OnionV3Version = 0x03

	// OnionSuffix is the common suffix for all onion addresses.
	OnionSuffix = ".onion"
)

// onionV3Pattern matches v3 onion hostnames: 56 base32 characters + .onion.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// checksumPrefix is the prefix in the v3 checksum calculation, per the
// Tor rendezvous specification.
var checksumPrefix = []byte(".onion checksum")

// IsOnionURL reports whether the URL targets a Tor hidden service.
// Catalog entries pointing at .onion hosts are only reachable when the
// anonymity channel is active.
func IsOnionURL(rawURL string) bool {
	return OnionHostname(rawURL) != ""
}

// OnionHostname returns the lowercase .onion hostname of the URL, or
// the empty string when the URL does not target a hidden service.
func OnionHostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, OnionSuffix) {
		return ""
	}
	return host
}

// IsValidV3Address checks format and checksum of a v3 onion hostname.
// Full checksum validation catches typos in catalog data the same way
// Tor itself would when connecting.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(
		strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil {
		return false
	}

	// 32-byte ed25519 public key + 2-byte checksum + 1-byte version.
	if len(decoded) != 35 {
		return false
	}
	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]
	if version != OnionV3Version {
		return false
	}

	expected := computeV3Checksum(pubkey, version)
	return checksum[0] == expected[0] && checksum[1] == expected[1]
}

// computeV3Checksum returns the first 2 bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	hash := sha3.Sum256(data)
	return hash[:2]
}
