// Package tor provides the anonymity channel for namescan: SOCKS5
// connectivity through a Tor daemon (external or embedded via tornago),
// circuit rotation over the control port, and onion address validation
// for catalog entries that point at hidden services.
package tor
