// Package main provides the entry point for the namescan CLI.
//
// Namescan checks whether an identifier (usually a username) is
// registered across a catalog of web services, and optionally follows
// identifiers discovered on the fetched pages.
//
// Usage:
//
//	namescan search <identifier>...
//	namescan sites
//
// See --help for all available options.
package main

// main is the entry point for namescan.
func main() {
	Execute()
}
