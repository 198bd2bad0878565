// Package config holds the immutable run configuration.
//
// The Config struct is populated once from CLI flags, validated, and
// passed through the application by dependency injection; nothing here
// is global state. XDG helpers locate the default catalog and report
// directories per the XDG Base Directory Specification.
package config
