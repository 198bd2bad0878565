// Package model defines the core data types shared across namescan:
// identifiers under investigation and the per-service verdicts
// produced by probing.
package model
