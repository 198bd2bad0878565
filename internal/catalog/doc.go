// Package catalog loads and models the site-descriptor database: the
// per-service configuration that tells the probing engine how to check
// whether an identifier is registered on each service.
//
// The on-disk format is the maigret/sherlock JSON site database. A YAML
// override file may disable sites or add headers without editing the
// database itself.
package catalog
