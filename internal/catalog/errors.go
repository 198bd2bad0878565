package catalog

import "errors"

// Catalog errors.
//
// Design decision: We separate fatal catalog errors (the run cannot start)
// from per-descriptor configuration errors (one site is skipped, the rest
// of the catalog loads). Callers use errors.Is to tell them apart.
var (
	// ErrCatalogNotFound is returned when the site database file does not exist.
	ErrCatalogNotFound = errors.New("site catalog file not found")

	// ErrEmptyCatalog is returned when the database parsed but contains
	// no usable site descriptors. Probing an empty catalog is a no-op,
	// which almost always indicates a broken data file.
	ErrEmptyCatalog = errors.New("site catalog contains no valid descriptors")

	// ErrUnknownStrategy is returned for a descriptor whose errorType is
	// not one of status_code, message, or response_url. The descriptor is
	// skipped; the rest of the catalog still loads.
	ErrUnknownStrategy = errors.New("unknown detection strategy")

	// ErrBadTemplate is returned for a descriptor whose URL template does
	// not contain exactly one identifier substitution point.
	ErrBadTemplate = errors.New("url template must contain exactly one {} placeholder")

	// ErrBadPattern is returned for a descriptor whose regexCheck does not
	// compile.
	ErrBadPattern = errors.New("invalid identifier validity pattern")

	// ErrSiteNotFound is returned when a requested site name does not
	// exist in the catalog. This is fatal for the run: asking for an
	// unsupported site is a user error, not something to skip silently.
	ErrSiteNotFound = errors.New("site not found in catalog")
)
