// Package extract mines response bodies for candidate identifiers.
//
// The extractor is the recursion seam of the scanner: when a probe
// confirms an identifier on one service, its profile page often links
// to the same person's accounts elsewhere. Extract parses the page,
// matches profile-link patterns against anchors and visible text, and
// pulls service-specific IDs (Yandex public IDs, GAIA IDs, Wikimapia
// UIDs) out of embedded JSON.
//
// The result is a value-to-kind mapping consumed by the exploration
// driver, which filters it against its own kind allow-list before
// queuing.
package extract
