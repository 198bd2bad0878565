package model

// Identifier kind labels.
// The default kind is "username"; the remaining kinds are service-specific
// identifiers that extractors may discover on profile pages and that are
// worth recursive lookups of their own.
const (
	// KindUsername is the default identifier kind.
	KindUsername = "username"

	// KindYandexPublicID identifies Yandex public profile IDs.
	KindYandexPublicID = "yandex_public_id"

	// KindWikimapiaUID identifies Wikimapia user IDs.
	KindWikimapiaUID = "wikimapia_uid"

	// KindGaiaID identifies Google account (GAIA) IDs.
	KindGaiaID = "gaia_id"
)

// Identifier is a single value to probe, paired with its kind.
// The kind determines which site descriptors apply: a descriptor declaring
// type "gaia_id" is only probed with gaia_id identifiers.
type Identifier struct {
	// Value is the raw identifier text (e.g. "alice").
	Value string

	// Kind is the identifier kind label. Empty is treated as KindUsername.
	Kind string
}

// NewIdentifier creates an Identifier, defaulting the kind to KindUsername.
func NewIdentifier(value, kind string) Identifier {
	if kind == "" {
		kind = KindUsername
	}
	return Identifier{Value: value, Kind: kind}
}

// queueableKinds is the allow-list of kinds accepted for recursive lookups.
// Extractors may return arbitrary kind labels; anything outside this set is
// discarded before queuing to keep the exploration bounded to identifiers
// the catalog can actually probe.
var queueableKinds = map[string]bool{
	KindUsername:       true,
	KindYandexPublicID: true,
	KindWikimapiaUID:   true,
	KindGaiaID:         true,
}

// QueueableKind reports whether a discovered identifier kind is eligible
// for recursive exploration.
func QueueableKind(kind string) bool {
	return queueableKinds[kind]
}
