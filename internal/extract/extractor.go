package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/namescan/internal/model"
)

// profilePatterns maps platforms to the link shapes that carry a
// username in their first capture group. Matched against anchor hrefs
// and the raw body, so links assembled by scripts are caught too.
var profilePatterns = map[string][]*regexp.Regexp{
	"twitter": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?(?:twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})(?:/|$|\?|"|')`),
	},
	"github": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?github\.com/([A-Za-z0-9-]+)(?:/|$|\?|"|')`),
		regexp.MustCompile(`(?i)https?://gist\.github\.com/([A-Za-z0-9-]+)`),
	},
	"instagram": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?instagram\.com/([A-Za-z0-9_.]+)(?:/|$|\?|"|')`),
	},
	"telegram": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?t\.me/([A-Za-z0-9_]{5,32})`),
	},
	"reddit": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?reddit\.com/user/([A-Za-z0-9_-]+)`),
	},
	"medium": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?medium\.com/@([A-Za-z0-9_.-]+)`),
	},
	"keybase": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?keybase\.io/([A-Za-z0-9_]+)`),
	},
	"tiktok": {
		regexp.MustCompile(`(?i)https?://(?:www\.)?tiktok\.com/@([A-Za-z0-9_.]+)`),
	},
}

// jsonIDPatterns pull service-specific identifiers out of JSON embedded
// in profile pages. The capture group is the identifier value; the kind
// tells the driver which descriptors apply to it.
var jsonIDPatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{model.KindYandexPublicID, regexp.MustCompile(`"public_id"\s*:\s*"([\w-]+)"`)},
	{model.KindYandexPublicID, regexp.MustCompile(`"yandex_public_id"\s*:\s*"([\w-]+)"`)},
	{model.KindGaiaID, regexp.MustCompile(`"gaia_id"\s*:\s*"(\d+)"`)},
	{model.KindGaiaID, regexp.MustCompile(`"gaiaId"\s*:\s*"(\d+)"`)},
	{model.KindWikimapiaUID, regexp.MustCompile(`"wikimapia_uid"\s*:\s*"?(\d+)"?`)},
	{model.KindUsername, regexp.MustCompile(`"(?:username|screen_name|login)"\s*:\s*"([A-Za-z0-9_.-]{3,40})"`)},
}

// stopWords are values that match profile patterns but are navigation,
// not people.
var stopWords = map[string]bool{
	"share": true, "intent": true, "login": true, "signup": true,
	"search": true, "home": true, "about": true, "help": true,
	"explore": true, "settings": true, "privacy": true, "terms": true,
	"hashtag": true, "i": true, "p": true, "features": true,
	"notifications": true, "messages": true, "register": true,
	"username": true, "yourname": true, "example": true, "admin": true,
	"support": true, "null": true, "undefined": true, "anonymous": true,
}

// HTMLExtractor is the default identifier extractor. It satisfies
// explore.Extractor.
type HTMLExtractor struct{}

// NewHTMLExtractor creates the default extractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract returns every candidate identifier found in body, mapped to
// its kind. It never fails: unparseable bodies degrade to raw pattern
// matching, and an empty map means nothing was found.
func (e *HTMLExtractor) Extract(body string) map[string]string {
	found := make(map[string]string)

	// Anchors and profile-pointing metadata first. Matching attribute
	// values directly avoids the noise of script bodies.
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				e.matchProfileLinks(href, found)
			}
		})
		doc.Find(`link[rel="me"]`).Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				e.matchProfileLinks(href, found)
			}
		})
		doc.Find(`meta[property="og:url"]`).Each(func(_ int, s *goquery.Selection) {
			if content, ok := s.Attr("content"); ok {
				e.matchProfileLinks(content, found)
			}
		})
	}

	// The raw body catches links assembled in scripts and JSON blobs.
	e.matchProfileLinks(body, found)
	for _, jp := range jsonIDPatterns {
		for _, match := range jp.pattern.FindAllStringSubmatch(body, -1) {
			value := match[1]
			if value == "" || stopWords[strings.ToLower(value)] {
				continue
			}
			if _, dup := found[value]; !dup {
				found[value] = jp.kind
			}
		}
	}

	return found
}

// matchProfileLinks runs every platform pattern over text and records
// captured usernames.
func (e *HTMLExtractor) matchProfileLinks(text string, found map[string]string) {
	for _, patterns := range profilePatterns {
		for _, p := range patterns {
			for _, match := range p.FindAllStringSubmatch(text, -1) {
				if len(match) < 2 {
					continue
				}
				value := match[1]
				if stopWords[strings.ToLower(value)] {
					continue
				}
				if _, dup := found[value]; !dup {
					found[value] = model.KindUsername
				}
			}
		}
	}
}
