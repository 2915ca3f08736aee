package morning

import (
	"regexp"
	"strings"
)

// DefaultViewBaseURL is the viewer used to synthesize a link from a document id.
const DefaultViewBaseURL = "https://greeninvoice.co.il/view"

// urlPattern stops at any Unicode space, including the no-break spaces of
// localized text.
var urlPattern = regexp.MustCompile(`https?://[^\s\p{Z}\x{FEFF}]+`)

// LinkKind tells how a document link was obtained.
type LinkKind int

const (
	NoLink LinkKind = iota
	LinkFound
	LinkSynthesized
)

func (k LinkKind) String() string {
	switch k {
	case LinkFound:
		return "found"
	case LinkSynthesized:
		return "synthesized"
	default:
		return "none"
	}
}

// Link is the viewable document link. URL is empty when Kind is NoLink.
type Link struct {
	Kind LinkKind
	URL  string
}

// URLBundle is the localized url object returned with a document.
type URLBundle struct {
	He     string `json:"he"`
	En     string `json:"en"`
	Origin string `json:"origin"`
}

// ExtractLink picks the document link: the first URL found in the bundle's
// en, he and origin fields in that order, else a viewer URL built from id,
// else NoLink.
func ExtractLink(bundle *URLBundle, id, viewBase string) Link {
	if bundle != nil {
		for _, text := range []string{bundle.En, bundle.He, bundle.Origin} {
			if u := firstURL(text); u != "" {
				return Link{Kind: LinkFound, URL: u}
			}
		}
		return Link{Kind: NoLink}
	}

	if id != "" {
		if viewBase == "" {
			viewBase = DefaultViewBaseURL
		}
		return Link{Kind: LinkSynthesized, URL: strings.TrimRight(viewBase, "/") + "/" + id}
	}

	return Link{Kind: NoLink}
}

func firstURL(text string) string {
	if text == "" {
		return ""
	}
	return urlPattern.FindString(text)
}
