package models

// Strictness controls which parsed candidates survive filtering.
type Strictness string

const (
	// StrictnessLenient keeps a candidate with a real title OR a url.
	StrictnessLenient Strictness = "lenient"

	// StrictnessStrict keeps a candidate only with a real title AND a url.
	StrictnessStrict Strictness = "strict"
)

// ParseStrictness maps a config string to a Strictness. Empty means lenient.
func ParseStrictness(s string) (Strictness, bool) {
	switch Strictness(s) {
	case "", StrictnessLenient:
		return StrictnessLenient, true
	case StrictnessStrict:
		return StrictnessStrict, true
	default:
		return "", false
	}
}

// Listing is the raw content of one fetched search-results page.
type Listing struct {
	// Content is the rendered markup of the page.
	Content string

	// URL is the address the page was fetched from; relative links resolve
	// against it.
	URL string

	// Engine names the fetch engine that produced the content.
	Engine string
}

// Entry is a parsed listing candidate that has not been ranked yet.
type Entry struct {
	Title string
	URL   string
}

// Valid reports whether the entry carries enough data to be kept.
func (e Entry) Valid(placeholder string, strictness Strictness) bool {
	hasTitle := e.Title != "" && e.Title != placeholder
	hasURL := e.URL != ""
	if strictness == StrictnessStrict {
		return hasTitle && hasURL
	}
	return hasTitle || hasURL
}
