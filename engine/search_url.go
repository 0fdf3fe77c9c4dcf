package engine

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultSearchURL is the listing endpoint used when none is configured.
const DefaultSearchURL = "https://www.google.com/search"

// SearchOptions shapes listing page URLs.
type SearchOptions struct {
	BaseURL  string
	Language string // hl
	Country  string // gl
	Num      int    // results per page; 0 leaves it to the host
}

// SearchURL builds the listing URL for query at the given result offset.
// Existing query parameters on BaseURL are kept.
func SearchURL(opts SearchOptions, query string, offset int) string {
	base := opts.BaseURL
	if base == "" {
		base = DefaultSearchURL
	}

	u, err := url.Parse(base)
	if err != nil {
		u, _ = url.Parse(DefaultSearchURL)
	}

	v := u.Query()
	v.Set("q", query)
	v.Set("start", strconv.Itoa(max(offset, 0)))
	if opts.Language != "" {
		v.Set("hl", opts.Language)
	}
	if opts.Country != "" {
		v.Set("gl", opts.Country)
	}
	if opts.Num > 0 {
		v.Set("num", strconv.Itoa(opts.Num))
	}
	// url.Values encodes spaces as '+'; %20 is what browsers send.
	u.RawQuery = strings.ReplaceAll(v.Encode(), "+", "%20")
	return u.String()
}
