package parser

import (
	"net/url"
	"strings"
)

// redirectParams are the query keys search engines use to carry the real
// destination through a /url click-tracking hop.
var redirectParams = []string{"q", "url"}

// parseBase parses the listing URL. It returns nil when the URL is missing
// or unusable, in which case only absolute links survive.
func parseBase(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// resolveLink turns an href into an absolute http(s) URL the way a browser
// reports anchor.href, unwrapping search-engine redirect hops. Anything that
// cannot become an http(s) URL resolves to "".
func resolveLink(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if !isHTTP(u) {
		return ""
	}

	if dest := unwrapRedirect(u, base); dest != "" {
		return dest
	}
	return u.String()
}

// unwrapRedirect returns the destination of a /url?q=... hop served by the
// listing host, or "" when u is not such a hop.
func unwrapRedirect(u, base *url.URL) string {
	if u.Path != "/url" {
		return ""
	}
	if base != nil && !strings.EqualFold(u.Hostname(), base.Hostname()) {
		return ""
	}

	query := u.Query()
	for _, key := range redirectParams {
		v := query.Get(key)
		if v == "" {
			continue
		}
		dest, err := url.Parse(v)
		if err == nil && isHTTP(dest) {
			return dest.String()
		}
	}
	return ""
}

func isHTTP(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
