package engine

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Detector examines a fetched page and reports whether the search host
// answered with a challenge or interstitial instead of a results listing.
type Detector func(page *ChallengePage) (detected bool, source string)

// ChallengePage is a fetched result under inspection. The document is
// parsed once, on first use, and shared by all detectors.
type ChallengePage struct {
	*FetchResult
	doc    *goquery.Document
	parsed bool
}

// Document returns the parsed page, or nil when the HTML cannot be parsed.
func (p *ChallengePage) Document() *goquery.Document {
	if !p.parsed {
		p.parsed = true
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML)); err == nil {
			p.doc = doc
		}
	}
	return p.doc
}

// has reports whether any element matches sel. Only elements count, so a
// results listing that merely mentions a marker in snippet text or links
// does not trigger.
func (p *ChallengePage) has(sel cascadia.Selector) bool {
	if strings.TrimSpace(p.HTML) == "" {
		return false
	}
	doc := p.Document()
	return doc != nil && doc.FindMatcher(sel).Length() > 0
}

func (p *ChallengePage) title() string {
	if p.Title != "" {
		return p.Title
	}
	if strings.TrimSpace(p.HTML) == "" {
		return ""
	}
	if doc := p.Document(); doc != nil {
		return strings.TrimSpace(doc.Find("title").First().Text())
	}
	return ""
}

var (
	sorryFormSel  = cascadia.MustCompile("form#captcha-form")
	recaptchaSel  = cascadia.MustCompile(`div.g-recaptcha, iframe[src*="recaptcha/api"], script[src*="recaptcha/api"]`)
	cloudflareSel = cascadia.MustCompile("#cf-browser-verification, div.cf-turnstile, form#challenge-form")
)

// DefaultDetectors returns the detectors applied to every listing fetch.
func DefaultDetectors() []Detector {
	return []Detector{
		detectRateLimited,
		detectGoogleSorry,
		detectConsentWall,
		detectRecaptcha,
		detectCloudflare,
	}
}

// DetectChallenge runs res through detectors and returns the source of the
// first one that triggers.
func DetectChallenge(res *FetchResult, detectors []Detector) (string, bool) {
	if res == nil {
		return "", false
	}
	page := &ChallengePage{FetchResult: res}
	for _, d := range detectors {
		if detected, source := d(page); detected {
			return source, true
		}
	}
	return "", false
}

func detectRateLimited(page *ChallengePage) (bool, string) {
	if page.StatusCode == http.StatusTooManyRequests {
		return true, "HTTP 429"
	}
	return false, ""
}

// detectGoogleSorry matches the /sorry/ interstitial served to automated traffic.
func detectGoogleSorry(page *ChallengePage) (bool, string) {
	if u, err := url.Parse(page.FinalURL); err == nil && strings.HasPrefix(u.Path, "/sorry/") {
		return true, "Google sorry page"
	}
	if page.has(sorryFormSel) {
		return true, "Google sorry page"
	}
	return false, ""
}

func detectConsentWall(page *ChallengePage) (bool, string) {
	u, err := url.Parse(page.FinalURL)
	if err != nil {
		return false, ""
	}
	if strings.HasPrefix(u.Hostname(), "consent.") {
		return true, "consent wall"
	}
	return false, ""
}

func detectRecaptcha(page *ChallengePage) (bool, string) {
	if page.has(recaptchaSel) {
		return true, "reCAPTCHA"
	}
	return false, ""
}

func detectCloudflare(page *ChallengePage) (bool, string) {
	if page.has(cloudflareSel) || strings.HasPrefix(page.title(), "Attention Required! | Cloudflare") {
		return true, "Cloudflare"
	}
	return false, ""
}
