// Package parser turns one fetched search-results page into ordered,
// unranked listing entries.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/serprank/models"
	"golang.org/x/net/html"
)

// Parser extracts listing entries from raw page content. Implementations
// must be free of side effects.
type Parser interface {
	Parse(listing *models.Listing) ([]models.Entry, error)
}

// Options configures the HTML parser.
type Options struct {
	// BlockSelector matches each organic result block.
	BlockSelector string

	// TitleSelector matches the title element inside a block.
	TitleSelector string

	// LinkSelector matches the link element inside a block.
	LinkSelector string

	// AdSelector matches sponsored containers whose blocks are skipped.
	// Empty disables ad filtering.
	AdSelector string

	// Placeholder replaces a missing title.
	Placeholder string

	// Strictness decides whether a block needs a title, a url, or both.
	Strictness models.Strictness

	// DedupeURLs drops blocks whose url already appeared on the page.
	DedupeURLs bool
}

// DefaultOptions returns selectors for the rendered Google results page.
func DefaultOptions() Options {
	return Options{
		BlockSelector: ".MjjYud",
		TitleSelector: "h3",
		LinkSelector:  "a[href]",
		AdSelector:    "#tads, #tadsb, #bottomads, [data-text-ad]",
		Placeholder:   "(no title)",
		Strictness:    models.StrictnessLenient,
	}
}

// HTMLParser parses rendered HTML listings with goquery.
type HTMLParser struct {
	opts  Options
	block cascadia.Selector
	title cascadia.Selector
	link  cascadia.Selector
	ad    cascadia.Selector // nil when ad filtering is off
}

// New compiles the selectors in opts. Empty fields fall back to the defaults.
func New(opts Options) (*HTMLParser, error) {
	def := DefaultOptions()
	if opts.BlockSelector == "" {
		opts.BlockSelector = def.BlockSelector
	}
	if opts.TitleSelector == "" {
		opts.TitleSelector = def.TitleSelector
	}
	if opts.LinkSelector == "" {
		opts.LinkSelector = def.LinkSelector
	}
	if opts.Placeholder == "" {
		opts.Placeholder = def.Placeholder
	}
	strictness, ok := models.ParseStrictness(string(opts.Strictness))
	if !ok {
		return nil, fmt.Errorf("parser: unknown filter strictness %q", opts.Strictness)
	}
	opts.Strictness = strictness

	p := &HTMLParser{opts: opts}
	var err error
	if p.block, err = compile("block", opts.BlockSelector); err != nil {
		return nil, err
	}
	if p.title, err = compile("title", opts.TitleSelector); err != nil {
		return nil, err
	}
	if p.link, err = compile("link", opts.LinkSelector); err != nil {
		return nil, err
	}
	if opts.AdSelector != "" {
		if p.ad, err = compile("ad", opts.AdSelector); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func compile(name, selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid %s selector %q: %w", name, selector, err)
	}
	return sel, nil
}

// Options returns the effective parser options.
func (p *HTMLParser) Options() Options {
	return p.opts
}

// Parse returns the listing's result blocks in document order.
//
// A well-formed page without result blocks yields an empty slice. Content
// that is empty or has no body elements at all is a PARSE_FAILED error, so
// callers can tell "no results" from "could not parse".
func (p *HTMLParser) Parse(listing *models.Listing) ([]models.Entry, error) {
	if listing == nil || strings.TrimSpace(listing.Content) == "" {
		return nil, models.NewRankError(models.ErrCodeParseFailed, "listing content is empty", nil)
	}

	root, err := html.Parse(strings.NewReader(listing.Content))
	if err != nil {
		return nil, models.NewRankError(models.ErrCodeParseFailed, "listing content is not valid markup", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	if doc.Find("body").Children().Length() == 0 {
		return nil, models.NewRankError(models.ErrCodeParseFailed, "listing has no body content", nil)
	}

	base := parseBase(listing.URL)
	blocks := doc.FindMatcher(p.block)
	entries := make([]models.Entry, 0, blocks.Length())
	seen := make(map[string]struct{})

	blocks.Each(func(_ int, s *goquery.Selection) {
		// Only top-level blocks count; nested matches belong to their parent.
		if s.ParentsMatcher(p.block).Length() > 0 {
			return
		}
		if p.isAd(s) {
			return
		}

		entry := models.Entry{
			Title: p.extractTitle(s),
			URL:   p.extractURL(s, base),
		}
		if !entry.Valid(p.opts.Placeholder, p.opts.Strictness) {
			return
		}

		if p.opts.DedupeURLs && entry.URL != "" {
			if _, dup := seen[entry.URL]; dup {
				return
			}
			seen[entry.URL] = struct{}{}
		}
		entries = append(entries, entry)
	})

	return entries, nil
}

func (p *HTMLParser) isAd(s *goquery.Selection) bool {
	if p.ad == nil {
		return false
	}
	return s.IsMatcher(p.ad) || s.ParentsMatcher(p.ad).Length() > 0
}

// extractTitle returns the block title with whitespace collapsed the way
// rendered text reads, or the placeholder.
func (p *HTMLParser) extractTitle(s *goquery.Selection) string {
	title := strings.Join(strings.Fields(s.FindMatcher(p.title).First().Text()), " ")
	if title == "" {
		return p.opts.Placeholder
	}
	return title
}

func (p *HTMLParser) extractURL(s *goquery.Selection, base *url.URL) string {
	href, exists := s.FindMatcher(p.link).First().Attr("href")
	if !exists {
		return ""
	}
	return resolveLink(href, base)
}
