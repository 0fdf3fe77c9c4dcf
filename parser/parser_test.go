package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/use-agent/serprank/models"
)

const listingURL = "https://www.google.com/search?q=golang&start=0"

func newParser(t *testing.T, opts Options) *HTMLParser {
	t.Helper()
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return p
}

func block(title, href string) string {
	var b strings.Builder
	b.WriteString(`<div class="MjjYud"><div>`)
	if href != "" {
		fmt.Fprintf(&b, `<a href="%s">`, href)
	} else {
		b.WriteString(`<span>`)
	}
	if title != "" {
		fmt.Fprintf(&b, `<h3>%s</h3>`, title)
	}
	if href != "" {
		b.WriteString(`</a>`)
	} else {
		b.WriteString(`</span>`)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func page(blocks ...string) *models.Listing {
	return &models.Listing{
		Content: `<html><head><title>golang - Search</title></head><body><div id="search">` +
			strings.Join(blocks, "") + `</div></body></html>`,
		URL: listingURL,
	}
}

func TestParse_OrderedEntries(t *testing.T) {
	p := newParser(t, DefaultOptions())
	entries, err := p.Parse(page(
		block("The Go Programming Language", "https://go.dev/"),
		block("Go (programming language) - Wikipedia", "https://en.wikipedia.org/wiki/Go_(programming_language)"),
		block("golang/go", "https://github.com/golang/go"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.Entry{
		{Title: "The Go Programming Language", URL: "https://go.dev/"},
		{Title: "Go (programming language) - Wikipedia", URL: "https://en.wikipedia.org/wiki/Go_(programming_language)"},
		{Title: "golang/go", URL: "https://github.com/golang/go"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParse_PlaceholderAndEmptyURL(t *testing.T) {
	p := newParser(t, DefaultOptions())
	entries, err := p.Parse(page(
		block("", "https://go.dev/doc/"),
		block("Only a title", ""),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Title != "(no title)" || entries[0].URL != "https://go.dev/doc/" {
		t.Errorf("missing title not replaced by placeholder: %+v", entries[0])
	}
	if entries[1].Title != "Only a title" || entries[1].URL != "" {
		t.Errorf("missing url not replaced by empty string: %+v", entries[1])
	}
}

func TestParse_Strictness(t *testing.T) {
	listing := page(
		block("Full", "https://a.example/"),
		block("", "https://b.example/"),
		block("Title only", ""),
		block("", ""),
	)

	tests := []struct {
		name       string
		strictness models.Strictness
		want       []string
	}{
		{"lenient keeps title or url", models.StrictnessLenient, []string{"https://a.example/", "https://b.example/", ""}},
		{"strict needs title and url", models.StrictnessStrict, []string{"https://a.example/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Strictness = tt.strictness
			entries, err := newParser(t, opts).Parse(listing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d: %+v", len(entries), len(tt.want), entries)
			}
			for i, u := range tt.want {
				if entries[i].URL != u {
					t.Errorf("entry %d url = %q, want %q", i, entries[i].URL, u)
				}
			}
		})
	}
}

func TestParse_NestedAndAdBlocksSkipped(t *testing.T) {
	content := `<html><body>
		<div id="tads"><div class="MjjYud"><a href="https://ads.example/"><h3>Sponsored</h3></a></div></div>
		<div class="MjjYud">
			<a href="https://outer.example/"><h3>Outer</h3></a>
			<div class="MjjYud"><a href="https://inner.example/"><h3>Inner</h3></a></div>
		</div>
		<div class="MjjYud" data-text-ad="1"><a href="https://ad2.example/"><h3>Ad</h3></a></div>
	</body></html>`

	entries, err := newParser(t, DefaultOptions()).Parse(&models.Listing{Content: content, URL: listingURL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(entries), entries)
	}
	if entries[0].URL != "https://outer.example/" || entries[0].Title != "Outer" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestParse_AdFilterDisabled(t *testing.T) {
	content := `<html><body>
		<div id="tads"><div class="MjjYud"><a href="https://ads.example/"><h3>Sponsored</h3></a></div></div>
	</body></html>`

	opts := DefaultOptions()
	opts.AdSelector = ""
	entries, err := newParser(t, opts).Parse(&models.Listing{Content: content, URL: listingURL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestParse_LinkResolution(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"absolute", "https://go.dev/blog/", "https://go.dev/blog/"},
		{"redirect q", "/url?q=https://pkg.go.dev/net/http&sa=U&ved=x", "https://pkg.go.dev/net/http"},
		{"redirect url", "https://www.google.com/url?url=https%3A%2F%2Fgo.dev%2Fplay%2F&sa=t", "https://go.dev/play/"},
		{"relative non redirect", "/search?q=more", "https://www.google.com/search?q=more"},
		{"javascript", "javascript:void(0)", ""},
		{"foreign url path kept", "https://other.example/url?q=https://x.example/", "https://other.example/url?q=https://x.example/"},
	}

	p := newParser(t, DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := p.Parse(page(block("Title", tt.href)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			if entries[0].URL != tt.want {
				t.Errorf("url = %q, want %q", entries[0].URL, tt.want)
			}
		})
	}
}

func TestParse_TitleWhitespaceCollapsed(t *testing.T) {
	entries, err := newParser(t, DefaultOptions()).Parse(page(block("  Go\n\t <b>by</b>   Example ", "https://gobyexample.com/")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := entries[0].Title; got != "Go by Example" {
		t.Errorf("title = %q, want %q", got, "Go by Example")
	}
}

func TestParse_Dedupe(t *testing.T) {
	listing := page(
		block("One", "https://go.dev/"),
		block("Two", "https://go.dev/"),
	)

	entries, _ := newParser(t, DefaultOptions()).Parse(listing)
	if len(entries) != 2 {
		t.Errorf("without dedupe got %d entries, want 2", len(entries))
	}

	opts := DefaultOptions()
	opts.DedupeURLs = true
	entries, _ = newParser(t, opts).Parse(listing)
	if len(entries) != 1 || entries[0].Title != "One" {
		t.Errorf("with dedupe got %+v, want only the first entry", entries)
	}
}

func TestParse_NoResultsIsNotAnError(t *testing.T) {
	entries, err := newParser(t, DefaultOptions()).Parse(page())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		listing *models.Listing
	}{
		{"nil listing", nil},
		{"empty content", &models.Listing{Content: ""}},
		{"whitespace content", &models.Listing{Content: " \n\t "}},
		{"empty body", &models.Listing{Content: "<html><head></head><body></body></html>"}},
		{"plain text", &models.Listing{Content: "connection reset by peer"}},
	}

	p := newParser(t, DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := p.Parse(tt.listing)
			if err == nil {
				t.Fatalf("expected error, got %d entries", len(entries))
			}
			if code := models.CodeOf(err); code != models.ErrCodeParseFailed {
				t.Errorf("code = %s, want %s", code, models.ErrCodeParseFailed)
			}
		})
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad block selector", Options{BlockSelector: "div[["}},
		{"bad ad selector", Options{AdSelector: "a[href"}},
		{"unknown strictness", Options{Strictness: "paranoid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNew_FillsDefaults(t *testing.T) {
	p := newParser(t, Options{})
	got := p.Options()
	def := DefaultOptions()
	if got.BlockSelector != def.BlockSelector || got.TitleSelector != def.TitleSelector ||
		got.LinkSelector != def.LinkSelector || got.Placeholder != def.Placeholder {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.Strictness != models.StrictnessLenient {
		t.Errorf("strictness = %q, want lenient", got.Strictness)
	}
}
