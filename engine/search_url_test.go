package engine

import (
	"net/url"
	"testing"
)

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name   string
		opts   SearchOptions
		query  string
		offset int
		want   map[string]string
		host   string
	}{
		{
			name:   "first page",
			query:  "golang",
			offset: 0,
			want:   map[string]string{"q": "golang", "start": "0"},
			host:   "www.google.com",
		},
		{
			name:   "third page with locale",
			opts:   SearchOptions{Language: "ko", Country: "kr"},
			query:  "서울 맛집",
			offset: 20,
			want:   map[string]string{"q": "서울 맛집", "start": "20", "hl": "ko", "gl": "kr"},
			host:   "www.google.com",
		},
		{
			name:   "custom base keeps its params",
			opts:   SearchOptions{BaseURL: "https://search.example/find?safe=off", Num: 10},
			query:  "a&b=c",
			offset: 10,
			want:   map[string]string{"q": "a&b=c", "start": "10", "safe": "off", "num": "10"},
			host:   "search.example",
		},
		{
			name:   "negative offset",
			query:  "x",
			offset: -10,
			want:   map[string]string{"start": "0"},
			host:   "www.google.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := SearchURL(tt.opts, tt.query, tt.offset)
			u, err := url.Parse(raw)
			if err != nil {
				t.Fatalf("SearchURL produced unparsable %q: %v", raw, err)
			}
			if u.Host != tt.host {
				t.Errorf("host = %q, want %q", u.Host, tt.host)
			}
			got := u.Query()
			for k, v := range tt.want {
				if got.Get(k) != v {
					t.Errorf("%s = %q, want %q (url %s)", k, got.Get(k), v, raw)
				}
			}
		})
	}
}

func TestSearchURL_EncodesSpacesAsPercent20(t *testing.T) {
	raw := SearchURL(SearchOptions{}, "go lang", 0)
	if want := "https://www.google.com/search?q=go%20lang&start=0"; raw != want {
		t.Errorf("SearchURL = %q, want %q", raw, want)
	}
}
