package engine

import "testing"

// recaptchaListing is a results page whose organic snippets talk about
// reCAPTCHA markup without containing any.
const recaptchaListing = `<html><body><div id="rso">
<div class="MjjYud"><a href="https://developers.google.com/recaptcha/docs/display"><h3>reCAPTCHA v2 | Google for Developers</h3></a>
<span>Add a div with class g-recaptcha and load https://www.google.com/recaptcha/api.js in your page.</span></div>
<div class="MjjYud"><a href="https://www.google.com/recaptcha/api.js"><h3>api.js</h3></a></div>
</div></body></html>`

func TestDetectChallenge(t *testing.T) {
	tests := []struct {
		name       string
		res        *FetchResult
		wantSource string
		wantHit    bool
	}{
		{
			name: "normal listing",
			res: &FetchResult{
				StatusCode: 200,
				FinalURL:   "https://www.google.com/search?q=golang",
				HTML:       `<div class="MjjYud"><a href="https://go.dev/"><h3>Go</h3></a></div>`,
			},
		},
		{
			name:       "too many requests",
			res:        &FetchResult{StatusCode: 429},
			wantSource: "HTTP 429",
			wantHit:    true,
		},
		{
			name: "sorry redirect",
			res: &FetchResult{
				StatusCode: 200,
				FinalURL:   "https://www.google.com/sorry/index?continue=https://www.google.com/search",
			},
			wantSource: "Google sorry page",
			wantHit:    true,
		},
		{
			name: "sorry captcha form",
			res: &FetchResult{
				StatusCode: 200,
				FinalURL:   "https://www.google.com/search?q=x",
				HTML:       `<div id="infoDiv">Our systems have detected unusual traffic from your computer network.</div><form id="captcha-form" action="index" method="post"></form>`,
			},
			wantSource: "Google sorry page",
			wantHit:    true,
		},
		{
			name: "consent host",
			res: &FetchResult{
				StatusCode: 200,
				FinalURL:   "https://consent.google.com/ml?continue=https://www.google.com/search",
			},
			wantSource: "consent wall",
			wantHit:    true,
		},
		{
			name:       "recaptcha widget",
			res:        &FetchResult{StatusCode: 200, HTML: `<div class="g-recaptcha"></div>`},
			wantSource: "reCAPTCHA",
			wantHit:    true,
		},
		{
			name:       "recaptcha iframe",
			res:        &FetchResult{StatusCode: 200, HTML: `<iframe src="https://www.google.com/recaptcha/api2/anchor?k=x"></iframe>`},
			wantSource: "reCAPTCHA",
			wantHit:    true,
		},
		{
			name: "listing about recaptcha",
			res: &FetchResult{
				StatusCode: 200,
				FinalURL:   "https://www.google.com/search?q=recaptcha+setup",
				HTML:       recaptchaListing,
			},
		},
		{
			name: "listing quoting the sorry page",
			res: &FetchResult{
				StatusCode: 200,
				FinalURL:   "https://www.google.com/search?q=unusual+traffic",
				HTML: `<div class="MjjYud"><a href="https://support.google.com/websearch/answer/86640"><h3>Unusual traffic from your computer network</h3></a>` +
					`<span>"Our systems have detected unusual traffic from your computer network" appears when ... id="captcha-form" ... cf-turnstile</span></div>`,
			},
		},
		{
			name:       "cloudflare title",
			res:        &FetchResult{StatusCode: 200, HTML: `<html><head><title>Attention Required! | Cloudflare</title></head><body></body></html>`},
			wantSource: "Cloudflare",
			wantHit:    true,
		},
		{
			name:       "cloudflare turnstile",
			res:        &FetchResult{StatusCode: 200, HTML: `<div class="cf-turnstile"></div>`},
			wantSource: "Cloudflare",
			wantHit:    true,
		},
		{
			name: "nil result",
			res:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, hit := DetectChallenge(tt.res, DefaultDetectors())
			if hit != tt.wantHit || source != tt.wantSource {
				t.Errorf("DetectChallenge = (%q, %v), want (%q, %v)", source, hit, tt.wantSource, tt.wantHit)
			}
		})
	}
}

func TestDetectChallenge_NoDetectors(t *testing.T) {
	if _, hit := DetectChallenge(&FetchResult{StatusCode: 429}, nil); hit {
		t.Error("expected no detection without detectors")
	}
}
