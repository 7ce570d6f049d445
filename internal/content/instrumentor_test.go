package content

import (
	"strings"
	"testing"
)

func TestPersonalize(t *testing.T) {
	t.Parallel()

	instrumentor := NewInstrumentor("https://track.example.test")

	tests := []struct {
		name   string
		body   string
		fields map[string]string
		want   string
	}{
		{
			name:   "replaces known tokens",
			body:   "Hi {{first_name}} from {{company}}",
			fields: map[string]string{"first_name": "Jo", "company": "Acme"},
			want:   "Hi Jo from Acme",
		},
		{
			name:   "strips unknown tokens",
			body:   "Hi {{first_name}}, welcome",
			fields: map[string]string{},
			want:   "Hi , welcome",
		},
		{
			name:   "tolerates inner whitespace",
			body:   "Hi {{ first_name }}",
			fields: map[string]string{"first_name": "Jo"},
			want:   "Hi Jo",
		},
		{
			name:   "leaves plain text alone",
			body:   "no tokens here",
			fields: map[string]string{"first_name": "Jo"},
			want:   "no tokens here",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := instrumentor.Personalize(tt.body, tt.fields); got != tt.want {
				t.Fatalf("Personalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteLinks(t *testing.T) {
	t.Parallel()

	instrumentor := NewInstrumentor("https://track.example.test/")
	html := `<html><body>
		<a href="https://example.com/offer">Offer</a>
		<a href="mailto:sales@example.com">Mail us</a>
		<a href="#section">Jump</a>
		<a href="javascript:void(0)">Nope</a>
		<a href="https://example.com/pricing">Pricing</a>
	</body></html>`

	rewritten, links := instrumentor.RewriteLinks(html, "tracking-1")

	if len(links) != 2 {
		t.Fatalf("created links = %d, want 2", len(links))
	}
	for _, link := range links {
		if link.TrackingID != "tracking-1" {
			t.Fatalf("link TrackingID = %q, want tracking-1", link.TrackingID)
		}
		if !strings.Contains(rewritten, link.TrackingURL) {
			t.Fatalf("rewritten html missing tracking url %q", link.TrackingURL)
		}
		if !strings.HasPrefix(link.TrackingURL, "https://track.example.test/track/click/tracking-1/") {
			t.Fatalf("tracking url has wrong shape: %q", link.TrackingURL)
		}
	}
	if links[0].OriginalURL != "https://example.com/offer" {
		t.Fatalf("first link original = %q", links[0].OriginalURL)
	}
	if links[1].OriginalURL != "https://example.com/pricing" {
		t.Fatalf("second link original = %q", links[1].OriginalURL)
	}

	if !strings.Contains(rewritten, `href="mailto:sales@example.com"`) {
		t.Fatal("mailto link should be untouched")
	}
	if !strings.Contains(rewritten, `href="#section"`) {
		t.Fatal("anchor link should be untouched")
	}
	if !strings.Contains(rewritten, `href="javascript:void(0)"`) {
		t.Fatal("script uri should be untouched")
	}
	if strings.Contains(rewritten, `href="https://example.com/offer"`) {
		t.Fatal("actionable link should have been rewritten")
	}
}

func TestRewriteLinksAllocatesFreshRecords(t *testing.T) {
	t.Parallel()

	instrumentor := NewInstrumentor("https://track.example.test")
	html := `<html><body><a href="https://example.com">Go</a></body></html>`

	_, first := instrumentor.RewriteLinks(html, "tracking-1")
	_, second := instrumentor.RewriteLinks(html, "tracking-1")

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("link counts = %d, %d, want 1 and 1", len(first), len(second))
	}
	if first[0].ID == second[0].ID {
		t.Fatal("re-instrumenting must allocate a fresh link id")
	}
}

func TestAppendTrackingAssets(t *testing.T) {
	t.Parallel()

	instrumentor := NewInstrumentor("https://track.example.test")

	html := `<html><body><p>Hello</p></body></html>`
	out := instrumentor.AppendTrackingAssets(html, "pixel-1")

	pixelURL := "https://track.example.test/track/open/pixel-1"
	beaconURL := "https://track.example.test/track/beacon/pixel-1"
	if !strings.Contains(out, pixelURL) {
		t.Fatalf("output missing pixel url %q", pixelURL)
	}
	if !strings.Contains(out, beaconURL) {
		t.Fatalf("output missing beacon url %q", beaconURL)
	}

	bodyClose := strings.Index(out, "</body>")
	pixelIdx := strings.Index(out, pixelURL)
	if bodyClose < 0 || pixelIdx > bodyClose {
		t.Fatal("assets should be injected before the closing body tag")
	}

	// No closing body tag: assets are appended instead.
	fragment := instrumentor.AppendTrackingAssets("<p>Hello</p>", "pixel-2")
	if !strings.HasSuffix(fragment, "</script>") {
		t.Fatalf("fragment should end with appended assets, got %q", fragment)
	}
}
