package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Instrumentor rewrites rendered email bodies: personalization tokens, tracked
// redirect links, and the open-tracking pixel plus its script beacon. It owns
// no storage; RewriteLinks hands allocated link records back to the caller so
// persistence can happen in the same transaction as the send bookkeeping.
type Instrumentor struct {
	baseURL string
}

func NewInstrumentor(baseURL string) *Instrumentor {
	return &Instrumentor{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// Personalize replaces every {{key}} token with the matching field value.
// Tokens with no matching field are stripped rather than left in the body.
func (i *Instrumentor) Personalize(body string, fields map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(body, func(token string) string {
		key := tokenPattern.FindStringSubmatch(token)[1]
		return fields[key]
	})
}

// RewriteLinks routes every actionable hyperlink through the click redirect
// and returns the rewritten document plus the freshly allocated link records.
// Each call allocates new records, so re-instrumenting the same content never
// reuses a link id. Unparseable markup is passed through untouched.
func (i *Instrumentor) RewriteLinks(html, trackingID string) (string, []*domain.LinkTrackingRecord) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, nil
	}

	var links []*domain.LinkTrackingRecord
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !rewritable(href) {
			return
		}

		linkID := uuid.NewString()
		trackingURL := fmt.Sprintf("%s/track/click/%s/%s", i.baseURL, trackingID, linkID)
		links = append(links, &domain.LinkTrackingRecord{
			ID:          linkID,
			TrackingID:  trackingID,
			OriginalURL: href,
			TrackingURL: trackingURL,
		})
		sel.SetAttr("href", trackingURL)
	})

	rewritten, err := doc.Html()
	if err != nil {
		return html, nil
	}

	return rewritten, links
}

// AppendTrackingAssets adds the invisible open pixel and a delayed script
// beacon for clients that execute script but block remote images. Both hit
// the same pixel id, so either fetch satisfies the open transition.
func (i *Instrumentor) AppendTrackingAssets(html, pixelID string) string {
	pixel := fmt.Sprintf(
		`<img src="%s/track/open/%s" width="1" height="1" style="display:none;" alt=""/>`,
		i.baseURL, pixelID,
	)
	beacon := fmt.Sprintf(
		`<script>setTimeout(function(){var i=new Image();i.src=%q;},3000);</script>`,
		fmt.Sprintf("%s/track/beacon/%s", i.baseURL, pixelID),
	)
	assets := pixel + beacon

	lower := strings.ToLower(html)
	if idx := strings.LastIndex(lower, "</body>"); idx >= 0 {
		return html[:idx] + assets + html[idx:]
	}
	return html + assets
}

// rewritable reports whether a href should be routed through the redirect.
// Non-actionable schemes and in-page anchors stay as they are, as does
// anything the URL parser rejects.
func rewritable(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}

	lower := strings.ToLower(href)
	for _, scheme := range []string{"mailto:", "javascript:", "tel:"} {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}

	if _, err := url.Parse(href); err != nil {
		return false
	}
	return true
}
