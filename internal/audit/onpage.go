package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// On-page check identifiers recorded in failed_audits.
const (
	CheckMissingTitle           = "onpage:missing-title"
	CheckMissingMetaDescription = "onpage:missing-meta-description"
	CheckH1Count                = "onpage:h1-count"
)

const maxPageBody = 5 << 20

// PageChecker fetches a page and runs basic on-page SEO checks.
type PageChecker struct {
	client *http.Client
}

// NewPageChecker creates a checker. A nil client uses NewHTTPClient.
func NewPageChecker(client *http.Client) *PageChecker {
	if client == nil {
		client = NewHTTPClient()
	}
	return &PageChecker{client: client}
}

// Check fetches pageURL and returns the identifiers of the failing checks.
func (p *PageChecker) Check(ctx context.Context, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return CheckDocument(doc), nil
}

// CheckDocument runs the on-page checks on a parsed document.
func CheckDocument(doc *html.Node) []string {
	var (
		title       string
		description string
		h1Count     int
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" {
					title = strings.TrimSpace(textContent(n))
				}
			case atom.Meta:
				if strings.EqualFold(attr(n, "name"), "description") {
					description = strings.TrimSpace(attr(n, "content"))
				}
			case atom.H1:
				h1Count++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var failed []string
	if title == "" {
		failed = append(failed, CheckMissingTitle)
	}
	if description == "" {
		failed = append(failed, CheckMissingMetaDescription)
	}
	if h1Count != 1 {
		failed = append(failed, CheckH1Count)
	}
	return failed
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
