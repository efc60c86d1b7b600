// Package pagetitle looks up the title of a web page so a bookmark saved
// without one can fall back to what the page calls itself.
package pagetitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxBodyBytes bounds how much of a page is read looking for <head>.
const maxBodyBytes = 1 << 20

// ErrNoTitle is returned when the page has no non-empty <title>.
var ErrNoTitle = errors.New("pagetitle: page has no title")

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher whose requests give up after timeout.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch downloads url and returns the trimmed text of its first <title>.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("pagetitle: build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pagetitle: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("pagetitle: fetch %s: unexpected status %s", url, resp.Status)
	}

	title, err := Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	if title == "" {
		return "", ErrNoTitle
	}
	return title, nil
}

// Parse reads an HTML document and returns its title, or "" if it has none.
func Parse(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("pagetitle: parse html: %w", err)
	}
	return extractTitle(doc), nil
}

// extractTitle returns the text of the first <title> element.
func extractTitle(doc *html.Node) string {
	var title string
	var found bool
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			found = true
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = strings.Join(strings.Fields(sb.String()), " ")
			return
		}
		// <svg><title> is a tooltip, not the document title
		if n.Type == html.ElementNode && n.Data == "svg" {
			return
		}
		for c := n.FirstChild; c != nil && !found; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}
