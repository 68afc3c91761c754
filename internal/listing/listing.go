// Package listing fetches remote HTML directory listings and extracts
// their links.
package listing

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const requestTimeout = 30 * time.Second

// Link is one anchor from a listing page: its visible text and its href
// resolved against the page URL.
type Link struct {
	Text string
	URL  *url.URL
}

// Client fetches HTML directory listings.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a listing client with the standard request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Links fetches the page at u and returns every anchor element carrying
// an href, with relative hrefs resolved against u. Any HTTP or parse
// failure is returned as-is; there are no partial results.
func (c *Client) Links(u *url.URL) ([]Link, error) {
	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing %s: unexpected status %d", u, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", u, err)
	}

	var links []Link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attrValue(n, "href"); ok {
				if ref, err := url.Parse(href); err == nil {
					links = append(links, Link{
						Text: nodeText(n),
						URL:  u.ResolveReference(ref),
					})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return links, nil
}

// attrValue returns the value of the named attribute on n.
func attrValue(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// nodeText returns the concatenated text content of n's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
