package realdata

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/stwalsh4118/schoolter/internal/models"
)

// ParseContact extracts the first mailto: and tel: links and any
// <meta name="headteacher"> value from an HTML page.
func ParseContact(r io.Reader) (*models.ContactFacts, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse html: %v", ErrNotAvailable, err)
	}

	facts := &models.ContactFacts{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				href := strings.TrimSpace(attr(n, "href"))
				lower := strings.ToLower(href)
				switch {
				case facts.Email == "" && strings.HasPrefix(lower, "mailto:"):
					facts.Email = mailbox(href[len("mailto:"):])
				case facts.Phone == "" && strings.HasPrefix(lower, "tel:"):
					facts.Phone = phoneNumber(href[len("tel:"):])
				}
			case "meta":
				if facts.Headteacher == "" && strings.EqualFold(attr(n, "name"), "headteacher") {
					facts.Headteacher = strings.TrimSpace(attr(n, "content"))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return facts, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// mailbox drops any ?subject= query and percent-encoding.
func mailbox(v string) string {
	if i := strings.IndexByte(v, '?'); i >= 0 {
		v = v[:i]
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	return strings.TrimSpace(v)
}

func phoneNumber(v string) string {
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	return strings.Join(strings.Fields(v), " ")
}
