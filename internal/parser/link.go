package parser

import (
	"io"
	"net/url"

	"golang.org/x/net/html"
)

// ExtractLinks returns the absolute URLs of the <a href> elements in body,
// resolved against base, in document order and without duplicates.
// Only http and https links are returned.
func ExtractLinks(body io.Reader, base *url.URL) ([]string, error) {
	links := []string{}
	seen := make(map[string]bool)
	tokenizer := html.NewTokenizer(body)

	for {
		tt := tokenizer.Next()

		switch {
		case tt == html.ErrorToken: // End of the document
			if err := tokenizer.Err(); err != io.EOF {
				return links, err
			}
			return links, nil
		case tt == html.StartTagToken || tt == html.SelfClosingTagToken:
			t := tokenizer.Token()

			if t.Data != "a" {
				continue
			}

			ok, href := getHref(t)
			if !ok {
				continue
			}

			link, ok := resolve(base, href)
			if !ok || seen[link] || !isHTTP(link) {
				continue
			}

			seen[link] = true
			links = append(links, link)
		}
	}
}

func getHref(t html.Token) (ok bool, href string) {
	for _, a := range t.Attr {
		if a.Key == "href" {
			return true, a.Val
		}
	}

	return false, ""
}

func isHTTP(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	return u.Scheme == "http" || u.Scheme == "https"
}
