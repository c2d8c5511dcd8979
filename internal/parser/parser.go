/*
Package parser builds Requests out of HTML documents.

ExtractLinks returns the absolute URLs of the anchors in a document and
ExtractForms turns each form into the Request a browser would send when the
form is submitted with its default values.

Example:

	links, err := parser.ExtractLinks(res.Reader(), res.URL)
	if err != nil {
		log.Fatal(err)
	}
*/
package parser

import (
	"net/url"
	"strings"
)

// resolve returns the absolute form of ref against base, without a fragment.
// It returns false for empty refs, fragment-only refs and unparsable refs.
func resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	if base != nil {
		u = base.ResolveReference(u)
	}

	if !u.IsAbs() {
		return "", false
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), true
}
