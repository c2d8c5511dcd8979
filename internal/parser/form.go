package parser

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	replayr "github.com/HRemonen/Replayr"
	"github.com/PuerkitoBio/goquery"
)

const formContentType = "application/x-www-form-urlencoded"

// ExtractForms returns a Request for each <form> in body, as submitted with
// its default values. Requests have id 0; the caller assigns ids.
//
// Forms whose method is not supported are left out and reported in the
// returned error, which joins one error per skipped form. The Requests built
// from the remaining forms are returned either way.
func ExtractForms(body io.Reader, base *url.URL) ([]replayr.Request, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}

	forms := []replayr.Request{}
	var errs []error

	doc.Find("form").Each(func(i int, s *goquery.Selection) {
		req, err := formRequest(s, base)
		if err != nil {
			errs = append(errs, fmt.Errorf("form %d: %w", i, err))
			return
		}

		forms = append(forms, req)
	})

	return forms, errors.Join(errs...)
}

func formRequest(form *goquery.Selection, base *url.URL) (replayr.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", "")))
	if method == "" {
		method = replayr.MethodGet.String()
	}

	m, err := replayr.ParseMethod(method)
	if err != nil {
		return replayr.Request{}, err
	}

	target, err := formAction(form, base)
	if err != nil {
		return replayr.Request{}, err
	}

	data := encodeFields(formFields(form))

	if m == replayr.MethodGet {
		target.RawQuery = data
		return replayr.NewRequest(0, m, target.String(), nil, "")
	}

	headers := []replayr.Header{{Key: "Content-Type", Value: formContentType}}

	return replayr.NewRequest(0, m, target.String(), headers, data)
}

func formAction(form *goquery.Selection, base *url.URL) (*url.URL, error) {
	action := strings.TrimSpace(form.AttrOr("action", ""))
	if action == "" {
		if base == nil {
			return nil, errors.New("form without action and no base URL")
		}

		u := *base
		u.Fragment = ""
		u.RawFragment = ""

		return &u, nil
	}

	link, ok := resolve(base, action)
	if !ok {
		return nil, fmt.Errorf("unusable form action %q", action)
	}

	return url.Parse(link)
}

type field struct {
	name  string
	value string
}

// formFields returns the successful controls of form in document order.
func formFields(form *goquery.Selection) []field {
	fields := []field{}

	form.Find("input[name], textarea[name], select[name]").Each(func(_ int, s *goquery.Selection) {
		if _, disabled := s.Attr("disabled"); disabled {
			return
		}

		name := s.AttrOr("name", "")

		switch goquery.NodeName(s) {
		case "textarea":
			fields = append(fields, field{name, s.Text()})
		case "select":
			if v, ok := selectValue(s); ok {
				fields = append(fields, field{name, v})
			}
		default:
			if v, ok := inputValue(s); ok {
				fields = append(fields, field{name, v})
			}
		}
	})

	return fields
}

func inputValue(s *goquery.Selection) (string, bool) {
	switch strings.ToLower(s.AttrOr("type", "text")) {
	case "submit", "button", "reset", "image", "file":
		return "", false
	case "checkbox", "radio":
		if _, checked := s.Attr("checked"); !checked {
			return "", false
		}
		return s.AttrOr("value", "on"), true
	default:
		return s.AttrOr("value", ""), true
	}
}

func selectValue(s *goquery.Selection) (string, bool) {
	option := s.Find("option[selected]").First()
	if option.Length() == 0 {
		option = s.Find("option").First()
	}

	if option.Length() == 0 {
		return "", false
	}

	if v, ok := option.Attr("value"); ok {
		return v, true
	}

	return strings.TrimSpace(option.Text()), true
}

// encodeFields form-encodes fields keeping their order, which url.Values would sort.
func encodeFields(fields []field) string {
	var sb strings.Builder

	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(f.name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(f.value))
	}

	return sb.String()
}
