package htmlutil

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("lib/htmlutil")

// GetText concatenates every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Clean drops non printable runes and collapses runs of whitespace.
func Clean(s string) string {
	var out strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			out.WriteRune(c)
		}
	}
	return innerWhitespace.ReplaceAllString(strings.TrimSpace(out.String()), " ")
}

func parse(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Select returns the cleaned text of every element in body matching the
// css selector.
func Select(ctx context.Context, body, selector string) ([]string, error) {
	_, span := tracer.Start(ctx, "Select")
	defer span.End()
	span.SetAttributes(attribute.String("selector", selector))

	doc, err := parse(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	matches := doc.Find(selector)
	out := make([]string, 0, matches.Length())
	for _, n := range matches.Nodes {
		out = append(out, Clean(GetText(n)))
	}
	span.SetAttributes(attribute.Int("matches", len(out)))
	return out, nil
}

type Link struct {
	Text string
	Href string
}

// Links lists the anchors of body, relative hrefs are resolved against
// base when it is a valid url.
func Links(ctx context.Context, body, base string) ([]Link, error) {
	_, span := tracer.Start(ctx, "Links")
	defer span.End()

	doc, err := parse(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}
	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		baseURL = nil
	}

	links := []Link{}
	for _, n := range doc.Find("a[href]").Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			span.RecordError(err)
			continue
		}
		if baseURL != nil {
			link = baseURL.ResolveReference(link)
		}
		links = append(links, Link{
			Text: Clean(GetText(n)),
			Href: link.String(),
		})
	}
	span.SetAttributes(attribute.Int("links", len(links)))
	return links, nil
}
