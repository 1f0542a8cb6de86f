package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"crawlbase/lib/crawlbase"
	"crawlbase/lib/htmlutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// parseOptions turns repeated key=value flags into options, "true" and
// "false" become booleans.
func parseOptions(pairs []string) (*crawlbase.Options, error) {
	opts := crawlbase.NewOptions()
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("option %q is not in key=value form", pair)
		}
		switch value {
		case "true":
			opts.Set(key, true)
		case "false":
			opts.Set(key, false)
		default:
			opts.Set(key, value)
		}
	}
	return opts, nil
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func optionalBool(v *bool) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatBool(*v)
}

func optionalTime(v *time.Time) string {
	if v == nil {
		return "-"
	}
	return v.Format(time.RFC3339)
}

func printMetadata(statusCode int, m crawlbase.Metadata) {
	t := newTable()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"status", statusCode},
		{"original status", optionalInt(m.OriginalStatus)},
		{"service status", optionalInt(m.ServiceStatus)},
		{"url", m.URL},
		{"storage url", m.StorageURL},
		{"rid", m.RID},
		{"stored at", optionalTime(m.StoredAt)},
		{"success", optionalBool(m.Success)},
		{"remaining requests", optionalInt(m.RemainingRequests)},
		{"screenshot url", m.ScreenshotURL},
	})
	t.Render()
}

// printBody writes body to stdout, or the text of every element matching
// selector when one is given.
func printBody(ctx context.Context, body, selector string) error {
	if selector == "" {
		fmt.Println(body)
		return nil
	}
	texts, err := htmlutil.Select(ctx, body, selector)
	if err != nil {
		return err
	}
	for _, text := range texts {
		fmt.Println(text)
	}
	return nil
}

func printLinks(ctx context.Context, body, base string) error {
	links, err := htmlutil.Links(ctx, body, base)
	if err != nil {
		return err
	}
	t := newTable()
	t.AppendHeader(table.Row{"text", "href"})
	for _, link := range links {
		t.AppendRow(table.Row{link.Text, link.Href})
	}
	t.AppendFooter(table.Row{"total", len(links)})
	t.Render()
	return nil
}

func printStorageRecords(records []crawlbase.StorageRecord) {
	t := newTable()
	t.AppendHeader(table.Row{"rid", "url", "original status", "service status", "stored at", "body bytes"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.RID,
			r.URL,
			optionalInt(r.OriginalStatus),
			optionalInt(r.ServiceStatus),
			optionalTime(r.StoredAt),
			len(r.Body),
		})
	}
	t.Render()
}
