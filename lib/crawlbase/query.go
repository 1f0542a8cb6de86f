package crawlbase

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

const tokenParam = "token"

// BuildURL renders base with a query made of opts followed by the target
// parameter and the token. Caller supplied keys colliding with either are
// dropped so the injected values always win. When targetName is empty only
// the token is injected.
func BuildURL(base, targetName, targetValue, token string, opts *Options) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: token is required", ErrInvalidArgument)
	}
	if targetName != "" && targetValue == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, targetName)
	}

	final := opts.Clone()
	if targetName != "" {
		final.Delete(targetName)
		final.Set(targetName, escape(targetValue))
	}
	final.Delete(tokenParam)
	final.Set(tokenParam, token)

	pairs := make([]string, 0, final.Len())
	for _, key := range final.keys {
		pairs = append(pairs, key+"="+renderValue(final.values[key]))
	}
	return base + "?" + strings.Join(pairs, "&"), nil
}

// EncodeForm renders data as an application/x-www-form-urlencoded body with
// every value percent-encoded.
func EncodeForm(data *Options) string {
	pairs := make([]string, 0, data.Len())
	for _, key := range data.Keys() {
		v, _ := data.Get(key)
		pairs = append(pairs, key+"="+escape(renderValue(v)))
	}
	return strings.Join(pairs, "&")
}

// EncodeJSON renders data as a JSON object keeping insertion order.
func EncodeJSON(data *Options) ([]byte, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	if err := enc.WriteToken(jsontext.ObjectStart); err != nil {
		return nil, err
	}
	for _, key := range data.Keys() {
		v, _ := data.Get(key)
		if err := enc.WriteToken(jsontext.String(key)); err != nil {
			return nil, err
		}
		value, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", key, err)
		}
		if err := enc.WriteValue(value); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteToken(jsontext.ObjectEnd); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

func renderValue(v any) string {
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}
	return fmt.Sprint(v)
}

// escape percent-encodes everything outside the RFC 3986 unreserved set.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
