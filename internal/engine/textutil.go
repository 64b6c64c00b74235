package engine

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// User-Agent strings used across HTTP clients.
const (
	UserAgentBot    = "GarbhVeda/1.0"
	UserAgentChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// StripFences returns the content of the first markdown code fence in s,
// or s trimmed when it has no fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedBlockRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// braceObjectRe spans the first '{' to the last '}' in the text.
var braceObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONObject returns the brace-delimited span of s, or "".
func ExtractJSONObject(s string) string {
	return braceObjectRe.FindString(s)
}

// DecodeModelJSON parses a model answer into v. It strips code fences first;
// when that does not parse it retries on the brace-delimited span of the raw text.
func DecodeModelJSON(raw string, v any) error {
	cleaned := StripFences(raw)
	err := json.Unmarshal([]byte(cleaned), v)
	if err == nil {
		return nil
	}
	obj := ExtractJSONObject(raw)
	if obj == "" {
		return fmt.Errorf("decode model json: %w", err)
	}
	if err2 := json.Unmarshal([]byte(obj), v); err2 != nil {
		return fmt.Errorf("decode model json: %w", err2)
	}
	return nil
}

// Preview caps s at limit runes for log lines.
func Preview(s string, limit int) string {
	return strutil.TruncateWith(s, limit, "...")
}

// TruncateAtWord truncates a string to maxLen runes at a word boundary.
func TruncateAtWord(s string, maxLen int) string {
	return strutil.TruncateAtWord(s, maxLen)
}

// SearchQueryURL builds a "search for this" URL where spaces become '+'.
func SearchQueryURL(base, param, query string) string {
	q := strings.Join(strings.Fields(query), " ")
	return base + "?" + param + "=" + url.QueryEscape(q)
}
