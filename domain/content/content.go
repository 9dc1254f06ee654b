// Package content turns raw client text into the stored representation.
// The transformation is one-way: linkified output cannot be turned back into the input.
package content

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"mvdan.cc/xurls/v2"
)

var urlPattern = mustURLPattern()

func mustURLPattern() *regexp.Regexp {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		panic(err)
	}
	return re
}

var tagStripper = strings.NewReplacer("<", "", ">", "")

// Sanitize strips angle brackets and surrounding whitespace.
func Sanitize(raw string) string {
	return strings.TrimSpace(tagStripper.Replace(raw))
}

// Linkify wraps every bare http(s) URL into an anchor.
func Linkify(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, func(url string) string {
		href := strings.ReplaceAll(url, `"`, "%22")
		return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, href, url)
	})
}

// Process is the full pipeline applied to message content and search queries.
func Process(raw string) string {
	return Linkify(Sanitize(raw))
}

// Length counts runes of the sanitized text, before linkification.
func Length(raw string) int {
	return utf8.RuneCountInString(Sanitize(raw))
}
