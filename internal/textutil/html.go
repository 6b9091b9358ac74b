// Package textutil provides text cleanup helpers for email bodies that
// are bound for an LLM prompt or a chat message. Some emails are HTML
// formatted; we need plain text, bounded in length.
package textutil

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are HTML elements whose text content is never useful in
// a conversational rendering of an email.
var skipElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"title":  true,
}

// StripHTML removes markup from s and collapses whitespace. Plain text
// input passes through (minus whitespace normalization). Entity
// references are decoded by the tokenizer.
func StripHTML(s string) string {
	if s == "" {
		return s
	}
	if !strings.ContainsAny(s, "<&") {
		return CollapseWhitespace(s)
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return CollapseWhitespace(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

// CollapseWhitespace replaces runs of whitespace with single spaces and
// trims the result.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s truncated to max runes. No ellipsis is added; the
// callers feed the result into prompts where a marker would just waste
// tokens.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
