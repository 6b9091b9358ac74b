package assistant

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates resolved actions.
type Kind int

const (
	// KindDefer passes the utterance to the intent classifier.
	KindDefer Kind = iota
	// KindSend sends the pending draft (or reports that none exists).
	KindSend
	// KindCancel discards the pending draft.
	KindCancel
	// KindRead reads the message at Position.
	KindRead
	// KindDraft drafts a reply for the message at Position.
	KindDraft
	// KindClarify answers locally with Message; no provider call, no
	// classifier call, no state change.
	KindClarify
)

// Action is the resolver's verdict for one utterance.
type Action struct {
	Kind     Kind
	Position int    // read/draft target, 1-based
	Hint     string // free-text guidance for reply generation
	Message  string // clarification text
}

// View is the slice of session state the resolver consults. The
// resolver is pure; it never mutates the session.
type View struct {
	ListLen     int
	HasDraft    bool
	LastTouched int
}

// sendPhrases always resolve to send intent, draft or not; reporting
// "no draft" locally keeps the classifier from ever fabricating a send.
var sendPhrases = []string{
	"send reply",
	"send the reply",
	"send it",
	"send that",
	"send email",
	"send the email",
	"yes send",
	"confirm send",
}

// affirmations resolve to send only while a draft is pending; a bare
// "yes" with nothing to confirm falls through to the classifier. An
// utterance that also mentions cancel ("okay, cancel that") is never
// treated as an affirmation.
var affirmations = []string{
	"yes",
	"yep",
	"yeah",
	"confirm",
	"go ahead",
	"sure",
	"ok",
	"okay",
	"do it",
}

// draftVerbs introduce draft intent, and exclude an utterance from read
// resolution so "read me the reply" cannot collide with draft parsing.
var draftVerbs = []string{"draft", "reply", "respond", "compose", "write back"}

// singleItemPhrases let a one-entry list be read without a number.
var singleItemPhrases = []string{"read it", "read this", "read that", "open it"}

// numberStopWords are skipped when scanning for an ordinal; everything
// left over that parses as a number is a candidate.
var numberStopWords = map[string]bool{
	"read": true, "open": true, "email": true, "emails": true, "mail": true,
	"message": true, "messages": true, "number": true, "the": true, "me": true,
	"please": true, "a": true, "an": true, "my": true, "out": true, "loud": true,
	"top": true, "one": true, "that": true, "this": true, "it": true,
}

// hintMarkers introduce the free-text guidance clause of a draft
// request, e.g. "draft a reply saying I'll be there". Ordered longest
// first so "saying that" wins over "that".
var hintMarkers = []string{
	"saying that",
	"saying",
	"reply with",
	"respond with",
	"tell them",
	"that says",
	"that",
}

// Resolve classifies a normalized utterance against the session view.
// Priority order puts the most dangerous, least ambiguous intent first:
// send, cancel, read, draft, then defer to the classifier.
func Resolve(v View, utterance string) Action {
	tokens := tokenize(utterance)

	if isSendIntent(v, utterance, tokens) {
		return Action{Kind: KindSend}
	}

	if containsToken(tokens, "cancel") {
		return Action{Kind: KindCancel}
	}

	if a, ok := resolveRead(v, utterance, tokens); ok {
		return a
	}

	if a, ok := resolveDraft(v, utterance, tokens); ok {
		return a
	}

	return Action{Kind: KindDefer}
}

func isSendIntent(v View, utterance string, tokens []string) bool {
	for _, p := range sendPhrases {
		if strings.Contains(utterance, p) {
			return true
		}
	}
	// A politeness word next to a cancel request is not a confirmation:
	// "okay, cancel that" must discard the draft, not send it.
	if !v.HasDraft || containsToken(tokens, "cancel") {
		return false
	}
	for _, p := range affirmations {
		if containsPhrase(tokens, p) {
			return true
		}
	}
	return false
}

func resolveRead(v View, utterance string, tokens []string) (Action, bool) {
	if !containsToken(tokens, "read") {
		return Action{}, false
	}
	for _, verb := range draftVerbs {
		if containsPhrase(tokens, verb) {
			return Action{}, false
		}
	}
	if containsToken(tokens, "send") {
		return Action{}, false
	}

	if v.ListLen == 0 {
		return Action{
			Kind:    KindClarify,
			Message: "I don't have any emails loaded. Ask me to list or search your inbox first.",
		}, true
	}

	n, found := scanNumber(tokens)

	if v.ListLen == 1 {
		for _, p := range singleItemPhrases {
			if strings.Contains(utterance, p) {
				return Action{Kind: KindRead, Position: 1}, true
			}
		}
		if !found {
			return Action{Kind: KindRead, Position: 1}, true
		}
	}

	if found {
		return Action{Kind: KindRead, Position: n}, true
	}

	return Action{
		Kind:    KindClarify,
		Message: fmt.Sprintf("Which email would you like to read? Say a number from 1 to %d.", v.ListLen),
	}, true
}

func resolveDraft(v View, utterance string, tokens []string) (Action, bool) {
	hasVerb := false
	for _, verb := range draftVerbs {
		if containsPhrase(tokens, verb) {
			hasVerb = true
			break
		}
	}
	if !hasVerb {
		return Action{}, false
	}

	pos, found := draftPosition(tokens)
	if !found {
		pos, found = scanNumber(tokens)
	}
	if !found && v.LastTouched > 0 {
		pos, found = v.LastTouched, true
	}
	if !found {
		return Action{
			Kind:    KindClarify,
			Message: "Which email should I reply to? Read one first, or say its number.",
		}, true
	}

	return Action{Kind: KindDraft, Position: pos, Hint: extractHint(utterance)}, true
}

// draftPosition matches the explicit "(email|number|mail|#) <digit>"
// target pattern.
func draftPosition(tokens []string) (int, bool) {
	for i := 0; i+1 < len(tokens); i++ {
		switch tokens[i] {
		case "email", "number", "mail", "#", "message":
			if n, err := strconv.Atoi(tokens[i+1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// scanNumber returns the first stop-word-filtered token that parses as
// a number, left to right. No attempt is made to disambiguate multiple
// numeric mentions.
func scanNumber(tokens []string) (int, bool) {
	for _, tok := range tokens {
		if numberStopWords[tok] {
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			return n, true
		}
	}
	return 0, false
}

// extractHint captures the trailing clause after the first hint marker
// as verbatim guidance for reply generation. The bare "that" marker is
// skipped when it introduces an email noun ("reply to that email")
// rather than reported speech.
func extractHint(utterance string) string {
	for _, marker := range hintMarkers {
		idx := strings.Index(utterance, " "+marker+" ")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(utterance[idx+len(marker)+2:])
		if rest == "" {
			continue
		}
		if marker == "that" {
			first, _, _ := strings.Cut(rest, " ")
			switch first {
			case "email", "mail", "message", "one":
				continue
			}
		}
		return rest
	}
	return ""
}

// tokenize splits the normalized utterance into punctuation-free words.
func tokenize(utterance string) []string {
	fields := strings.Fields(utterance)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		core, _ := splitTrailingPunct(f)
		if core != "" {
			tokens = append(tokens, core)
		}
	}
	return tokens
}

func containsToken(tokens []string, word string) bool {
	for _, t := range tokens {
		if t == word {
			return true
		}
	}
	return false
}

// containsPhrase reports whether the token stream contains the phrase's
// words consecutively. Matching on tokens rather than substrings keeps
// "yes" from matching inside "yesterday".
func containsPhrase(tokens []string, phrase string) bool {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return false
	}
outer:
	for i := 0; i+len(words) <= len(tokens); i++ {
		for j, w := range words {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}
