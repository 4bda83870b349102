package orchestrator

import "strings"

// Fixed keyword sets for resolving a pending confirmation. The match
// is exact against the normalized message, never a substring test, so
// "yesterday's tasks" is not read as an approval.
var affirmativeKeywords = map[string]bool{
	"yes":         true,
	"y":           true,
	"yes please":  true,
	"yeah":        true,
	"yep":         true,
	"sure":        true,
	"ok":          true,
	"okay":        true,
	"confirm":     true,
	"confirmed":   true,
	"do it":       true,
	"go ahead":    true,
	"sounds good": true,
	"correct":     true,
}

var negativeKeywords = map[string]bool{
	"no":         true,
	"n":          true,
	"nope":       true,
	"cancel":     true,
	"stop":       true,
	"don't":      true,
	"do not":     true,
	"nevermind":  true,
	"never mind": true,
	"forget it":  true,
}

// reply classifies a message against a pending confirmation.
type reply int

const (
	replyAmbiguous reply = iota
	replyAffirmative
	replyNegative
)

// classifyReply normalizes the message and matches it against the
// keyword sets. Anything that matches neither set is ambiguous and
// must never be reinterpreted as a new command.
func classifyReply(message string) reply {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!?")
	normalized = strings.TrimSpace(normalized)

	switch {
	case affirmativeKeywords[normalized]:
		return replyAffirmative
	case negativeKeywords[normalized]:
		return replyNegative
	default:
		return replyAmbiguous
	}
}
