package chat

import "strings"

// Action is what the session does with one line of input
type Action int

const (
	ActionAsk Action = iota
	ActionSkip
	ActionExit
)

// exitKeywords end the session, compared case-insensitively
var exitKeywords = []string{"sair", "exit"}

// Classify decides what to do with a raw input line
func Classify(line string) Action {
	q := strings.TrimSpace(line)
	if q == "" {
		return ActionSkip
	}
	for _, kw := range exitKeywords {
		if strings.EqualFold(q, kw) {
			return ActionExit
		}
	}
	return ActionAsk
}
