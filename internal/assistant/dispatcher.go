package assistant

import "strings"

// Action is one of the five operations the assistant can perform.
type Action string

const (
	ActionLog       Action = "log"
	ActionEdit      Action = "edit"
	ActionSummarize Action = "summarize"
	ActionSentiment Action = "sentiment"
	ActionFollowUp  Action = "followup"
)

// dispatchRule maps a keyword substring to an action. Rules are evaluated
// in order and the first match wins; an input matching none falls through
// to ActionLog.
type dispatchRule struct {
	keyword string
	action  Action
}

// dispatchRules is the complete routing table. Order matters: an input
// containing both "edit" and "summarize" resolves to edit.
var dispatchRules = []dispatchRule{
	{"edit", ActionEdit},
	{"follow", ActionFollowUp},
	{"sentiment", ActionSentiment},
	{"summarize", ActionSummarize},
}

// Dispatch routes free text to exactly one action by case-insensitive
// substring matching. One input, one action: no combination, no memory of
// prior turns.
func Dispatch(input string) Action {
	text := strings.ToLower(input)
	for _, rule := range dispatchRules {
		if strings.Contains(text, rule.keyword) {
			return rule.action
		}
	}
	return ActionLog
}
