package assistant

import "fmt"

// Fixed instruction templates for the three completion-backed actions. The
// user input is appended verbatim; nothing else goes into the prompt.
const (
	summarizeTemplate = "Summarize this HCP interaction professionally:\n%s"
	sentimentTemplate = "Detect sentiment (Positive, Neutral, Negative):\n%s"
	followUpTemplate  = "Suggest next follow-up action for sales rep:\n%s"
)

// BuildPrompt returns the completion prompt for the given action. Only the
// three completion-backed actions have prompts; anything else is a
// programming error.
func BuildPrompt(action Action, input string) (string, error) {
	switch action {
	case ActionSummarize:
		return fmt.Sprintf(summarizeTemplate, input), nil
	case ActionSentiment:
		return fmt.Sprintf(sentimentTemplate, input), nil
	case ActionFollowUp:
		return fmt.Sprintf(followUpTemplate, input), nil
	default:
		return "", fmt.Errorf("action %q has no completion prompt", action)
	}
}
