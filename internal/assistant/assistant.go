// Package assistant routes free-text input to one of five canned operations
// (log, edit, summarize, sentiment, follow-up) and executes the selected
// handler against the interaction store or the completion service.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jkalas/repcrm/internal/storage"
)

// Placeholder values written by the log action. The assistant does not parse
// the input; it records it as-is under a fixed name and type.
const (
	placeholderHCPName = "Extracted via AI"
	logInteractionType = storage.TypeMeeting
)

// Confirmation strings returned by the two store-backed actions.
const (
	logConfirmation  = "Interaction logged successfully using AI."
	editConfirmation = "Last interaction updated successfully."
)

// InteractionStore is the subset of the store the assistant writes through.
type InteractionStore interface {
	SaveInteraction(i storage.Interaction) (int64, error)
	UpdateLatestFollowUp(followUp string) error
}

// Completer is the external text-completion service. Implementations make a
// single synchronous call and return the response body verbatim.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Response is the result of one dispatched input.
type Response struct {
	RequestID string `json:"request_id"`
	Action    Action `json:"action"`
	Result    string `json:"result"`
}

// Assistant holds the injected collaborators for all five handlers.
type Assistant struct {
	store     InteractionStore
	completer Completer
	model     string
	now       func() time.Time
}

// New creates an Assistant writing through store and completing through
// completer with the given model.
func New(store InteractionStore, completer Completer, model string) *Assistant {
	return &Assistant{
		store:     store,
		completer: completer,
		model:     model,
		now:       time.Now,
	}
}

// Handle dispatches input to exactly one action and runs it. Store and
// completion failures are returned to the caller; nothing is retried.
func (a *Assistant) Handle(ctx context.Context, input string) (Response, error) {
	action := Dispatch(input)
	resp := Response{
		RequestID: uuid.NewString(),
		Action:    action,
	}

	slog.Debug("dispatching input", "request_id", resp.RequestID, "action", action)

	var result string
	var err error
	switch action {
	case ActionLog:
		result, err = a.logInteraction(input)
	case ActionEdit:
		result, err = a.editFollowUp(input)
	default:
		result, err = a.complete(ctx, action, input)
	}
	if err != nil {
		return resp, err
	}

	resp.Result = result
	return resp, nil
}

// Log records input as a new interaction directly, bypassing the keyword
// dispatcher. Callers that already know the intent (the MCP tools) use this
// instead of Handle.
func (a *Assistant) Log(ctx context.Context, input string) (string, error) {
	return a.logInteraction(input)
}

// EditFollowUp overwrites the follow-up of the most recent interaction
// directly, bypassing the keyword dispatcher.
func (a *Assistant) EditFollowUp(ctx context.Context, input string) (string, error) {
	return a.editFollowUp(input)
}

// logInteraction inserts a new row carrying the raw input in both
// topics_discussed and ai_summary. One insert, durably committed.
func (a *Assistant) logInteraction(input string) (string, error) {
	summary := input
	id, err := a.store.SaveInteraction(storage.Interaction{
		HCPName:         placeholderHCPName,
		InteractionType: logInteractionType,
		InteractionTime: a.now(),
		TopicsDiscussed: input,
		AISummary:       &summary,
	})
	if err != nil {
		return "", fmt.Errorf("logging interaction: %w", err)
	}
	slog.Info("interaction logged via assistant", "id", id)
	return logConfirmation, nil
}

// editFollowUp overwrites follow_up_actions on the most recent row with the
// raw input. storage.ErrNotFound propagates when the table is empty.
func (a *Assistant) editFollowUp(input string) (string, error) {
	if err := a.store.UpdateLatestFollowUp(input); err != nil {
		return "", fmt.Errorf("updating latest interaction: %w", err)
	}
	return editConfirmation, nil
}

// complete sends the action's fixed template plus the raw input to the
// completion service and returns its response unmodified. No store writes.
func (a *Assistant) complete(ctx context.Context, action Action, input string) (string, error) {
	prompt, err := BuildPrompt(action, input)
	if err != nil {
		return "", err
	}
	result, err := a.completer.Complete(ctx, a.model, prompt)
	if err != nil {
		return "", fmt.Errorf("completion service: %w", err)
	}
	return result, nil
}
