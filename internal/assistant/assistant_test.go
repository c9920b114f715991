package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jkalas/repcrm/internal/storage"
)

// mockStore implements InteractionStore and records every write.
type mockStore struct {
	saved      []storage.Interaction
	nextID     int64
	saveErr    error
	updated    []string
	updateErr  error
}

func (m *mockStore) SaveInteraction(i storage.Interaction) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.nextID++
	m.saved = append(m.saved, i)
	return m.nextID, nil
}

func (m *mockStore) UpdateLatestFollowUp(followUp string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, followUp)
	return nil
}

// mockCompleter implements Completer and counts calls.
type mockCompleter struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (m *mockCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func newTestAssistant(store *mockStore, completer *mockCompleter) *Assistant {
	a := New(store, completer, "gemma2-9b-it")
	a.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return a
}

func TestHandle_Log(t *testing.T) {
	store := &mockStore{}
	completer := &mockCompleter{}
	a := newTestAssistant(store, completer)

	input := "log this: called Dr. Rao about product Y"
	resp, err := a.Handle(context.Background(), input)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if resp.Action != ActionLog {
		t.Errorf("Action = %q, want log", resp.Action)
	}
	if resp.Result != "Interaction logged successfully using AI." {
		t.Errorf("Result = %q, want confirmation string", resp.Result)
	}
	if resp.RequestID == "" {
		t.Error("RequestID is empty")
	}
	if len(store.saved) != 1 {
		t.Fatalf("store writes = %d, want 1", len(store.saved))
	}
	row := store.saved[0]
	if row.TopicsDiscussed != input {
		t.Errorf("TopicsDiscussed = %q, want full input", row.TopicsDiscussed)
	}
	if row.AISummary == nil || *row.AISummary != input {
		t.Errorf("AISummary = %v, want full input", row.AISummary)
	}
	if row.HCPName != "Extracted via AI" {
		t.Errorf("HCPName = %q, want placeholder", row.HCPName)
	}
	if row.InteractionType != storage.TypeMeeting {
		t.Errorf("InteractionType = %q, want Meeting", row.InteractionType)
	}
	if row.Sentiment != "" {
		t.Errorf("Sentiment = %q, want absent on assistant-created rows", row.Sentiment)
	}
	if completer.calls != 0 {
		t.Errorf("completion calls = %d, want 0", completer.calls)
	}
}

func TestHandle_Edit(t *testing.T) {
	store := &mockStore{}
	a := newTestAssistant(store, &mockCompleter{})

	resp, err := a.Handle(context.Background(), "edit: send samples by Friday")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Action != ActionEdit {
		t.Errorf("Action = %q, want edit", resp.Action)
	}
	if resp.Result != "Last interaction updated successfully." {
		t.Errorf("Result = %q, want confirmation string", resp.Result)
	}
	if len(store.updated) != 1 || store.updated[0] != "edit: send samples by Friday" {
		t.Errorf("updated = %v, want raw input as new follow-up text", store.updated)
	}
	if len(store.saved) != 0 {
		t.Errorf("edit inserted %d rows, want 0", len(store.saved))
	}
}

func TestHandle_EditEmptyStore(t *testing.T) {
	store := &mockStore{updateErr: storage.ErrNotFound}
	a := newTestAssistant(store, &mockCompleter{})

	_, err := a.Handle(context.Background(), "edit the last entry")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Handle error = %v, want wrapped ErrNotFound", err)
	}
}

func TestHandle_Summarize(t *testing.T) {
	store := &mockStore{}
	completer := &mockCompleter{response: "Met Dr. Lee; pricing discussed; positive close."}
	a := newTestAssistant(store, completer)

	input := "Please summarize: met with Dr. Lee, discussed pricing"
	resp, err := a.Handle(context.Background(), input)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Action != ActionSummarize {
		t.Errorf("Action = %q, want summarize", resp.Action)
	}
	if resp.Result != completer.response {
		t.Errorf("Result = %q, want service text unmodified", resp.Result)
	}
	if completer.calls != 1 {
		t.Errorf("completion calls = %d, want exactly 1", completer.calls)
	}
	if len(store.saved) != 0 || len(store.updated) != 0 {
		t.Error("summarize performed store writes, want zero")
	}
	wantPrompt := "Summarize this HCP interaction professionally:\n" + input
	if completer.prompts[0] != wantPrompt {
		t.Errorf("prompt = %q, want %q", completer.prompts[0], wantPrompt)
	}
}

func TestHandle_SentimentAndFollowUpPrompts(t *testing.T) {
	cases := []struct {
		input      string
		action     Action
		wantPrefix string
	}{
		{"what is the sentiment: doctor hesitant", ActionSentiment, "Detect sentiment (Positive, Neutral, Negative):\n"},
		{"suggest a follow up for Dr. Rao", ActionFollowUp, "Suggest next follow-up action for sales rep:\n"},
	}

	for _, tc := range cases {
		completer := &mockCompleter{response: "ok"}
		a := newTestAssistant(&mockStore{}, completer)

		resp, err := a.Handle(context.Background(), tc.input)
		if err != nil {
			t.Fatalf("Handle(%q): %v", tc.input, err)
		}
		if resp.Action != tc.action {
			t.Errorf("Action = %q, want %q", resp.Action, tc.action)
		}
		want := tc.wantPrefix + tc.input
		if completer.prompts[0] != want {
			t.Errorf("prompt = %q, want %q", completer.prompts[0], want)
		}
	}
}

func TestHandle_CompletionError(t *testing.T) {
	completer := &mockCompleter{err: fmt.Errorf("upstream timeout")}
	a := newTestAssistant(&mockStore{}, completer)

	_, err := a.Handle(context.Background(), "summarize my day")
	if err == nil {
		t.Fatal("Handle returned nil error on completion failure")
	}
	if !strings.Contains(err.Error(), "upstream timeout") {
		t.Errorf("error %q does not surface the service failure", err)
	}
}

func TestHandle_StoreError(t *testing.T) {
	store := &mockStore{saveErr: fmt.Errorf("disk full")}
	a := newTestAssistant(store, &mockCompleter{})

	_, err := a.Handle(context.Background(), "met Dr. Sharma today")
	if err == nil {
		t.Fatal("Handle returned nil error on store failure")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error %q does not surface the store failure", err)
	}
}
