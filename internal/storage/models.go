package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist, including
// an update-latest attempt against an empty table.
var ErrNotFound = errors.New("not found")

// Interaction type labels accepted by the form path. The assistant's log
// path always writes TypeMeeting.
const (
	TypeMeeting = "Meeting"
	TypeCall    = "Call"
	TypeVirtual = "Virtual"
)

// Sentiment labels. Rows created by the assistant carry no sentiment.
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// Interaction is one logged encounter between a sales rep and an HCP.
// ID is assigned by the store on insert and only ever grows.
type Interaction struct {
	ID                int64     `json:"id"`
	HCPName           string    `json:"hcp_name"`
	InteractionType   string    `json:"interaction_type"`
	InteractionTime   time.Time `json:"interaction_datetime"`
	TopicsDiscussed   string    `json:"topics_discussed"`
	ProductsDiscussed string    `json:"products_discussed,omitempty"`
	Sentiment         string    `json:"sentiment,omitempty"`
	FollowUpActions   string    `json:"follow_up_actions,omitempty"`
	AISummary         *string   `json:"ai_summary,omitempty"`
}

// ValidType reports whether t is one of the accepted interaction types.
func ValidType(t string) bool {
	return t == TypeMeeting || t == TypeCall || t == TypeVirtual
}

// ValidSentiment reports whether s is an accepted sentiment label.
// The empty string is allowed: sentiment is optional.
func ValidSentiment(s string) bool {
	return s == "" || s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}
