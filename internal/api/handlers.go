// Package api exposes the interaction store and the assistant over HTTP and
// MCP. Structured entry goes through POST /interactions, free text through
// POST /assistant, and the list view through GET /interactions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jkalas/repcrm/internal/assistant"
	"github.com/jkalas/repcrm/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Store is the read/write surface the HTTP layer needs.
type Store interface {
	SaveInteraction(i storage.Interaction) (int64, error)
	GetInteraction(id int64) (storage.Interaction, error)
	ListInteractions(limit, offset int) ([]storage.Interaction, error)
}

// Dispatcher runs one free-text input through the assistant.
type Dispatcher interface {
	Handle(ctx context.Context, input string) (assistant.Response, error)
}

// AppDeps holds dependencies for the HTTP handler.
type AppDeps struct {
	Store     Store
	Assistant Dispatcher
}

// NewHandler builds the chi router for all HTTP endpoints.
func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/interactions", handleCreateInteraction(deps))
	r.Get("/interactions", handleListInteractions(deps))
	r.Get("/interactions/{id}", handleGetInteraction(deps))
	r.Post("/assistant", handleAssistant(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// CreateInteractionRequest is the form submission payload.
type CreateInteractionRequest struct {
	HCPName           string `json:"hcp_name"`
	InteractionType   string `json:"interaction_type"`
	InteractionTime   string `json:"interaction_datetime"`
	TopicsDiscussed   string `json:"topics_discussed"`
	ProductsDiscussed string `json:"products_discussed"`
	Sentiment         string `json:"sentiment"`
	FollowUpActions   string `json:"follow_up_actions"`
}

func handleCreateInteraction(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req CreateInteractionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if !storage.ValidType(req.InteractionType) {
			httpError(w, http.StatusBadRequest, "invalid_request_error",
				"interaction_type must be one of Meeting, Call, Virtual")
			return
		}
		if !storage.ValidSentiment(req.Sentiment) {
			httpError(w, http.StatusBadRequest, "invalid_request_error",
				"sentiment must be one of Positive, Neutral, Negative")
			return
		}

		// Wall-clock at save time unless the form carries a value.
		when := time.Now()
		if req.InteractionTime != "" {
			t, err := time.Parse(time.RFC3339, req.InteractionTime)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error",
					"interaction_datetime must be RFC 3339: %v", err)
				return
			}
			when = t
		}

		record := storage.Interaction{
			HCPName:           req.HCPName,
			InteractionType:   req.InteractionType,
			InteractionTime:   when,
			TopicsDiscussed:   req.TopicsDiscussed,
			ProductsDiscussed: req.ProductsDiscussed,
			Sentiment:         req.Sentiment,
			FollowUpActions:   req.FollowUpActions,
		}
		id, err := deps.Store.SaveInteraction(record)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "failed to save interaction: %v", err)
			return
		}

		stored, err := deps.Store.GetInteraction(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "failed to read back interaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(stored)
	}
}

func handleListInteractions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		interactions, err := deps.Store.ListInteractions(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "failed to list interactions: %v", err)
			return
		}

		if interactions == nil {
			interactions = []storage.Interaction{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interactions)
	}
}

func handleGetInteraction(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "id must be an integer")
			return
		}

		interaction, err := deps.Store.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "failed to get interaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interaction)
	}
}

// AssistantRequest is the free-text box payload.
type AssistantRequest struct {
	Input string `json:"input"`
}

func handleAssistant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AssistantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Input == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "input is required")
			return
		}

		resp, err := deps.Assistant.Handle(r.Context(), req.Input)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no interactions to edit")
			return
		}
		if err != nil {
			slog.Error("assistant dispatch failed", "request_id", resp.RequestID, "action", resp.Action, "error", err)
			httpError(w, http.StatusBadGateway, "service_error", "assistant failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
