package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jkalas/repcrm/internal/assistant"
	"github.com/jkalas/repcrm/internal/storage"
)

// InteractionWriter is the subset of the assistant the MCP tools write
// through. The tools name the intent explicitly, so the keyword dispatcher is
// bypassed.
type InteractionWriter interface {
	Log(ctx context.Context, input string) (string, error)
	EditFollowUp(ctx context.Context, input string) (string, error)
}

// MCPDeps holds dependencies for the MCP server. The five tools map
// one-to-one onto the assistant's actions.
type MCPDeps struct {
	Store     Store
	Assistant InteractionWriter
	Completer assistant.Completer
	Model     string
}

// NewMCPServer creates an MCP server with the CRM tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"repcrm",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("repcrm — log and review sales-rep interactions with healthcare professionals."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("log_interaction",
			mcp.WithDescription("Record a description of an HCP interaction. The text is stored as-is; no fields are extracted."),
			mcp.WithString("text", mcp.Description("Free-text description of the interaction"), mcp.Required()),
		),
		mcpLogInteraction(deps),
	)

	s.AddTool(
		mcp.NewTool("edit_follow_up",
			mcp.WithDescription("Overwrite the follow-up actions of the most recently logged interaction."),
			mcp.WithString("text", mcp.Description("New follow-up text"), mcp.Required()),
		),
		mcpEditFollowUp(deps),
	)

	s.AddTool(
		mcp.NewTool("summarize_interaction",
			mcp.WithDescription("Summarize an HCP interaction description professionally."),
			mcp.WithString("text", mcp.Description("Interaction description to summarize"), mcp.Required()),
		),
		mcpComplete(deps, assistant.ActionSummarize),
	)

	s.AddTool(
		mcp.NewTool("detect_sentiment",
			mcp.WithDescription("Classify an interaction description as Positive, Neutral, or Negative."),
			mcp.WithString("text", mcp.Description("Interaction description to classify"), mcp.Required()),
		),
		mcpComplete(deps, assistant.ActionSentiment),
	)

	s.AddTool(
		mcp.NewTool("suggest_follow_up",
			mcp.WithDescription("Suggest the next follow-up action for the sales rep."),
			mcp.WithString("text", mcp.Description("Interaction description to base the suggestion on"), mcp.Required()),
		),
		mcpComplete(deps, assistant.ActionFollowUp),
	)

	s.AddResource(
		mcp.NewResource(
			"crm://recent",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 logged interactions (row summaries)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpLogInteraction(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		result, err := deps.Assistant.Log(ctx, text)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to log interaction: %v", err)), nil
		}
		return mcpText(result), nil
	}
}

func mcpEditFollowUp(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		result, err := deps.Assistant.EditFollowUp(ctx, text)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError("no interactions logged yet"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to update follow-up: %v", err)), nil
		}
		return mcpText(result), nil
	}
}

func mcpComplete(deps MCPDeps, action assistant.Action) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		prompt, err := assistant.BuildPrompt(action, text)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		result, err := deps.Completer.Complete(ctx, deps.Model, prompt)
		if err != nil {
			return mcpError(fmt.Sprintf("completion failed: %v", err)), nil
		}
		return mcpText(result), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interactions, err := deps.Store.ListInteractions(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list interactions: %w", err)
		}

		// Row summaries mirror the list view: id, name, type, time, sentiment.
		type rowSummary struct {
			ID        int64  `json:"id"`
			HCPName   string `json:"hcp_name"`
			Type      string `json:"interaction_type"`
			Time      string `json:"interaction_datetime"`
			Sentiment string `json:"sentiment,omitempty"`
			Topics    string `json:"topics_discussed,omitempty"`
		}

		summaries := make([]rowSummary, len(interactions))
		for i, ix := range interactions {
			topics := ix.TopicsDiscussed
			if utf8.RuneCountInString(topics) > 200 {
				runes := []rune(topics)
				topics = string(runes[:200]) + "..."
			}
			summaries[i] = rowSummary{
				ID:        ix.ID,
				HCPName:   ix.HCPName,
				Type:      ix.InteractionType,
				Time:      ix.InteractionTime.Format(time.RFC3339),
				Sentiment: ix.Sentiment,
				Topics:    topics,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
