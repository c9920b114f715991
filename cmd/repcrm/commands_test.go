package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestLogCommand_Post(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /interactions": `{"id":7,"hcp_name":"Dr. Sharma","interaction_type":"Meeting"}`,
	})

	client := ts.client()

	req := map[string]any{
		"hcp_name":         "Dr. Sharma",
		"interaction_type": "Meeting",
		"topics_discussed": "OncoBoost Phase III data",
	}

	resp, err := client.post(ctx, "/interactions", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := decodeJSON(resp, &created); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if created.ID != 7 {
		t.Errorf("id = %d, want 7", created.ID)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}

	r := ts.requests[0]
	if r.Method != "POST" {
		t.Errorf("method = %q, want POST", r.Method)
	}
	if r.Path != "/interactions" {
		t.Errorf("path = %q, want /interactions", r.Path)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["hcp_name"] != "Dr. Sharma" {
		t.Errorf("body.hcp_name = %v, want Dr. Sharma", body["hcp_name"])
	}
}

func TestAskCommand_Post(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /assistant": `{"request_id":"abc","action":"summarize","result":"A short summary."}`,
	})

	client := ts.client()

	resp, err := client.post(ctx, "/assistant", map[string]any{"input": "summarize met dr patel"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Action string `json:"action"`
		Result string `json:"result"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result.Action != "summarize" {
		t.Errorf("action = %q, want summarize", result.Action)
	}
	if result.Result != "A short summary." {
		t.Errorf("result = %q, want A short summary.", result.Result)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["input"] != "summarize met dr patel" {
		t.Errorf("body.input = %v", body["input"])
	}
}

func TestDecodeJSON_ErrorStatus(t *testing.T) {
	ts := newTestServer(t, nil)

	client := ts.client()

	resp, err := client.get(ctx, "/interactions/999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to mention 404", err.Error())
	}
}

func TestLogCommand_MissingHCP(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"log"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing --hcp")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestCountLabel(t *testing.T) {
	if got := countLabel(5, 100); got != "5" {
		t.Errorf("countLabel(5, 100) = %q, want 5", got)
	}
	if got := countLabel(100, 100); got != "100+" {
		t.Errorf("countLabel(100, 100) = %q, want 100+", got)
	}
}
