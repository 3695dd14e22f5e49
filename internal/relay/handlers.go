package relay

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptveil/promptveil/internal/capture"
)

// --- Input/Output types ---

// LastCaptureInput defines parameters for the promptveil_last_capture tool.
type LastCaptureInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"capture kind (prompt/reply), default prompt"`
}

// LastCaptureOutput is the most recent capture record, if any.
type LastCaptureOutput struct {
	Found        bool     `json:"found"`
	Kind         string   `json:"kind,omitempty"`
	Text         string   `json:"text,omitempty"`
	RedactedText string   `json:"redacted_text,omitempty"`
	Types        []string `json:"types,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// RememberInput defines parameters for the promptveil_remember tool.
type RememberInput struct {
	Text string `json:"text" jsonschema:"text to store"`
	Kind string `json:"kind,omitempty" jsonschema:"capture kind (prompt/reply), default prompt"`
}

// RememberOutput confirms the stored record.
type RememberOutput struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// ScanInput defines parameters for the promptveil_scan tool.
type ScanInput struct {
	Text string `json:"text" jsonschema:"text to scan for sensitive data"`
}

// ScanOutput carries the redacted variant and detected categories.
type ScanOutput struct {
	RedactedText string   `json:"redacted_text"`
	Types        []string `json:"types"`
	Count        int      `json:"count"`
}

// --- Handlers ---

func (s *Server) handleLastCapture(ctx context.Context, req *mcpsdk.CallToolRequest, input LastCaptureInput) (*mcpsdk.CallToolResult, LastCaptureOutput, error) {
	kind := capture.Kind(input.Kind)
	if kind == "" {
		kind = capture.KindPrompt
	}
	rec, err := s.store.Last(kind)
	if err != nil {
		return nil, LastCaptureOutput{}, fmt.Errorf("failed to read capture store: %w", err)
	}
	if rec == nil {
		return nil, LastCaptureOutput{Found: false}, nil
	}
	return nil, LastCaptureOutput{
		Found:        true,
		Kind:         string(rec.Kind),
		Text:         rec.Text,
		RedactedText: rec.RedactedText,
		Types:        rec.Types,
		CreatedAt:    rec.CreatedAt.Format("2006-01-02T15:04:05.000Z"),
	}, nil
}

func (s *Server) handleRemember(ctx context.Context, req *mcpsdk.CallToolRequest, input RememberInput) (*mcpsdk.CallToolResult, RememberOutput, error) {
	if input.Text == "" {
		return &mcpsdk.CallToolResult{IsError: true}, RememberOutput{}, fmt.Errorf("text is required")
	}
	kind := capture.Kind(input.Kind)
	if kind != capture.KindReply {
		kind = capture.KindPrompt
	}
	rec, err := s.store.Remember(capture.Record{Kind: kind, Text: input.Text})
	if err != nil {
		return nil, RememberOutput{}, fmt.Errorf("failed to store capture: %w", err)
	}
	return nil, RememberOutput{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05.000Z"),
	}, nil
}

func (s *Server) handleScan(ctx context.Context, req *mcpsdk.CallToolRequest, input ScanInput) (*mcpsdk.CallToolResult, ScanOutput, error) {
	if input.Text == "" {
		return &mcpsdk.CallToolResult{IsError: true}, ScanOutput{}, fmt.Errorf("text is required")
	}
	res, err := s.client.ScanText(ctx, input.Text)
	if err != nil {
		return nil, ScanOutput{}, fmt.Errorf("scan failed: %w", err)
	}
	return nil, ScanOutput{
		RedactedText: res.RedactedText,
		Types:        res.Types,
		Count:        len(res.Entities),
	}, nil
}
