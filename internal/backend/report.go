package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Report is the payload for a generated findings report: the mediated
// prompt in both variants, detected types, and optionally the captured
// reply.
type Report struct {
	OriginalText string
	RedactedText string
	AnswerText   string
	Types        []string
}

// SubmitReport posts a report to the service's preview endpoint.
// Fire-and-forget: the service renders it in its own browsing context;
// the caller only learns whether the request was accepted.
func (c *Client) SubmitReport(ctx context.Context, r Report) error {
	types, err := json.Marshal(r.Types)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("original_text", r.OriginalText)
	form.Set("redacted_text", r.RedactedText)
	form.Set("answer_text", r.AnswerText)
	form.Set("types", string(types))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/report/preview_gpt", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("report rejected: HTTP %d", resp.StatusCode)
	}
	return nil
}
