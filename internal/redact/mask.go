package redact

import (
	"github.com/promptveil/promptveil/internal/backend"
)

// Mask replaces every matched span with its type tag, right to left so
// earlier offsets stay valid.
func Mask(text string, matches []Match) string {
	out := text
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		out = out[:m.Start] + "[" + string(m.Type) + "]" + out[m.End:]
	}
	return out
}

// Fallback scans text offline and shapes the result like a service
// scan. Returns nil when nothing is detected, so callers can keep the
// "no redacted variant" presentation instead of offering an identical
// string.
func Fallback(text string) *backend.ScanResult {
	matches := Scan(text)
	if len(matches) == 0 {
		return nil
	}

	res := &backend.ScanResult{
		OriginalText: text,
		RedactedText: Mask(text, matches),
	}
	seen := make(map[string]bool)
	for _, m := range matches {
		res.Entities = append(res.Entities, backend.Entity{
			Type:  string(m.Type),
			Value: m.Value,
			Start: m.Start,
			End:   m.End,
		})
		if !seen[string(m.Type)] {
			seen[string(m.Type)] = true
			res.Types = append(res.Types, string(m.Type))
		}
	}
	return res
}
