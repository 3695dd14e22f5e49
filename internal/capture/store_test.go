package capture

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func TestRememberAssignsIdentity(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Remember(Record{Kind: KindPrompt, Text: "hello"})
	if err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected an ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestRememberDefaultsToPrompt(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Remember(Record{Text: "hello"})
	if err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	if rec.Kind != KindPrompt {
		t.Errorf("expected prompt kind, got %s", rec.Kind)
	}
}

func TestLastByKind(t *testing.T) {
	s := newTestStore(t)
	mustRemember(t, s, Record{Kind: KindPrompt, Text: "first prompt"})
	mustRemember(t, s, Record{Kind: KindReply, Text: "a reply"})
	mustRemember(t, s, Record{Kind: KindPrompt, Text: "second prompt"})

	last, err := s.Last(KindPrompt)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if last == nil || last.Text != "second prompt" {
		t.Errorf("expected second prompt, got %+v", last)
	}

	reply, err := s.Last(KindReply)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if reply == nil || reply.Text != "a reply" {
		t.Errorf("expected the reply, got %+v", reply)
	}
}

func TestLastEmptyStore(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Last(KindPrompt)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil, got %+v", rec)
	}
}

func TestListOldestFirst(t *testing.T) {
	s := newTestStore(t)
	mustRemember(t, s, Record{Text: "one"})
	mustRemember(t, s, Record{Text: "two"})
	mustRemember(t, s, Record{Text: "three"})

	recs, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].CreatedAt.Before(recs[i-1].CreatedAt) {
			t.Errorf("records out of order: %v then %v", recs[i-1].CreatedAt, recs[i].CreatedAt)
		}
	}
}

func TestRedactionContextRoundTrips(t *testing.T) {
	s := newTestStore(t)
	mustRemember(t, s, Record{
		Kind:         KindPrompt,
		Text:         "my card is [CC]",
		RedactedText: "my card is [CC]",
		Types:        []string{"CC"},
	})

	last, err := s.Last(KindPrompt)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if last.RedactedText != "my card is [CC]" {
		t.Errorf("redacted text lost: %q", last.RedactedText)
	}
	if len(last.Types) != 1 || last.Types[0] != "CC" {
		t.Errorf("types lost: %v", last.Types)
	}
}

func TestCleanup(t *testing.T) {
	s := newTestStore(t)
	mustRemember(t, s, Record{Text: "one"})
	mustRemember(t, s, Record{Text: "two"})

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	recs, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected empty store, got %d records", len(recs))
	}
}

func mustRemember(t *testing.T, s *Store, rec Record) {
	t.Helper()
	if _, err := s.Remember(rec); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
}
