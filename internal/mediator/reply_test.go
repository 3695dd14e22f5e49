package mediator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/capture"
	"github.com/promptveil/promptveil/internal/consent"
	"github.com/promptveil/promptveil/internal/locator"
	"github.com/promptveil/promptveil/internal/page/fakepage"
	"github.com/promptveil/promptveil/internal/replywatch"
)

func TestReplyCaptureStoredAndShown(t *testing.T) {
	d := fakepage.NewChat()
	store, err := capture.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var shown ReplyContext
	m := New(Options{
		Doc:     d,
		Locator: locator.New(d, nil),
		Client:  backend.NewClient("http://127.0.0.1:1", time.Second),
		Surface: consent.Fixed(consent.Original),
		Store:   store,
		Replies: ReplyFunc(func(_ context.Context, rc ReplyContext) (ReplyAction, error) {
			shown = rc
			return ActionClose, nil
		}),
	})

	m.mu.Lock()
	m.lastScan = &backend.ScanResult{
		OriginalText: "my card is 4111",
		RedactedText: "my card is [CC]",
		Types:        []string{"CC"},
	}
	m.mu.Unlock()

	m.onReply(replywatch.Capture{Text: "That looks like a Visa.", Prompt: "my card is [CC]"})

	if shown.Answer != "That looks like a Visa." {
		t.Fatalf("shown.Answer = %q", shown.Answer)
	}
	if shown.RedactedPrompt != "my card is [CC]" || len(shown.Types) != 1 {
		t.Fatalf("shown redaction context = %+v", shown)
	}

	rec, err := store.Last(capture.KindReply)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Text != "That looks like a Visa." {
		t.Fatalf("stored reply = %+v", rec)
	}
}

func TestReplyInsertWritesIntoInput(t *testing.T) {
	d := fakepage.NewChat()
	m := New(Options{
		Doc:     d,
		Locator: locator.New(d, nil),
		Client:  backend.NewClient("http://127.0.0.1:1", time.Second),
		Surface: consent.Fixed(consent.Original),
		Replies: ReplyFunc(func(context.Context, ReplyContext) (ReplyAction, error) {
			return ActionInsert, nil
		}),
	})

	m.onReply(replywatch.Capture{Text: "inserted answer"})

	if got := d.PromptInput().Value(); got != "inserted answer" {
		t.Fatalf("input value = %q", got)
	}
}

func TestSubmitReportRequiresCompletedExchange(t *testing.T) {
	d := fakepage.NewChat()
	m := New(Options{
		Doc:     d,
		Locator: locator.New(d, nil),
		Client:  backend.NewClient("http://127.0.0.1:1", time.Second),
		Surface: consent.Fixed(consent.Original),
	})

	if err := m.SubmitReport(context.Background()); err == nil {
		t.Fatal("report without an exchange should fail")
	}
}

func TestSubmitReportSendsExchange(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	d := fakepage.NewChat()
	m := New(Options{
		Doc:     d,
		Locator: locator.New(d, nil),
		Client:  backend.NewClient(srv.URL, time.Second),
		Surface: consent.Fixed(consent.Original),
	})
	m.mu.Lock()
	m.lastScan = &backend.ScanResult{
		OriginalText: "original",
		RedactedText: "redacted",
		Types:        []string{"CC"},
	}
	m.lastRep = &replywatch.Capture{Text: "the answer"}
	m.mu.Unlock()

	if err := m.SubmitReport(context.Background()); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if form.Get("original_text") != "original" || form.Get("answer_text") != "the answer" {
		t.Fatalf("form = %v", form)
	}
}
