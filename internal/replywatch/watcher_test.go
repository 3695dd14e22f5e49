package replywatch

import (
	"context"
	"testing"
	"time"

	"github.com/promptveil/promptveil/internal/locator"
	"github.com/promptveil/promptveil/internal/page/fakepage"
)

func newWatcher(t *testing.T, d *fakepage.Doc) (*Watcher, chan Capture) {
	t.Helper()
	captures := make(chan Capture, 4)
	w := New(d, locator.New(d, nil), nil, func(c Capture) { captures <- c })
	w.Debounce = 20 * time.Millisecond
	w.Settle = time.Millisecond
	w.AwaitInterval = 10 * time.Millisecond
	w.AwaitTimeout = 500 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	// Give Run a moment to subscribe before the test mutates.
	time.Sleep(10 * time.Millisecond)
	return w, captures
}

func waitCapture(t *testing.T, ch chan Capture) Capture {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no capture arrived")
		return Capture{}
	}
}

func expectNoCapture(t *testing.T, ch chan Capture) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected capture: %+v", c)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCapturesNewAssistantTurn(t *testing.T) {
	d := fakepage.NewChat()
	w, captures := newWatcher(t, d)

	w.Arm("what is my number?")
	body := d.BeginAssistantTurn()
	d.StreamAssistant(body, "Your number ends in 5678.", 3)

	c := waitCapture(t, captures)
	if c.Text != "Your number ends in 5678." {
		t.Fatalf("Text = %q", c.Text)
	}
	if c.Prompt != "what is my number?" {
		t.Fatalf("Prompt = %q", c.Prompt)
	}
	if w.Armed() {
		t.Fatal("watcher should disarm after delivery")
	}
}

func TestCapturesGrowthOfLastTurn(t *testing.T) {
	d := fakepage.NewChat()
	// A finished earlier reply is already on the page.
	body := d.BeginAssistantTurn()
	d.StreamAssistant(body, "old answer", 1)

	w, captures := newWatcher(t, d)
	w.Arm("follow-up")

	// The host streams into the same last turn instead of adding one.
	time.Sleep(20 * time.Millisecond)
	d.StreamAssistant(body, "old answer with more detail", 2)

	c := waitCapture(t, captures)
	if c.Text != "old answer with more detail" {
		t.Fatalf("Text = %q", c.Text)
	}
}

func TestSecondReplyNeedsRearm(t *testing.T) {
	d := fakepage.NewChat()
	w, captures := newWatcher(t, d)

	w.Arm("first")
	b1 := d.BeginAssistantTurn()
	d.StreamAssistant(b1, "first answer", 1)
	waitCapture(t, captures)

	// More streaming without a new arm must not deliver again.
	b2 := d.BeginAssistantTurn()
	d.StreamAssistant(b2, "unsolicited", 1)
	expectNoCapture(t, captures)

	w.Arm("second")
	b3 := d.BeginAssistantTurn()
	d.StreamAssistant(b3, "second answer", 1)
	if c := waitCapture(t, captures); c.Text != "second answer" {
		t.Fatalf("Text = %q", c.Text)
	}
}

func TestUnarmedWatcherStaysQuiet(t *testing.T) {
	d := fakepage.NewChat()
	_, captures := newWatcher(t, d)

	body := d.BeginAssistantTurn()
	d.StreamAssistant(body, "nobody asked", 1)
	expectNoCapture(t, captures)
}

func TestArmOnUserTurnCapturesUnmediatedExchange(t *testing.T) {
	d := fakepage.NewChat()
	captures := make(chan Capture, 4)
	w := New(d, locator.New(d, nil), nil, func(c Capture) { captures <- c })
	w.Debounce = 20 * time.Millisecond
	w.Settle = time.Millisecond
	w.AwaitInterval = 10 * time.Millisecond
	w.ArmOnUserTurn = true

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	time.Sleep(10 * time.Millisecond)

	// The user sends natively, without a mediated cycle arming the
	// watcher; the appended user turn arms it instead.
	d.UserType("raw send")
	d.UserEnter()

	deadline := time.Now().Add(3 * time.Second)
	for !w.Armed() {
		if time.Now().After(deadline) {
			t.Fatal("watcher never armed on the user turn")
		}
		time.Sleep(5 * time.Millisecond)
	}

	body := d.BeginAssistantTurn()
	d.StreamAssistant(body, "reply to raw send", 1)

	c := waitCapture(t, captures)
	if c.Text != "reply to raw send" {
		t.Fatalf("Text = %q", c.Text)
	}
	if c.Prompt != "" {
		t.Fatalf("Prompt = %q, want empty for an unmediated send", c.Prompt)
	}
}

func TestRearmInsideCooldownKeepsFirstBaseline(t *testing.T) {
	d := fakepage.NewChat()
	w := New(d, locator.New(d, nil), nil, nil)

	w.Arm("first prompt")
	w.Arm("second prompt")

	w.mu.Lock()
	prompt := w.prompt
	w.mu.Unlock()
	if prompt != "first prompt" {
		t.Fatalf("prompt = %q, want the first arm to win inside the cooldown", prompt)
	}
}

func TestExpiryDisarms(t *testing.T) {
	d := fakepage.NewChat()
	w, captures := newWatcher(t, d)
	w.MaxWait = 10 * time.Millisecond

	w.Arm("never answered")
	deadline := time.Now().Add(3 * time.Second)
	for w.Armed() {
		if time.Now().After(deadline) {
			t.Fatal("watcher never expired")
		}
		time.Sleep(50 * time.Millisecond)
	}
	expectNoCapture(t, captures)
}
