package guard

import (
	"testing"

	"github.com/promptveil/promptveil/internal/page"
	"github.com/promptveil/promptveil/internal/page/fakepage"
)

func TestStateTryBeginClaimsOnce(t *testing.T) {
	s := NewState()
	if !s.TryBegin() {
		t.Fatal("first TryBegin should claim an idle state")
	}
	if s.TryBegin() {
		t.Fatal("second TryBegin should fail while forwarding")
	}
	if !s.Blocked() || !s.Forwarding() {
		t.Fatal("claimed state should be blocked and forwarding")
	}
	s.End()
	if s.Blocked() || s.Forwarding() || s.PassThroughPending() {
		t.Fatal("End should clear every flag")
	}
	if !s.TryBegin() {
		t.Fatal("TryBegin should succeed again after End")
	}
}

func TestStatePassThroughRearmsWhileForwarding(t *testing.T) {
	s := NewState()
	s.TryBegin()
	s.ArmPassThrough()
	if s.Blocked() {
		t.Fatal("arming the pass should release the block")
	}
	if !s.ConsumePassThrough() {
		t.Fatal("armed pass should be consumable")
	}
	if !s.Blocked() {
		t.Fatal("spending the pass mid-cycle should re-arm suppression")
	}
	if s.ConsumePassThrough() {
		t.Fatal("pass is one-shot")
	}
}

func TestStateEndForUserSend(t *testing.T) {
	s := NewState()
	s.TryBegin()
	s.EndForUserSend()
	if s.Forwarding() || s.Blocked() {
		t.Fatal("EndForUserSend should close the cycle")
	}
	if !s.PassThroughPending() {
		t.Fatal("EndForUserSend should leave a pass armed")
	}
	if !s.ConsumePassThrough() {
		t.Fatal("the user's own send should spend the pass")
	}
	if s.Blocked() {
		t.Fatal("pass spent outside a cycle should leave the pipeline unblocked")
	}
}

func attach(t *testing.T, doc *fakepage.Doc, onSend func(Trigger)) *Guard {
	t.Helper()
	g := New(NewState(), onSend)
	detach := g.Attach(doc)
	t.Cleanup(detach)
	return g
}

func TestGuardConsumesEnterAndReportsOnce(t *testing.T) {
	doc := fakepage.NewChat()
	var triggers []Trigger
	g := attach(t, doc, func(tr Trigger) { triggers = append(triggers, tr) })

	doc.UserType("hello")
	doc.UserEnter()

	if len(doc.Sent) != 0 {
		t.Fatalf("native send should be suppressed, got %v", doc.Sent)
	}
	if len(triggers) != 1 {
		t.Fatalf("want one trigger, got %d", len(triggers))
	}
	if triggers[0].Kind != page.KeyDown {
		t.Fatalf("trigger kind = %v, want KeyDown", triggers[0].Kind)
	}

	// A repeat gesture while the cycle is in flight is swallowed, not
	// queued.
	doc.UserEnter()
	if len(triggers) != 1 {
		t.Fatalf("repeat attempt started a second cycle: %d triggers", len(triggers))
	}
	if !g.State().Forwarding() {
		t.Fatal("cycle should still be in flight")
	}
}

func TestGuardPassesShiftEnter(t *testing.T) {
	doc := fakepage.NewChat()
	triggered := false
	attach(t, doc, func(Trigger) { triggered = true })

	doc.UserType("line one")
	doc.UserShiftEnter()

	if triggered {
		t.Fatal("Shift+Enter is a newline, not a send")
	}
	if len(doc.Sent) != 0 {
		t.Fatal("fake host should not send on Shift+Enter either")
	}
}

func TestGuardConsumesSendClick(t *testing.T) {
	doc := fakepage.NewChat()
	var got Trigger
	attach(t, doc, func(tr Trigger) { got = tr })

	doc.UserType("hello")
	doc.UserClick(doc.SendButton())

	if got.Kind != page.Click {
		t.Fatalf("trigger kind = %v, want Click", got.Kind)
	}
	if len(doc.Sent) != 0 {
		t.Fatal("send click should be consumed")
	}
}

func TestGuardIgnoresUnrelatedClick(t *testing.T) {
	doc := fakepage.NewChat()
	triggered := false
	attach(t, doc, func(Trigger) { triggered = true })

	other := doc.Append(doc.Root(), doc.NewNode("button", "aria-label", "New chat"))
	doc.UserClick(other)

	if triggered {
		t.Fatal("a non-send click should pass through untouched")
	}
}

func TestGuardPassThroughReachesHostOnce(t *testing.T) {
	doc := fakepage.NewChat()
	g := attach(t, doc, nil)

	doc.UserType("approved text")
	g.State().TryBegin()
	g.State().ArmPassThrough()
	doc.UserEnter()

	if len(doc.Sent) != 1 || doc.Sent[0] != "approved text" {
		t.Fatalf("armed pass should let the native pathway run once, got %v", doc.Sent)
	}
	if !g.State().Blocked() {
		t.Fatal("suppression should re-arm while the cycle is still open")
	}

	g.State().End()
}

func TestGuardDetachStopsInterception(t *testing.T) {
	doc := fakepage.NewChat()
	g := New(NewState(), func(Trigger) { t.Fatal("detached guard must not fire") })
	detach := g.Attach(doc)
	detach()

	doc.UserType("unguarded")
	doc.UserEnter()

	if len(doc.Sent) != 1 {
		t.Fatalf("host should handle the send natively after detach, got %v", doc.Sent)
	}
}

func TestLooksLikeSend(t *testing.T) {
	doc := fakepage.New()

	ariaBtn := doc.NewNode("button", "aria-label", "Send prompt")
	testidBtn := doc.NewNode("button", "data-testid", "composer-send-button")
	submitBtn := doc.NewNode("button", "type", "submit")
	koreanBtn := doc.NewNode("button")
	doc.SetText(koreanBtn, "보내기")
	plainBtn := doc.NewNode("button", "aria-label", "Attach files")

	iconBtn := doc.NewNode("button")
	icon := doc.NewNode("svg", "aria-label", "Send message")
	doc.Append(doc.Root(), iconBtn)
	doc.Append(iconBtn, icon)

	// Clicks often land on a child of the control.
	inner := doc.NewNode("span")
	doc.Append(doc.Root(), ariaBtn)
	doc.Append(ariaBtn, inner)

	tests := []struct {
		name   string
		target page.Element
		want   bool
	}{
		{"aria label", ariaBtn, true},
		{"child of labelled control", inner, true},
		{"test id", testidBtn, true},
		{"submit type", submitBtn, true},
		{"korean text", koreanBtn, true},
		{"icon label", iconBtn, true},
		{"unrelated control", plainBtn, false},
		{"nil target", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeSend(tt.target); got != tt.want {
				t.Fatalf("LooksLikeSend = %v, want %v", got, tt.want)
			}
		})
	}
}
