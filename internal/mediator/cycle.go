package mediator

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/promptveil/promptveil/internal/capture"
	"github.com/promptveil/promptveil/internal/consent"
	"github.com/promptveil/promptveil/internal/guard"
	"github.com/promptveil/promptveil/internal/page"
	"github.com/promptveil/promptveil/internal/redact"
)

// runCycle drives one intercepted send from Scanning to its terminal
// phase. The guard claim is already held; every exit path below, the
// panic path included, releases it. A stuck guard makes the host page
// unusable, so release is the one invariant this function may never
// trade away.
func (m *Mediator) runCycle(ctx context.Context, t guard.Trigger) {
	log := m.log.With(zap.String("cycle", newCycleID()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("cycle panicked", zap.Any("panic", r))
			m.state.End()
			m.finish(PhaseFailed)
		}
	}()

	input := m.loc.Input()
	var text string
	if input != nil {
		text = strings.TrimSpace(input.Value())
	}
	uploads := m.takeUploads()

	if text == "" && len(uploads) == 0 {
		log.Debug("nothing to send")
		m.state.End()
		m.finish(PhaseCancelled)
		return
	}
	log.Info("send intercepted",
		zap.String("trigger", string(t.Kind)),
		zap.Int("text_len", len(text)),
		zap.Int("uploads", len(uploads)))

	m.setPhase(PhaseScanning)
	offer := m.scan(ctx, log, text, uploads)

	if offer.Text != nil {
		m.mu.Lock()
		m.lastScan = offer.Text.Scan
		m.mu.Unlock()
	}

	choice, cancelled := m.decide(ctx, log, offer)
	if cancelled {
		log.Info("cycle cancelled by user")
		m.state.End()
		m.finish(PhaseCancelled)
		return
	}

	m.setPhase(PhaseReinjecting)
	finalText := chosenText(offer, choice)
	files := chosenFiles(offer, choice)

	if err := m.engine.HardReset(ctx); err != nil {
		log.Warn("hard reset incomplete", zap.Error(err))
	}
	if finalText != "" && !m.engine.WriteText(input, finalText) {
		log.Warn("text write failed, degraded send")
	}
	attached := 0
	for _, f := range files {
		if m.engine.AttachFile(ctx, f) {
			attached++
		} else {
			log.Warn("file attach failed, continuing without it", zap.String("file", f.Name))
		}
	}

	m.setPhase(PhaseReadyToSend)
	m.watcher.Arm(finalText)
	m.remember(offer, choice, finalText)

	if attached > 0 {
		// Moving the file-attach surface mid-transition loses the
		// attachment on some hosts; submission stays with the user,
		// with one native pass armed for their gesture.
		log.Info("attachment present, submission left to user")
		m.state.EndForUserSend()
		m.finish(PhaseReadyToSend)
		return
	}

	if finalText == "" {
		log.Warn("nothing survived reinjection")
		m.state.End()
		m.finish(PhaseFailed)
		return
	}

	m.state.ArmPassThrough()
	m.submit(log, input)
	m.state.End()
	log.Info("sent", zap.Int("text_len", len(finalText)))
	m.finish(PhaseSent)
}

// scan fans the present channels out to the redaction service and
// waits for all of them to settle. A failed channel degrades to "no
// redacted variant offered"; partial results never leak mid-flight.
func (m *Mediator) scan(ctx context.Context, log *zap.Logger, text string, uploads map[Channel]*PendingUpload) consent.Offer {
	var offer consent.Offer
	var wg sync.WaitGroup

	call := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, m.cfg.ScanTimeout)
			defer cancel()
			fn(cctx)
		}()
	}

	if text != "" {
		offer.Text = &consent.TextOffer{Original: text}
		call(func(cctx context.Context) {
			res, err := m.client.ScanText(cctx, text)
			if err != nil {
				// Offline patterns still cover the regex tier.
				log.Warn("text channel degraded, scanning offline", zap.Error(err))
				offer.Text.Scan = redact.Fallback(text)
				return
			}
			offer.Text.Scan = res
		})
	}
	if up, ok := uploads[ChannelImage]; ok {
		offer.Image = &consent.BinaryOffer{Original: up.File}
		call(func(cctx context.Context) {
			res, err := m.client.MaskImage(cctx, up.File)
			if err != nil {
				log.Warn("image channel degraded", zap.Error(err))
				return
			}
			offer.Image.Mask = res
		})
	}
	if up, ok := uploads[ChannelData]; ok {
		offer.Files = append(offer.Files, consent.BinaryOffer{Original: up.File})
		idx := len(offer.Files) - 1
		call(func(cctx context.Context) {
			res, err := m.client.MaskFile(cctx, up.File)
			if err != nil {
				log.Warn("file channel degraded", zap.Error(err))
				return
			}
			offer.Files[idx].Mask = res
		})
	}

	wg.Wait()
	return offer
}

// decide resolves the offer into a choice, either through the consent
// surface or the configured text-only bypass. cancelled is true only
// for an explicit user cancel.
func (m *Mediator) decide(ctx context.Context, log *zap.Logger, offer consent.Offer) (*consent.Choice, bool) {
	textOnly := offer.Image == nil && len(offer.Files) == 0
	if textOnly && !m.cfg.TextOnlyConsent {
		return consent.Resolve(offer, m.cfg.TextOnlyDefault), false
	}

	m.setPhase(PhaseAwaitingConsent)
	choice, err := m.surface.Present(ctx, offer)
	if err != nil {
		// The surface itself broke, not the user's intent: the user
		// pressed send, so the original content goes through.
		log.Warn("consent surface failed, using original", zap.Error(err))
		return consent.Resolve(offer, consent.Original), false
	}
	if choice == nil {
		return nil, true
	}
	return choice, false
}

func chosenText(offer consent.Offer, choice *consent.Choice) string {
	if offer.Text == nil {
		return ""
	}
	if choice.Text == consent.Redacted && offer.Text.Scan != nil {
		return offer.Text.Scan.RedactedText
	}
	return offer.Text.Original
}

func chosenFiles(offer consent.Offer, choice *consent.Choice) []page.File {
	var out []page.File
	if offer.Image != nil {
		out = append(out, pick(*offer.Image, choice.Image))
	}
	for i, f := range offer.Files {
		sel := consent.Original
		if i < len(choice.Files) {
			sel = choice.Files[i]
		}
		out = append(out, pick(f, sel))
	}
	return out
}

func pick(o consent.BinaryOffer, sel consent.Selection) page.File {
	if sel == consent.Redacted && o.Mask != nil {
		return o.Mask.Redacted
	}
	return o.Original
}

// submit performs the programmatic submission: the host's own send
// control when it can be found, a synthetic Enter otherwise.
func (m *Mediator) submit(log *zap.Logger, input page.Element) {
	if ctl := m.loc.SendControl(); ctl != nil {
		if err := ctl.Click(); err == nil {
			return
		}
		log.Warn("send control click failed, falling back to Enter")
	}
	if input == nil || !input.Connected() {
		input = m.loc.Input()
	}
	if input == nil {
		log.Warn("no submission pathway found")
		return
	}
	_ = m.doc.Dispatch(page.Event{Kind: page.KeyDown, Key: "Enter", Target: input})
}

// remember persists the mediated prompt for the relay and report
// surfaces.
func (m *Mediator) remember(offer consent.Offer, choice *consent.Choice, finalText string) {
	if m.store == nil || finalText == "" {
		return
	}
	rec := capture.Record{Kind: capture.KindPrompt, Text: finalText}
	if offer.Text != nil && offer.Text.Scan != nil {
		rec.RedactedText = offer.Text.Scan.RedactedText
		rec.Types = append(rec.Types, offer.Text.Scan.Types...)
	}
	if offer.Image != nil && offer.Image.Mask != nil {
		rec.Types = append(rec.Types, offer.Image.Mask.Types...)
	}
	for _, f := range offer.Files {
		if f.Mask != nil {
			rec.Types = append(rec.Types, f.Mask.Types...)
		}
	}
	rec.Types = dedupe(rec.Types)
	if _, err := m.store.Remember(rec); err != nil {
		m.log.Debug("capture store write failed", zap.Error(err))
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
