package rodpage

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserOptions selects or launches the tab to mediate.
type BrowserOptions struct {
	// ControlURL is an existing DevTools endpoint; empty launches a
	// managed browser.
	ControlURL string

	// URL navigates a fresh tab there when set.
	URL string

	// Match picks an already-open tab whose URL contains this
	// substring. Ignored when URL is set.
	Match string

	Headless bool
}

// Attach connects to a browser and resolves the target tab. The
// returned cleanup closes the connection and, for a managed browser,
// the browser itself.
func Attach(ctx context.Context, opts BrowserOptions) (*rod.Page, func(), error) {
	controlURL := opts.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(opts.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	cleanup := func() {
		_ = browser.Close()
		if l != nil {
			l.Cleanup()
		}
	}

	p, err := resolvePage(browser, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}

func resolvePage(browser *rod.Browser, opts BrowserOptions) (*rod.Page, error) {
	if opts.URL != "" {
		p, err := browser.Page(proto.TargetCreateTarget{URL: opts.URL})
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", opts.URL, err)
		}
		if err := p.WaitLoad(); err != nil {
			return nil, fmt.Errorf("page never finished loading: %w", err)
		}
		return p, nil
	}

	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if opts.Match == "" || strings.Contains(info.URL, opts.Match) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no open page matches %q", opts.Match)
}
