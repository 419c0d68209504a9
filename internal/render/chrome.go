// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pdiddy/edgar-export/internal/httputil"
	"github.com/pdiddy/edgar-export/pkg/types"
)

// Chrome renders with headless Chrome driven over CDP. The browser is
// launched on first use and shared by concurrent renders; each render
// gets its own tab.
type Chrome struct {
	userAgent string
	cfg       types.RenderConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewChrome creates a renderer that launches a local headless Chrome.
func NewChrome(cfg types.RenderConfig, userAgent string) *Chrome {
	return &Chrome{userAgent: userAgent, cfg: cfg}
}

func (c *Chrome) Name() string { return string(types.RendererChrome) }

func (c *Chrome) connect() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}

	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("chrome: launch: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("chrome: connect: %w", err)
	}
	c.browser = b
	c.lnch = l
	return b, nil
}

func (c *Chrome) Render(ctx context.Context, sourceURL, destPath string) error {
	b, err := c.connect()
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return fmt.Errorf("chrome: create tab: %w", err)
	}
	defer page.Close()

	if c.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: c.userAgent}); err != nil {
			return fmt.Errorf("chrome: set user agent: %w", err)
		}
	}

	p := page.Context(ctx)
	if err := p.Navigate(sourceURL); err != nil {
		return fmt.Errorf("chrome: navigate %s: %w", sourceURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("chrome: wait load %s: %w", sourceURL, err)
	}

	stream, err := p.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return fmt.Errorf("chrome: print %s: %w", sourceURL, err)
	}
	return httputil.WriteAtomic(destPath, stream)
}

// Close shuts down the browser if it was launched.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.lnch != nil {
		c.lnch.Cleanup()
		c.lnch = nil
	}
	return err
}
