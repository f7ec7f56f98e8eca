package enrichment

import (
	"context"

	"github.com/go-rod/rod"
)

// RodBrowser is the production Browser: a headless Chromium instance
// via go-rod, used only for the unknown portal-type strategy where
// JavaScript execution may be required to reveal applicant/agent
// fields (§4.5.5).
type RodBrowser struct {
	browser *rod.Browser
}

// NewRodBrowser launches a headless browser. Callers must call Close
// when done.
func NewRodBrowser() *RodBrowser {
	return &RodBrowser{browser: rod.New().MustConnect()}
}

// Close releases the underlying browser process.
func (b *RodBrowser) Close() error {
	return b.browser.Close()
}

// Render navigates to url, waits for the page to settle, and returns
// its rendered HTML.
func (b *RodBrowser) Render(ctx context.Context, url string) (string, error) {
	page, err := b.browser.Context(ctx).Page(rod.PageInfo{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return page.HTML()
}
