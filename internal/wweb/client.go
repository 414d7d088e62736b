// Package wweb drives WhatsApp Web through a real browser. It implements the
// engine's Transport contract: sends retry transient UI failures with a fixed
// delay and capture a screenshot artifact on every failed attempt; receives
// poll the open conversation for incoming bubbles.
package wweb

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"whatsapp-salesbot/internal/config"
	"whatsapp-salesbot/internal/engine"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	whatsappURL = "https://web.whatsapp.com/"

	chatListSelector   = `div[aria-label="Lista de conversas"]`
	searchBoxSelector  = `div[contenteditable="true"][data-tab="3"]`
	messageBoxSelector = `div[contenteditable="true"][data-tab="10"]`
	incomingSelector   = `div.message-in span.selectable-text`

	sendAttempts = 3
	retryDelay   = 7 * time.Second
	pollDelay    = 7 * time.Second
	loginTimeout = 2 * time.Minute
)

type Client struct {
	browser       *rod.Browser
	page          *rod.Page
	screenshotDir string
	log           *zap.Logger
}

// Connect launches the browser, opens WhatsApp Web, and blocks until the chat
// list appears (i.e. the operator has scanned the QR code).
func Connect(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	url, err := launcher.New().
		Headless(cfg.Headless).
		Set("disable-notifications").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: whatsappURL})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open WhatsApp Web: %w", err)
	}

	logger.Info("waiting for WhatsApp Web login")
	if err := rod.Try(func() {
		page.Timeout(loginTimeout).MustElement(chatListSelector)
	}); err != nil {
		browser.Close()
		return nil, fmt.Errorf("login not completed: %w", err)
	}
	logger.Info("WhatsApp Web session ready")

	return &Client{
		browser:       browser,
		page:          page,
		screenshotDir: cfg.ScreenshotDir,
		log:           logger,
	}, nil
}

func (c *Client) Close() {
	if c.browser != nil {
		c.browser.Close()
	}
}

// Send delivers text to the named contact, retrying transient UI failures up
// to sendAttempts with a fixed delay and capturing a screenshot artifact on
// each failure.
func (c *Client) Send(contactName, text string) engine.SendResult {
	clean := stripNonBMP(text)
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		err := c.trySend(contactName, clean)
		if err == nil {
			c.log.Info("message sent", zap.String("contact", contactName))
			humanPause(2*time.Second, 4*time.Second)
			return engine.SendResult{OK: true}
		}
		c.log.Error("send attempt failed",
			zap.String("contact", contactName),
			zap.Int("attempt", attempt),
			zap.Error(err))
		c.CaptureDiagnostic("send_" + contactName)
		time.Sleep(retryDelay)
	}
	return engine.SendResult{OK: false, Reason: fmt.Sprintf("gave up after %d attempts", sendAttempts)}
}

func (c *Client) trySend(contactName, text string) error {
	return rod.Try(func() {
		search := c.page.Timeout(20 * time.Second).MustElement(searchBoxSelector)
		search.MustClick()
		search.MustSelectAllText()
		search.MustInput(contactName)
		time.Sleep(pollDelay)

		c.page.Timeout(10 * time.Second).
			MustElement(contactSelector(contactName)).
			MustClick()
		time.Sleep(pollDelay)

		box := c.page.Timeout(20 * time.Second).MustElement(messageBoxSelector)
		box.MustClick()
		time.Sleep(time.Second)

		// Typing rune by rune with jitter keeps the cadence human-like.
		for _, r := range text {
			box.MustInput(string(r))
			humanPause(50*time.Millisecond, 150*time.Millisecond)
		}
		time.Sleep(time.Second)
		box.MustType(input.Enter)
	})
}

// ReceiveLatest opens the contact's conversation and polls for incoming text
// bubbles until some are observed or the window elapses. An unlocatable
// conversation yields an empty result, not an error: the caller must still
// attempt outreach.
func (c *Client) ReceiveLatest(contactName string, window time.Duration) ([]string, error) {
	err := rod.Try(func() {
		c.page.Timeout(30 * time.Second).MustElement(chatListSelector)
		c.page.Timeout(10 * time.Second).
			MustElement(contactSelector(contactName)).
			MustClick()
	})
	if err != nil {
		c.log.Warn("conversation not found", zap.String("contact", contactName), zap.Error(err))
		return nil, nil
	}
	time.Sleep(pollDelay)

	deadline := time.Now().Add(window)
	for {
		c.scrollToBottom()

		elements, err := c.page.Elements(incomingSelector)
		if err != nil {
			c.log.Warn("reading messages failed", zap.String("contact", contactName), zap.Error(err))
		} else if len(elements) > 0 {
			// Only the two most recent bubbles matter; older ones were
			// already deduplicated on previous cycles.
			start := len(elements) - 2
			if start < 0 {
				start = 0
			}
			var fragments []string
			for _, el := range elements[start:] {
				text, err := el.Text()
				if err != nil {
					continue
				}
				text = stripNonBMP(strings.TrimSpace(text))
				if text != "" {
					fragments = append(fragments, text)
				}
			}
			if len(fragments) > 0 {
				return fragments, nil
			}
		}

		if time.Now().After(deadline) {
			return nil, nil
		}
		time.Sleep(pollDelay)
	}
}

func (c *Client) scrollToBottom() {
	err := rod.Try(func() {
		c.page.MustEval(`() => {
			const pane = document.querySelector('#main');
			if (pane) pane.scrollTop = pane.scrollHeight;
		}`)
	})
	if err != nil {
		c.log.Debug("scroll failed", zap.Error(err))
	}
}

// CaptureDiagnostic saves a PNG of the current page state for postmortems.
func (c *Client) CaptureDiagnostic(tag string) {
	data, err := c.page.Screenshot(false, nil)
	if err != nil {
		c.log.Warn("screenshot failed", zap.String("tag", tag), zap.Error(err))
		return
	}
	name := fmt.Sprintf("erro_%s_%s.png", sanitize(tag), uuid.NewString()[:8])
	path := filepath.Join(c.screenshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.log.Warn("writing screenshot failed", zap.String("path", path), zap.Error(err))
		return
	}
	c.log.Info("diagnostic screenshot saved", zap.String("path", path))
}

func contactSelector(name string) string {
	return fmt.Sprintf(`span[title=%q]`, name)
}

// stripNonBMP removes characters outside the Basic Multilingual Plane, which
// ChromeDriver-style input cannot type.
func stripNonBMP(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= 0xFFFF {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sanitize(tag string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, tag)
}

func humanPause(min, max time.Duration) {
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}
