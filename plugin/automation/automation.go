// Package automation drives a browser-hosted input surface over the Chrome
// DevTools Protocol. Pointer actions move the cursor, key actions press a
// single key by code.
package automation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrelay/relay"
)

// Controller implements relay.DeviceAutomation against a remote browser.
// The CDP connection is established on first use so that a relay without any
// automation traffic never needs a running browser.
type Controller struct {
	controlURL string

	mu   sync.Mutex
	page *rod.Page
}

// NewController creates a controller for the given DevTools websocket URL
// (for example ws://127.0.0.1:9222). No connection is made yet.
func NewController(controlURL string) *Controller {
	return &Controller{controlURL: controlURL}
}

// Perform executes one device action. Malformed actions fail without
// touching the device.
func (c *Controller) Perform(ctx context.Context, kind relay.ActionKind, action string) error {
	switch kind {
	case relay.ActionPointer:
		x, y, err := parsePointerAction(action)
		if err != nil {
			return err
		}
		return c.movePointer(ctx, x, y)
	case relay.ActionKey:
		key, err := parseKeyAction(action)
		if err != nil {
			return err
		}
		return c.pressKey(ctx, key)
	default:
		return errors.Errorf("unsupported action kind: %s", kind)
	}
}

func (c *Controller) movePointer(ctx context.Context, x, y float64) error {
	page, err := c.target(ctx)
	if err != nil {
		return err
	}
	if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return errors.Wrap(err, "move pointer")
	}
	slog.Info("pointer_moved", "x", x, "y", y)
	return nil
}

func (c *Controller) pressKey(ctx context.Context, key input.Key) error {
	page, err := c.target(ctx)
	if err != nil {
		return err
	}
	if err := page.Keyboard.Press(key); err != nil {
		return errors.Wrap(err, "press key")
	}
	slog.Info("key_pressed", "key", rune(key))
	return nil
}

// target returns the page the controller acts on, connecting on first use.
func (c *Controller) target(ctx context.Context) (*rod.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page != nil {
		return c.page.Context(ctx), nil
	}

	browser := rod.New().ControlURL(c.controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, errors.Wrap(err, "connect to browser")
	}
	pages, err := browser.Pages()
	if err != nil {
		return nil, errors.Wrap(err, "list browser pages")
	}
	var page *rod.Page
	if len(pages) > 0 {
		page = pages.First()
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, errors.Wrap(err, "create browser page")
		}
	}
	c.page = page
	slog.Info("automation_connected", "control_url", c.controlURL)
	return c.page.Context(ctx), nil
}

// parsePointerAction reads "x,y" integer coordinates.
func parsePointerAction(action string) (x, y float64, err error) {
	parts := strings.SplitN(action, ",", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("pointer action must be x,y: %q", action)
	}
	xi, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "pointer action x: %q", action)
	}
	yi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "pointer action y: %q", action)
	}
	if xi < 0 || yi < 0 {
		return 0, 0, errors.Errorf("pointer action out of range: %q", action)
	}
	return float64(xi), float64(yi), nil
}

// parseKeyAction reads a single key. A one-rune action is the key itself;
// anything longer must be a numeric key code.
func parseKeyAction(action string) (input.Key, error) {
	runes := []rune(action)
	if len(runes) == 0 {
		return 0, errors.New("key action is empty")
	}
	if len(runes) == 1 {
		return input.Key(runes[0]), nil
	}
	code, err := strconv.Atoi(action)
	if err != nil {
		return 0, errors.Wrapf(err, "key action: %q", action)
	}
	return input.Key(rune(code)), nil
}
