// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import "sync"

// Observer receives framebuffer update rectangles from a Controller. data
// is the raw rectangle body; interpreting it (indexing into pixel_format,
// applying encoding-specific decompression) is the observer's job — this
// core only ever delivers Raw-encoded bytes.
type Observer interface {
	OnUpdate(width, height, x, y uint16, pf PixelFormat, encoding int32, data []byte)
}

// ObserverBase is embedded by concrete Observer implementations to get
// KeyEvent/PointerEvent forwarding for free. Calling either before the
// observer has been registered with a Controller (via AddObserver) fails
// with UnregisteredObject instead of panicking on a nil controller.
type ObserverBase struct {
	controller *Controller
}

func (o *ObserverBase) attach(c *Controller) {
	o.controller = c
}

// KeyEvent forwards a key press/release to the attached controller.
func (o *ObserverBase) KeyEvent(down bool, key uint32) error {
	if o.controller == nil {
		return unregisteredObjectError("ObserverBase.KeyEvent", "observer not attached to a controller", nil)
	}
	o.controller.SendKeyEvent(down, key)
	return nil
}

// PointerEvent forwards a pointer movement/button state to the attached controller.
func (o *ObserverBase) PointerEvent(buttonMask uint8, x, y uint16) error {
	if o.controller == nil {
		return unregisteredObjectError("ObserverBase.PointerEvent", "observer not attached to a controller", nil)
	}
	o.controller.SendPointerEvent(buttonMask, x, y)
	return nil
}

// attachable is implemented by ObserverBase; Controller uses it to wire up
// the observer's back-reference without widening the public Observer
// interface with a method every implementation would otherwise have to
// write by hand.
type attachable interface {
	attach(*Controller)
}

// Controller is the only component user code interacts with directly. It
// fans framebuffer updates out to registered observers in registration
// order, and turns observer/user input calls into wire messages handed to
// the session's transport.
type Controller struct {
	session   *Session
	logger    Logger
	validator *InputValidator

	mu        sync.Mutex
	observers []Observer
}

func newController(session *Session, logger Logger) *Controller {
	return &Controller{
		session:   session,
		logger:    logger,
		validator: newInputValidator(),
	}
}

// AddObserver registers o and attaches its back-reference to this
// controller, if it embeds ObserverBase. Observers are fanned out to in
// registration order.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := o.(attachable); ok {
		a.attach(c)
	}
	c.observers = append(c.observers, o)
}

// deliverRectangle fans a decoded rectangle out to every registered
// observer, in registration order. Each observer gets its own copy of the
// body, so an observer that keeps or modifies it (for example while
// decoding pixels on another goroutine) never affects what the caller or
// any other observer holds.
func (c *Controller) deliverRectangle(header rectangleHeader, pf PixelFormat, data []byte) {
	c.mu.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		body := append([]byte(nil), data...)
		o.OnUpdate(header.Width, header.Height, header.X, header.Y, pf, header.Encoding, body)
	}
}

// SendKeyEvent builds and sends a KeyEvent message. Build or transport
// failures are logged and swallowed: a bad local input must never kill the
// session.
func (c *Controller) SendKeyEvent(down bool, key uint32) {
	if err := c.validator.ValidateKeySymbol(key); err != nil {
		c.logger.Warn("dropping invalid key event", Field{Key: "error", Value: err})
		return
	}

	if err := c.session.send(writeKeyEvent(down, key)); err != nil {
		c.logger.Warn("key event send failed", Field{Key: "error", Value: err})
	}
}

// SendPointerEvent builds and sends a PointerEvent message. Failures are
// logged and swallowed, per the same non-fatal policy as SendKeyEvent. The
// position is checked against the negotiated framebuffer bounds once those
// are known (they default to 0x0 before ServerInit, which would otherwise
// reject every position, so the check is skipped until then).
func (c *Controller) SendPointerEvent(buttonMask uint8, x, y uint16) {
	if fbWidth, fbHeight := c.session.FramebufferSize(); fbWidth > 0 && fbHeight > 0 {
		if err := c.validator.ValidatePointerPosition(x, y, fbWidth, fbHeight); err != nil {
			c.logger.Warn("dropping out-of-bounds pointer event", Field{Key: "error", Value: err})
			return
		}
	}

	if err := c.session.send(writePointerEvent(buttonMask, x, y)); err != nil {
		c.logger.Warn("pointer event send failed", Field{Key: "error", Value: err})
	}
}

// maxCutTextLength bounds a single ClientCutText payload this controller
// will send, well above any real clipboard contents.
const maxCutTextLength = 1 << 20

// SendCutText builds and sends a ClientCutText message. Optional per the
// external interface contract; failures are logged and swallowed.
func (c *Controller) SendCutText(text string) {
	if err := c.validator.ValidateTextData(text, maxCutTextLength); err != nil {
		c.logger.Warn("dropping invalid cut text", Field{Key: "error", Value: err})
		return
	}

	sanitized := c.validator.SanitizeText(text)
	if len(sanitized) > 0 {
		if err := c.validator.ValidateMessageLength(uint32(len(sanitized)), maxCutTextLength); err != nil {
			c.logger.Warn("dropping oversized cut text", Field{Key: "error", Value: err})
			return
		}
	}

	msg, err := writeClientCutText(sanitized)
	if err != nil {
		c.logger.Warn("dropping unencodable cut text", Field{Key: "error", Value: err})
		return
	}
	if err := c.session.send(msg); err != nil {
		c.logger.Warn("cut text send failed", Field{Key: "error", Value: err})
	}
}
