// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

// expectHandler consumes exactly the number of bytes it was armed for,
// schedules the next step by calling arm or expectWithHeader itself, and
// returns an error that terminates the session, or nil. It must not block;
// any heavy lifting belongs to an observer.
type expectHandler func(data []byte) error

// expectDispatcher drives a pull-model state machine: at any moment it is
// either idle (no session started) or holds a single pending (needed,
// handler) pair. This is the explicit-state replacement for the
// callback-chained `expect`/`expectWithHeader` coroutine style: instead of
// each handler building and returning a new closure, handlers are ordinary
// methods on the state machine and the dispatcher just remembers how many
// bytes the next one needs.
type expectDispatcher struct {
	buf     streamBuffer
	needed  int
	handler expectHandler
	armed   bool
}

// arm schedules the next handler to run once n bytes have arrived.
func (d *expectDispatcher) arm(n int, h expectHandler) {
	d.needed = n
	d.handler = h
	d.armed = true
}

// validHeaderWidths enumerates the only valid header widths for
// expectWithHeader; rejecting any other width at construction time (rather
// than silently misreading the stream) is a direct requirement.
var validHeaderWidths = map[int]bool{1: true, 2: true, 4: true}

// expectWithHeader arms a two-tier read: first consume `headerWidth` bytes
// as a big-endian unsigned length L, then arm body for exactly L bytes.
// headerWidth must be 1, 2, or 4; any other value is a programming error
// and is rejected immediately rather than deferred to the next byte.
func (d *expectDispatcher) expectWithHeader(headerWidth int, body expectHandler) error {
	if !validHeaderWidths[headerWidth] {
		return invalidTypeError("expectDispatcher.expectWithHeader",
			"header width must be 1, 2, or 4 bytes", nil)
	}

	d.arm(headerWidth, func(header []byte) error {
		var length uint64
		for _, b := range header {
			length = length<<8 | uint64(b)
		}
		d.arm(int(length), body)
		return nil
	})
	return nil
}

// feed appends newly arrived transport bytes and runs every handler whose
// expectation is now satisfied, in order, until either no handler is armed
// or not enough bytes remain for the pending one.
func (d *expectDispatcher) feed(p []byte) error {
	d.buf.feed(p)
	for d.armed && d.buf.available() >= d.needed {
		data, err := d.buf.take(d.needed)
		if err != nil {
			return err
		}
		d.armed = false
		h := d.handler
		d.handler = nil
		if err := h(data); err != nil {
			return err
		}
	}
	return nil
}
