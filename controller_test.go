// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import "testing"

type fakeObserver struct {
	ObserverBase
	updates []fakeUpdate
}

type fakeUpdate struct {
	width, height, x, y uint16
	encoding            int32
	dataLen             int
}

func (o *fakeObserver) OnUpdate(width, height, x, y uint16, pf PixelFormat, encoding int32, data []byte) {
	o.updates = append(o.updates, fakeUpdate{width, height, x, y, encoding, len(data)})
}

type bareObserver struct {
	updates int
}

func (o *bareObserver) OnUpdate(width, height, x, y uint16, pf PixelFormat, encoding int32, data []byte) {
	o.updates++
}

func TestObserverBase_MethodsFailBeforeAttachment(t *testing.T) {
	o := &fakeObserver{}

	if err := o.KeyEvent(true, 0x41); !IsVNCError(err, CodeUnregisteredObject) {
		t.Fatalf("KeyEvent before attachment: expected CodeUnregisteredObject, got %v", err)
	}
	if err := o.PointerEvent(Button1Mask, 1, 1); !IsVNCError(err, CodeUnregisteredObject) {
		t.Fatalf("PointerEvent before attachment: expected CodeUnregisteredObject, got %v", err)
	}
}

func TestController_AddObserverAttachesObserverBase(t *testing.T) {
	transport := &recordingTransport{}
	session := NewSession(transport, nil)
	controller := session.Controller()

	o := &fakeObserver{}
	controller.AddObserver(o)

	if err := o.KeyEvent(true, 0x41); err != nil {
		t.Fatalf("KeyEvent after attachment should succeed, got %v", err)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected 1 message sent, got %d", len(transport.sent))
	}
}

func TestController_AddObserverWithoutObserverBaseDoesNotPanic(t *testing.T) {
	transport := &recordingTransport{}
	session := NewSession(transport, nil)
	controller := session.Controller()

	// bareObserver does not embed ObserverBase; AddObserver must not panic.
	controller.AddObserver(&bareObserver{})
}

func TestController_DeliverRectangleFansOutInRegistrationOrder(t *testing.T) {
	transport := &recordingTransport{}
	session := NewSession(transport, nil)
	controller := session.Controller()

	var order []int
	first := &orderObserver{id: 1, order: &order}
	second := &orderObserver{id: 2, order: &order}
	controller.AddObserver(first)
	controller.AddObserver(second)

	header := rectangleHeader{X: 0, Y: 0, Width: 1, Height: 1, Encoding: EncodingRaw}
	controller.deliverRectangle(header, DefaultClientPixelFormat, []byte{1, 2, 3, 4})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("delivery order = %v, want [1 2]", order)
	}
}

type capturingObserver struct {
	ObserverBase
	captured []byte
}

func (o *capturingObserver) OnUpdate(width, height, x, y uint16, pf PixelFormat, encoding int32, data []byte) {
	o.captured = data
}

func TestController_DeliverRectangleCopiesBodyPerObserver(t *testing.T) {
	transport := &recordingTransport{}
	session := NewSession(transport, nil)
	controller := session.Controller()

	first := &capturingObserver{}
	second := &capturingObserver{}
	controller.AddObserver(first)
	controller.AddObserver(second)

	body := []byte{1, 2, 3, 4}
	header := rectangleHeader{X: 0, Y: 0, Width: 1, Height: 1, Encoding: EncodingRaw}
	controller.deliverRectangle(header, DefaultClientPixelFormat, body)

	// Mutating the source slice after delivery must not affect bytes
	// already handed to an observer.
	for i := range body {
		body[i] = 0xFF
	}

	if !bytesEqual(first.captured, []byte{1, 2, 3, 4}) {
		t.Fatalf("first observer captured = %v, want [1 2 3 4]", first.captured)
	}
	if !bytesEqual(second.captured, []byte{1, 2, 3, 4}) {
		t.Fatalf("second observer captured = %v, want [1 2 3 4]", second.captured)
	}
	if &first.captured[0] == &second.captured[0] {
		t.Fatalf("observers must not share the same backing array")
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type orderObserver struct {
	ObserverBase
	id    int
	order *[]int
}

func (o *orderObserver) OnUpdate(width, height, x, y uint16, pf PixelFormat, encoding int32, data []byte) {
	*o.order = append(*o.order, o.id)
}

func TestController_SendKeyEvent_InvalidKeysymIsSwallowed(t *testing.T) {
	transport := &recordingTransport{}
	session := NewSession(transport, nil)
	controller := session.Controller()

	controller.SendKeyEvent(true, 0x3000000) // exceeds ValidateKeySymbol's max
	if len(transport.sent) != 0 {
		t.Fatalf("expected no message sent for invalid keysym, got %d", len(transport.sent))
	}
}

func TestController_SendKeyEvent_TransportFailureIsSwallowed(t *testing.T) {
	transport := &recordingTransport{fail: true}
	session := NewSession(transport, nil)
	controller := session.Controller()

	// Must not panic or propagate the transport error.
	controller.SendKeyEvent(true, 0x41)
	controller.SendPointerEvent(Button1Mask, 0, 0)
	controller.SendCutText("hello")
}

func TestController_SendPointerEvent(t *testing.T) {
	transport := &recordingTransport{}
	session := NewSession(transport, nil)
	controller := session.Controller()

	controller.SendPointerEvent(Button1Mask, 100, 200)
	if len(transport.sent) != 1 {
		t.Fatalf("expected 1 message sent, got %d", len(transport.sent))
	}
	if transport.sent[0][0] != msgTypePointerEvent {
		t.Errorf("tag = %d, want %d", transport.sent[0][0], msgTypePointerEvent)
	}
}

func TestController_SendCutText(t *testing.T) {
	transport := &recordingTransport{}
	session := NewSession(transport, nil)
	controller := session.Controller()

	controller.SendCutText("hello")
	if len(transport.sent) != 1 {
		t.Fatalf("expected 1 message sent, got %d", len(transport.sent))
	}
	if transport.sent[0][0] != msgTypeClientCutText {
		t.Errorf("tag = %d, want %d", transport.sent[0][0], msgTypeClientCutText)
	}
}
