// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestReadServerInit(t *testing.T) {
	data := make([]byte, 20)
	data[0], data[1] = 0x07, 0x80 // width 1920
	data[2], data[3] = 0x04, 0x38 // height 1080
	pfBytes, err := writePixelFormat(PixelFormat32BitRGBA)
	if err != nil {
		t.Fatalf("writePixelFormat() error = %v", err)
	}
	copy(data[4:20], pfBytes)

	si, err := readServerInit(data)
	if err != nil {
		t.Fatalf("readServerInit() error = %v", err)
	}
	if si.Width != 1920 || si.Height != 1080 {
		t.Fatalf("got %dx%d, want 1920x1080", si.Width, si.Height)
	}
	if si.PixelFormat.BPP != 32 || si.PixelFormat.Depth != 24 {
		t.Fatalf("unexpected pixel format: %+v", si.PixelFormat)
	}
}

func TestReadServerInit_WrongSize(t *testing.T) {
	_, err := readServerInit(make([]byte, 19))
	if err == nil {
		t.Fatal("readServerInit should reject a non-20-byte buffer")
	}
	if !IsVNCError(err, CodeInvalidSize) {
		t.Errorf("expected CodeInvalidSize, got %v", err)
	}
}

func TestReadRectangleHeader_RoundTrip(t *testing.T) {
	data := []byte{
		0x00, 0x10, // X = 16
		0x00, 0x20, // Y = 32
		0x00, 0x64, // Width = 100
		0x00, 0xC8, // Height = 200
		0x00, 0x00, 0x00, 0x00, // Encoding = 0 (Raw)
	}

	header, err := readRectangleHeader(data)
	if err != nil {
		t.Fatalf("readRectangleHeader() error = %v", err)
	}
	want := rectangleHeader{X: 16, Y: 32, Width: 100, Height: 200, Encoding: EncodingRaw}
	if header != want {
		t.Fatalf("got %+v, want %+v", header, want)
	}
}

func TestReadRectangleHeader_WrongSize(t *testing.T) {
	_, err := readRectangleHeader(make([]byte, rectangleHeaderSize-1))
	if !IsVNCError(err, CodeInvalidSize) {
		t.Errorf("expected CodeInvalidSize, got %v", err)
	}
}

func TestRawRectangleBodySize(t *testing.T) {
	pf := &PixelFormat{BPP: 32}
	if got := rawRectangleBodySize(10, 20, pf); got != 10*20*4 {
		t.Errorf("rawRectangleBodySize() = %d, want %d", got, 10*20*4)
	}

	pf16 := &PixelFormat{BPP: 16}
	if got := rawRectangleBodySize(10, 20, pf16); got != 10*20*2 {
		t.Errorf("rawRectangleBodySize() = %d, want %d", got, 10*20*2)
	}
}

func TestWriteSetPixelFormat(t *testing.T) {
	msg, err := writeSetPixelFormat(PixelFormat32BitRGBA)
	if err != nil {
		t.Fatalf("writeSetPixelFormat() error = %v", err)
	}
	if len(msg) != 4+pixelFormatWireSize {
		t.Fatalf("message length = %d, want %d", len(msg), 4+pixelFormatWireSize)
	}
	if msg[0] != msgTypeSetPixelFormat {
		t.Errorf("tag = %d, want %d", msg[0], msgTypeSetPixelFormat)
	}
	if !bytes.Equal(msg[1:4], []byte{0, 0, 0}) {
		t.Errorf("padding = %v, want [0 0 0]", msg[1:4])
	}
}

func TestWriteSetEncodings(t *testing.T) {
	msg := writeSetEncodings([]int32{EncodingRaw, -239})
	if msg[0] != msgTypeSetEncodings {
		t.Errorf("tag = %d, want %d", msg[0], msgTypeSetEncodings)
	}
	if len(msg) != 4+4*2 {
		t.Fatalf("message length = %d, want %d", len(msg), 4+4*2)
	}
}

func TestWriteFramebufferUpdateRequest(t *testing.T) {
	msg := writeFramebufferUpdateRequest(framebufferUpdateRequest{
		Incremental: true, X: 1, Y: 2, Width: 3, Height: 4,
	})
	if len(msg) != 10 {
		t.Fatalf("message length = %d, want 10", len(msg))
	}
	if msg[0] != msgTypeFramebufferUpdateRequest {
		t.Errorf("tag = %d, want %d", msg[0], msgTypeFramebufferUpdateRequest)
	}
	if msg[1] != 1 {
		t.Errorf("incremental flag = %d, want 1", msg[1])
	}

	nonIncremental := writeFramebufferUpdateRequest(framebufferUpdateRequest{Incremental: false})
	if nonIncremental[1] != 0 {
		t.Errorf("incremental flag = %d, want 0", nonIncremental[1])
	}
}

func TestWriteKeyEvent(t *testing.T) {
	msg := writeKeyEvent(true, 0x0061)
	if len(msg) != 8 {
		t.Fatalf("message length = %d, want 8", len(msg))
	}
	if msg[0] != msgTypeKeyEvent {
		t.Errorf("tag = %d, want %d", msg[0], msgTypeKeyEvent)
	}
	if msg[1] != 1 {
		t.Errorf("down flag = %d, want 1", msg[1])
	}
	if !bytes.Equal(msg[4:8], []byte{0x00, 0x00, 0x00, 0x61}) {
		t.Errorf("keysym bytes = %v, want [0 0 0 0x61]", msg[4:8])
	}
}

func TestWritePointerEvent(t *testing.T) {
	msg := writePointerEvent(Button1Mask, 100, 200)
	if len(msg) != 6 {
		t.Fatalf("message length = %d, want 6", len(msg))
	}
	if msg[0] != msgTypePointerEvent {
		t.Errorf("tag = %d, want %d", msg[0], msgTypePointerEvent)
	}
	if msg[1] != Button1Mask {
		t.Errorf("button mask = %d, want %d", msg[1], Button1Mask)
	}
}

func TestWriteClientCutText(t *testing.T) {
	msg, err := writeClientCutText("hello")
	if err != nil {
		t.Fatalf("writeClientCutText() error = %v", err)
	}
	if msg[0] != msgTypeClientCutText {
		t.Errorf("tag = %d, want %d", msg[0], msgTypeClientCutText)
	}
	if !bytes.Equal(msg[1:4], []byte{0, 0, 0}) {
		t.Errorf("padding = %v, want [0 0 0]", msg[1:4])
	}

	length := binary.BigEndian.Uint32(msg[4:8])
	if length != uint32(len("hello")) {
		t.Errorf("length = %d, want %d", length, len("hello"))
	}
	if !bytes.Equal(msg[8:], []byte("hello")) {
		t.Errorf("payload = %q, want %q", msg[8:], "hello")
	}
}

func TestWriteClientCutText_Latin1Accented(t *testing.T) {
	// 0xE9 is 'é' in Latin-1.
	msg, err := writeClientCutText("céd")
	if err != nil {
		t.Fatalf("writeClientCutText() error = %v", err)
	}
	want := []byte{'c', 0xE9, 'd'}
	if !bytes.Equal(msg[8:], want) {
		t.Errorf("payload = %v, want %v", msg[8:], want)
	}
}
