// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import (
	"bytes"
	"testing"
)

func TestStreamBuffer_FeedAndAvailable(t *testing.T) {
	var b streamBuffer
	if b.available() != 0 {
		t.Fatalf("available() = %d, want 0", b.available())
	}

	b.feed([]byte{1, 2, 3})
	if b.available() != 3 {
		t.Fatalf("available() = %d, want 3", b.available())
	}

	b.feed([]byte{4, 5})
	if b.available() != 5 {
		t.Fatalf("available() = %d, want 5", b.available())
	}
}

func TestStreamBuffer_TakeConsumesInOrder(t *testing.T) {
	var b streamBuffer
	b.feed([]byte{1, 2, 3, 4, 5})

	first, err := b.take(2)
	if err != nil {
		t.Fatalf("take(2) error = %v", err)
	}
	if !bytes.Equal(first, []byte{1, 2}) {
		t.Fatalf("take(2) = %v, want [1 2]", first)
	}

	second, err := b.take(3)
	if err != nil {
		t.Fatalf("take(3) error = %v", err)
	}
	if !bytes.Equal(second, []byte{3, 4, 5}) {
		t.Fatalf("take(3) = %v, want [3 4 5]", second)
	}

	if b.available() != 0 {
		t.Fatalf("available() = %d, want 0", b.available())
	}
}

func TestStreamBuffer_TakeUnderrun(t *testing.T) {
	var b streamBuffer
	b.feed([]byte{1, 2})

	_, err := b.take(3)
	if err == nil {
		t.Fatal("take(3) should fail when only 2 bytes are available")
	}
	if !IsVNCError(err, CodeInvalidSize) {
		t.Errorf("expected CodeInvalidSize, got %v", err)
	}
}

func TestStreamBuffer_PeekDoesNotAdvance(t *testing.T) {
	var b streamBuffer
	b.feed([]byte{9, 8, 7})

	peeked := b.peek(2)
	if !bytes.Equal(peeked, []byte{9, 8}) {
		t.Fatalf("peek(2) = %v, want [9 8]", peeked)
	}
	if b.available() != 3 {
		t.Fatalf("available() after peek = %d, want 3", b.available())
	}
}

func TestStreamBuffer_CompactsAfterLargeConsumedPrefix(t *testing.T) {
	var b streamBuffer
	payload := make([]byte, 10000)
	for i := range payload {
		payload[i] = byte(i)
	}
	b.feed(payload)

	if _, err := b.take(9000); err != nil {
		t.Fatalf("take(9000) error = %v", err)
	}
	if b.available() != 1000 {
		t.Fatalf("available() = %d, want 1000", b.available())
	}

	rest, err := b.take(1000)
	if err != nil {
		t.Fatalf("take(1000) error = %v", err)
	}
	if !bytes.Equal(rest, payload[9000:]) {
		t.Fatal("remaining bytes after compaction do not match original payload tail")
	}
}

func TestStreamBuffer_TakeResultSurvivesCompactionOfTrailingBytes(t *testing.T) {
	// Regression: a take() large enough to push pos past the compaction
	// threshold, with trailing queued bytes still behind it (e.g. a big
	// rectangle body immediately followed by the next rectangle header in
	// one feed), must not let advance()'s in-place compaction overwrite the
	// bytes already handed back to the caller.
	var b streamBuffer
	body := make([]byte, 5000)
	for i := range body {
		body[i] = byte(i)
	}
	header := []byte{
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66,
	}
	b.feed(append(append([]byte(nil), body...), header...))

	got, err := b.take(len(body))
	if err != nil {
		t.Fatalf("take(%d) error = %v", len(body), err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("take() result corrupted by subsequent compaction")
	}

	rest, err := b.take(len(header))
	if err != nil {
		t.Fatalf("take(%d) error = %v", len(header), err)
	}
	if !bytes.Equal(rest, header) {
		t.Fatalf("take() = %v, want %v", rest, header)
	}
	// got must still read back correctly after the second take. The
	// compaction itself ran inside the first take's advance() (pos 5000 of
	// 5012 bytes); the second take drains the buffer and resets it.
	if !bytes.Equal(got, body) {
		t.Fatalf("take() result retroactively corrupted by compaction, got[:8] = %v", got[:8])
	}
}

func TestStreamBuffer_FeedAfterFullyDrainedResetsToEmpty(t *testing.T) {
	var b streamBuffer
	b.feed([]byte{1, 2, 3})
	if _, err := b.take(3); err != nil {
		t.Fatalf("take(3) error = %v", err)
	}

	b.feed([]byte{4, 5})
	got, err := b.take(2)
	if err != nil {
		t.Fatalf("take(2) error = %v", err)
	}
	if !bytes.Equal(got, []byte{4, 5}) {
		t.Fatalf("take(2) = %v, want [4 5]", got)
	}
}
