// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// serverInit is the fixed-prefix portion of the ServerInit message: 20
// bytes (width, height, 16-byte PixelFormat). The variable-length server
// name follows as its own length-prefixed read.
type serverInit struct {
	Width       uint16
	Height      uint16
	PixelFormat PixelFormat
}

// readServerInit decodes the 20-byte fixed prefix of ServerInit.
func readServerInit(data []byte) (serverInit, error) {
	if len(data) != 20 {
		return serverInit{}, invalidSizeError("readServerInit",
			fmt.Sprintf("expected 20 bytes, got %d", len(data)), nil)
	}

	var si serverInit
	si.Width = binary.BigEndian.Uint16(data[0:2])
	si.Height = binary.BigEndian.Uint16(data[2:4])
	if err := readPixelFormat(bytes.NewReader(data[4:20]), &si.PixelFormat); err != nil {
		return serverInit{}, err
	}
	return si, nil
}

// rectangleHeader is the fixed 12-byte header preceding every rectangle body.
type rectangleHeader struct {
	X        uint16
	Y        uint16
	Width    uint16
	Height   uint16
	Encoding int32
}

const rectangleHeaderSize = 12

// readRectangleHeader decodes a 12-byte rectangle header.
func readRectangleHeader(data []byte) (rectangleHeader, error) {
	if len(data) != rectangleHeaderSize {
		return rectangleHeader{}, invalidSizeError("readRectangleHeader",
			fmt.Sprintf("expected %d bytes, got %d", rectangleHeaderSize, len(data)), nil)
	}

	return rectangleHeader{
		X:        binary.BigEndian.Uint16(data[0:2]),
		Y:        binary.BigEndian.Uint16(data[2:4]),
		Width:    binary.BigEndian.Uint16(data[4:6]),
		Height:   binary.BigEndian.Uint16(data[6:8]),
		Encoding: int32(binary.BigEndian.Uint32(data[8:12])), // #nosec G115 - wire value reinterpreted, not range-checked
	}, nil
}

// rawRectangleBodySize returns the number of bytes a Raw-encoded rectangle
// body occupies under the given pixel format: width * height * bytesPerPixel.
func rawRectangleBodySize(width, height uint16, pf *PixelFormat) int {
	return int(width) * int(height) * pf.BytesPerPixel()
}

// writeSetPixelFormat builds the SetPixelFormat client message: message
// type, 3 padding bytes, then the 16-byte PixelFormat.
func writeSetPixelFormat(pf *PixelFormat) ([]byte, error) {
	pfBytes, err := writePixelFormat(pf)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 4+pixelFormatWireSize)
	buf = append(buf, msgTypeSetPixelFormat, 0, 0, 0)
	buf = append(buf, pfBytes...)
	return buf, nil
}

// writeSetEncodings builds the SetEncodings client message for the given
// ordered list of encoding type identifiers.
func writeSetEncodings(encodings []int32) []byte {
	buf := make([]byte, 0, 4+4*len(encodings))
	buf = append(buf, msgTypeSetEncodings, 0)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(encodings))) // #nosec G115 - encodings list is caller-bounded
	for _, enc := range encodings {
		buf = binary.BigEndian.AppendUint32(buf, uint32(enc)) // #nosec G115 - reinterpret signed as wire bits
	}
	return buf
}

// framebufferUpdateRequest is the client->server request for (new) pixel data.
type framebufferUpdateRequest struct {
	Incremental bool
	X, Y        uint16
	Width       uint16
	Height      uint16
}

// writeFramebufferUpdateRequest builds the 10-byte FramebufferUpdateRequest
// client message (1-byte tag + 9-byte body).
func writeFramebufferUpdateRequest(req framebufferUpdateRequest) []byte {
	buf := make([]byte, 10)
	buf[0] = msgTypeFramebufferUpdateRequest
	if req.Incremental {
		buf[1] = 1
	}
	binary.BigEndian.PutUint16(buf[2:4], req.X)
	binary.BigEndian.PutUint16(buf[4:6], req.Y)
	binary.BigEndian.PutUint16(buf[6:8], req.Width)
	binary.BigEndian.PutUint16(buf[8:10], req.Height)
	return buf
}

// writeKeyEvent builds the 8-byte KeyEvent client message (1-byte tag +
// downFlag + 2 padding bytes + 4-byte keysym).
func writeKeyEvent(down bool, key uint32) []byte {
	buf := make([]byte, 8)
	buf[0] = msgTypeKeyEvent
	if down {
		buf[1] = 1
	}
	// buf[2:4] is padding.
	binary.BigEndian.PutUint32(buf[4:8], key)
	return buf
}

// writePointerEvent builds the 6-byte PointerEvent client message (1-byte
// tag + 5-byte body).
func writePointerEvent(buttonMask uint8, x, y uint16) []byte {
	buf := make([]byte, 6)
	buf[0] = msgTypePointerEvent
	buf[1] = buttonMask
	binary.BigEndian.PutUint16(buf[2:4], x)
	binary.BigEndian.PutUint16(buf[4:6], y)
	return buf
}

// writeClientCutText builds the ClientCutText client message: 1-byte tag,
// 3 padding bytes, 4-byte length, then the Latin-1 encoded payload.
func writeClientCutText(text string) ([]byte, error) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		return nil, invalidValueError("writeClientCutText",
			"text is not representable in Latin-1", err)
	}

	buf := make([]byte, 0, 8+len(encoded))
	buf = append(buf, msgTypeClientCutText, 0, 0, 0)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(encoded))) // #nosec G115 - clipboard text bounded well under 4G
	buf = append(buf, encoded...)
	return buf, nil
}
