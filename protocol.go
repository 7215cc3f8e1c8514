// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

// Protocol version banners this core recognizes. Any other 12-byte banner
// is treated as unknown and the session downgrades to 3.8.
const (
	protoVersion33 = "RFB 003.003\n"
	protoVersion37 = "RFB 003.007\n"
	protoVersion38 = "RFB 003.008\n"
)

// Security types (RFB handshake, server-offered and client-selected).
const (
	SecurityTypeInvalid uint8 = 0
	SecurityTypeNone    uint8 = 1
	SecurityTypeVNC     uint8 = 2
)

// securityResult values on the 4-byte SecurityResult message.
const (
	securityResultOK     uint32 = 0
	securityResultFailed uint32 = 1
)

// Client-to-server message type tags.
const (
	msgTypeSetPixelFormat           uint8 = 0
	msgTypeSetEncodings             uint8 = 2
	msgTypeFramebufferUpdateRequest uint8 = 3
	msgTypeKeyEvent                 uint8 = 4
	msgTypePointerEvent             uint8 = 5
	msgTypeClientCutText            uint8 = 6
)

// Server-to-client message type tags. Only FramebufferUpdate (0) is
// implemented; any other value received as a server order is a fatal
// InvalidExpectedData per the state machine's contract.
const (
	msgTypeFramebufferUpdate uint8 = 0
)

// EncodingRaw is the only encoding type this core negotiates and decodes.
const EncodingRaw int32 = 0

// Button mask bits for PointerEvent, per the logical button → mask mapping:
// button 1 maps to bit 0, button n>1 maps to bit (n-1).
const (
	Button1Mask uint8 = 0x01
	Button2Mask uint8 = 0x02
	Button3Mask uint8 = 0x04
)

// ButtonMask converts a 1-based logical button number to its RFB bitmask.
// Button 0 maps to mask 0 (no button).
func ButtonMask(button int) uint8 {
	if button <= 0 {
		return 0
	}
	if button == 1 {
		return 0x01
	}
	return 1 << uint(button-1)
}
