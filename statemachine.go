// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// sessionState names the node the state machine currently occupies. It is
// kept alongside the expect dispatcher's armed (needed, handler) pair
// purely for introspection and testing — the dispatcher is what actually
// drives transitions; this is the explicit tag a caller or test can read.
type sessionState int

const (
	stateInit sessionState = iota
	stateAwaitProtoVersion
	stateAwaitSecurityImposed
	stateAwaitSecurityList
	stateAwaitSecurityResult
	stateAwaitSecurityFailReason
	stateAwaitServerInit
	stateAwaitServerName
	stateAwaitServerOrder
	stateAwaitUpdateHeader
	stateAwaitRectHeader
	stateAwaitRectBody
	stateTerminal
)

func (s sessionState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateAwaitProtoVersion:
		return "AwaitProtoVersion"
	case stateAwaitSecurityImposed:
		return "AwaitSecurityImposed"
	case stateAwaitSecurityList:
		return "AwaitSecurityList"
	case stateAwaitSecurityResult:
		return "AwaitSecurityResult"
	case stateAwaitSecurityFailReason:
		return "AwaitSecurityFailReason"
	case stateAwaitServerInit:
		return "AwaitServerInit"
	case stateAwaitServerName:
		return "AwaitServerName"
	case stateAwaitServerOrder:
		return "AwaitServerOrder"
	case stateAwaitUpdateHeader:
		return "AwaitUpdateHeader"
	case stateAwaitRectHeader:
		return "AwaitRectHeader"
	case stateAwaitRectBody:
		return "AwaitRectBody"
	case stateTerminal:
		return "Terminal"
	default:
		return "Unknown"
	}
}

// transportSender is the single outbound primitive the state machine needs
// from whatever owns the socket: a fire-and-forget byte write.
type transportSender interface {
	Send(p []byte) error
}

// Session owns all RFB client-role protocol state for one connection. It is
// driven entirely by the transport's on_connect/on_bytes/on_disconnect
// callbacks (OnConnect/OnBytes/OnDisconnect below); it never performs
// synchronous I/O itself.
type Session struct {
	config     *Config
	dispatcher expectDispatcher
	controller *Controller
	validator  *InputValidator
	logger     Logger

	state        sessionState
	version      string
	securityType uint8

	// mu guards the fields the read-only accessors below expose. The state
	// machine itself runs single-threaded/cooperatively per spec (every
	// mutation happens inside a dispatcher handler driven by OnBytes), but
	// the accessors may be called from whatever goroutine owns the
	// observer, so reads and the handler-side writes they race against
	// still need a lock. Mirrors the teacher's client.go mu sync.RWMutex.
	mu                sync.RWMutex
	fbWidth, fbHeight uint16
	serverPixelFormat PixelFormat
	clientPixelFormat PixelFormat
	serverName        string
	remainingRects    int
	currentRectHeader rectangleHeader

	transport    transportSender
	disconnected bool
}

// NewSession constructs a client-role session configured by opts, wired to
// transport for outbound bytes and observer for inbound framebuffer updates.
func NewSession(transport transportSender, observer Observer, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}

	s := &Session{
		config:            cfg,
		validator:         newInputValidator(),
		logger:            logger,
		state:             stateInit,
		clientPixelFormat: cfg.PreferredPixelFormat,
		transport:         transport,
	}
	s.controller = newController(s, logger)
	if observer != nil {
		s.controller.AddObserver(observer)
	}
	return s
}

// Controller returns the session's controller, the only component
// additional observers or input calls should go through once the session
// has been constructed.
func (s *Session) Controller() *Controller {
	return s.controller
}

// State reports the state machine's current node, for tests and diagnostics.
func (s *Session) State() sessionState {
	return s.state
}

// SetTransport binds (or rebinds) the transport the session sends bytes
// through. Useful when the transport adapter itself needs a reference back
// to the session, e.g. NetConnTransport, which cannot exist before the
// session does.
func (s *Session) SetTransport(transport transportSender) {
	s.transport = transport
}

// send writes bytes to the transport, failing DisconnectLayer if the
// session has already been torn down.
func (s *Session) send(p []byte) error {
	if s.disconnected {
		return disconnectLayerError("Session.send", "transport already disconnected", nil)
	}
	return s.transport.Send(p)
}

// OnConnect begins the handshake: arm for the 12-byte protocol version banner.
func (s *Session) OnConnect() error {
	s.state = stateAwaitProtoVersion
	s.dispatcher.arm(12, s.handleProtoVersion)
	return nil
}

// OnBytes feeds newly arrived transport bytes into the dispatcher, running
// every handler whose expectation is now satisfied. A returned error is
// fatal to the session: the caller should disconnect the transport.
func (s *Session) OnBytes(p []byte) error {
	return s.dispatcher.feed(p)
}

// OnDisconnect marks the session unusable; any subsequent send fails with
// DisconnectLayer. Idempotent.
func (s *Session) OnDisconnect() {
	s.disconnected = true
	s.state = stateTerminal
}

func (s *Session) handleProtoVersion(data []byte) error {
	banner := string(data)
	if err := s.validator.ValidateProtocolVersion(banner); err != nil {
		return err
	}

	var echo string
	var is33 bool
	switch banner {
	case protoVersion33:
		echo, is33 = protoVersion33, true
	case protoVersion37:
		echo = protoVersion37
	case protoVersion38:
		echo = protoVersion38
	default:
		// Unknown banner: downgrade to 3.8 and proceed on that branch.
		echo = protoVersion38
	}
	s.version = echo

	s.logger.Debug("negotiated protocol version", Field{Key: "version", Value: echo})

	if err := s.send([]byte(echo)); err != nil {
		return err
	}

	if is33 {
		s.state = stateAwaitSecurityImposed
		s.dispatcher.arm(4, s.handleSecurityImposed)
		return nil
	}

	s.state = stateAwaitSecurityList
	return s.dispatcher.expectWithHeader(1, s.handleSecurityList)
}

// handleSecurityImposed handles the 3.3 server-imposed security path: the
// server dictates the scheme as a 4-byte word rather than offering a list.
// Per the Open Question this resolves, only a NONE imposition is carried
// through to ServerInit; any other value is a negotiation failure since
// this core cannot run the VNC DES handshake.
func (s *Session) handleSecurityImposed(data []byte) error {
	scheme := binary.BigEndian.Uint32(data)
	switch scheme {
	case uint32(SecurityTypeNone):
		s.securityType = SecurityTypeNone
	case 0:
		return negotiationFailureError("handleSecurityImposed", "server refused connection (security type 0)", nil)
	default:
		return negotiationFailureError("handleSecurityImposed",
			fmt.Sprintf("server imposed unsupported security type %d on protocol 3.3", scheme), nil)
	}

	return s.proceedPastSecurity()
}

func (s *Session) handleSecurityList(data []byte) error {
	if err := s.validator.ValidateSecurityTypes(data); err != nil {
		return err
	}

	var preferredOrder []uint8
	if len(s.config.PreferredSecurity) > 0 {
		preferredOrder = s.config.PreferredSecurity
	}

	auth, chosen, err := s.config.AuthRegistry.NegotiateAuth(data, preferredOrder)
	if err != nil {
		return err
	}
	s.securityType = chosen

	s.logger.Debug("selected security type",
		Field{Key: "type", Value: chosen}, Field{Key: "scheme", Value: auth.String()})

	if err := s.send([]byte{chosen}); err != nil {
		return err
	}

	s.state = stateAwaitSecurityResult
	s.dispatcher.arm(4, s.handleSecurityResult)
	return nil
}

func (s *Session) handleSecurityResult(data []byte) error {
	result := binary.BigEndian.Uint32(data)
	if result == securityResultOK {
		return s.proceedPastSecurity()
	}

	if s.version == protoVersion38 {
		s.state = stateAwaitSecurityFailReason
		return s.dispatcher.expectWithHeader(4, s.handleSecurityFailReason)
	}

	return errorReportedFromPeer("handleSecurityResult", "", nil)
}

func (s *Session) handleSecurityFailReason(data []byte) error {
	reason := string(data)
	return errorReportedFromPeer("handleSecurityFailReason", reason, nil)
}

// proceedPastSecurity sends the client's sharedFlag and arms for ServerInit.
func (s *Session) proceedPastSecurity() error {
	var shared byte
	if s.config.SharedFlag {
		shared = 1
	}
	if err := s.send([]byte{shared}); err != nil {
		return err
	}

	s.state = stateAwaitServerInit
	s.dispatcher.arm(20, s.handleServerInit)
	return nil
}

func (s *Session) handleServerInit(data []byte) error {
	si, err := readServerInit(data)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateFramebufferDimensions(si.Width, si.Height); err != nil {
		return err
	}
	if err := s.validator.ValidatePixelFormat(&si.PixelFormat); err != nil {
		return err
	}

	s.mu.Lock()
	s.fbWidth, s.fbHeight = si.Width, si.Height
	s.serverPixelFormat = si.PixelFormat
	s.mu.Unlock()

	s.state = stateAwaitServerName
	return s.dispatcher.expectWithHeader(4, s.handleServerName)
}

func (s *Session) handleServerName(data []byte) error {
	s.mu.Lock()
	s.serverName = string(data)
	s.mu.Unlock()
	s.logger.Info("server init complete",
		Field{Key: "name", Value: s.serverName},
		Field{Key: "width", Value: s.fbWidth},
		Field{Key: "height", Value: s.fbHeight})

	if err := s.validator.ValidatePixelFormat(&s.clientPixelFormat); err != nil {
		return err
	}
	pfBytes, err := writeSetPixelFormat(&s.clientPixelFormat)
	if err != nil {
		return err
	}
	if err := s.send(pfBytes); err != nil {
		return err
	}

	if err := s.send(writeSetEncodings([]int32{EncodingRaw})); err != nil {
		return err
	}

	req := framebufferUpdateRequest{Incremental: false, X: 0, Y: 0, Width: s.fbWidth, Height: s.fbHeight}
	if err := s.send(writeFramebufferUpdateRequest(req)); err != nil {
		return err
	}

	s.state = stateAwaitServerOrder
	s.dispatcher.arm(1, s.handleServerOrder)
	return nil
}

func (s *Session) handleServerOrder(data []byte) error {
	orderType := data[0]
	if orderType != msgTypeFramebufferUpdate {
		return invalidExpectedDataError("handleServerOrder",
			fmt.Sprintf("unsupported server order type %d", orderType), nil)
	}

	s.state = stateAwaitUpdateHeader
	s.dispatcher.arm(3, s.handleUpdateHeader)
	return nil
}

// handleUpdateHeader reads the 3-byte FramebufferUpdate header as two
// explicit fields (1 padding byte, then a 2-byte rectangle count) rather
// than a single conflated read.
func (s *Session) handleUpdateHeader(data []byte) error {
	_ = data[0] // padding
	count := binary.BigEndian.Uint16(data[1:3])
	s.remainingRects = int(count)

	if s.remainingRects == 0 {
		return s.requestNextUpdate()
	}

	s.state = stateAwaitRectHeader
	s.dispatcher.arm(rectangleHeaderSize, s.handleRectHeader)
	return nil
}

func (s *Session) handleRectHeader(data []byte) error {
	header, err := readRectangleHeader(data)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateEncodingType(header.Encoding); err != nil {
		return err
	}
	if header.Encoding != EncodingRaw {
		return invalidExpectedDataError("handleRectHeader",
			fmt.Sprintf("unsupported encoding %d", header.Encoding), nil)
	}
	if err := s.validator.ValidateRectangle(header.X, header.Y, header.Width, header.Height, s.fbWidth, s.fbHeight); err != nil {
		return err
	}

	s.currentRectHeader = header
	bodySize := rawRectangleBodySize(header.Width, header.Height, &s.clientPixelFormat)

	s.state = stateAwaitRectBody
	s.dispatcher.arm(bodySize, s.handleRectBody)
	return nil
}

// maxRectangleBodyBytes bounds the ValidateBinaryData check in
// handleRectBody: far above any real framebuffer rectangle body, it only
// guards against the dispatcher contract (exact-size arming) being broken
// by a future change rather than a plausible server payload.
const maxRectangleBodyBytes = 256 * 1024 * 1024

func (s *Session) handleRectBody(data []byte) error {
	expected := rawRectangleBodySize(s.currentRectHeader.Width, s.currentRectHeader.Height, &s.clientPixelFormat)
	if err := s.validator.ValidateBinaryData(data, expected, maxRectangleBodyBytes); err != nil {
		return err
	}

	s.controller.deliverRectangle(s.currentRectHeader, s.clientPixelFormat, data)
	s.remainingRects--

	if s.remainingRects > 0 {
		s.state = stateAwaitRectHeader
		s.dispatcher.arm(rectangleHeaderSize, s.handleRectHeader)
		return nil
	}

	return s.requestNextUpdate()
}

// requestNextUpdate sends the incremental FramebufferUpdateRequest that
// follows the last rectangle of any update, then arms for the next order.
func (s *Session) requestNextUpdate() error {
	req := framebufferUpdateRequest{Incremental: true, X: 0, Y: 0, Width: s.fbWidth, Height: s.fbHeight}
	if err := s.send(writeFramebufferUpdateRequest(req)); err != nil {
		return err
	}

	s.state = stateAwaitServerOrder
	s.dispatcher.arm(1, s.handleServerOrder)
	return nil
}

// FramebufferSize returns the negotiated framebuffer dimensions.
func (s *Session) FramebufferSize() (width, height uint16) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fbWidth, s.fbHeight
}

// DesktopName returns the server-reported desktop name.
func (s *Session) DesktopName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverName
}

// PixelFormat returns the pixel format the client proposed (and the server
// is expected to honor).
func (s *Session) PixelFormat() PixelFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientPixelFormat
}
