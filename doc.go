// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package vnc implements the client-role core of the Remote Framebuffer
// (RFB) protocol: version and security negotiation, the byte-exact
// big-endian wire codec, and the event-driven dispatcher that drives the
// handshake and the steady-state update loop from an asynchronous byte
// stream.
//
// The package does not open sockets. A Session is driven by whatever owns
// the transport, through three calls: OnConnect when the connection is
// established, OnBytes as bytes arrive, and OnDisconnect on teardown.
// NetConnTransport adapts a net.Conn to this contract for the common case.
//
// # Basic usage
//
//	conn, err := net.Dial("tcp", "localhost:5900")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	observer := &myObserver{}
//	session := vnc.NewSession(nil, observer, vnc.WithSharedFlag(true))
//	transport := vnc.NewNetConnTransport(conn, session)
//	session.SetTransport(transport)
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	if err := transport.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Receiving updates
//
// An Observer implementation embeds vnc.ObserverBase and implements
// OnUpdate:
//
//	type myObserver struct {
//		vnc.ObserverBase
//	}
//
//	func (o *myObserver) OnUpdate(width, height, x, y uint16, pf vnc.PixelFormat, encoding int32, data []byte) {
//		// data is the raw Raw-encoded rectangle body.
//	}
//
// # Sending input
//
//	observer.KeyEvent(true, 0x0061)  // 'a' key down
//	observer.KeyEvent(false, 0x0061) // 'a' key up
//	observer.PointerEvent(vnc.ButtonMask(1), 100, 100)
//
// Calling either before the observer has been registered with a controller
// (via Controller.AddObserver, which NewSession does automatically for the
// observer passed to it) fails with an UnregisteredObject error.
//
// # Error handling
//
//	if vnc.IsVNCError(err, vnc.CodeNegotiationFailure) {
//		log.Printf("handshake failed: %v", err)
//	}
package vnc
