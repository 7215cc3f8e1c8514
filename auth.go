// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import (
	"fmt"
	"sync"
)

// ClientAuth identifies a security scheme the client is willing to run.
// Only the "None" scheme is runnable end-to-end by this package; other
// schemes (notably VNC challenge/response) are recognized for negotiation
// purposes only — their handshake is the caller's responsibility.
type ClientAuth interface {
	SecurityType() uint8
	String() string
}

// ClientAuthNone implements the "None" authentication method (security type 1).
type ClientAuthNone struct{}

// SecurityType returns the security type identifier for None authentication.
func (c *ClientAuthNone) SecurityType() uint8 {
	return SecurityTypeNone
}

// String returns a human-readable description of the authentication method.
func (c *ClientAuthNone) String() string {
	return "None"
}

// ClientAuthVNC represents the VNC challenge/response scheme (security type
// 2). It is recognized during negotiation so the state machine can select it
// when it is the best offer, but this package does not carry out the DES
// challenge/response itself.
type ClientAuthVNC struct{}

// SecurityType returns the security type identifier for VNC authentication.
func (c *ClientAuthVNC) SecurityType() uint8 {
	return SecurityTypeVNC
}

// String returns a human-readable description of the authentication method.
func (c *ClientAuthVNC) String() string {
	return "VNC"
}

// AuthFactory constructs a ClientAuth instance on demand.
type AuthFactory func() ClientAuth

// AuthRegistry tracks which security schemes a session is willing to run,
// and resolves the scheme a server and client both support. It holds no
// ordering of its own; a preference order is passed to NegotiateAuth.
type AuthRegistry struct {
	factories map[uint8]AuthFactory
	mu        sync.RWMutex
	logger    Logger
}

// NewAuthRegistry creates a registry pre-populated with the two schemes this
// core recognizes: None (runnable) and VNC (recognized only).
func NewAuthRegistry() *AuthRegistry {
	registry := &AuthRegistry{
		factories: make(map[uint8]AuthFactory),
		logger:    &NoOpLogger{},
	}

	registry.Register(SecurityTypeNone, func() ClientAuth {
		return &ClientAuthNone{}
	})

	registry.Register(SecurityTypeVNC, func() ClientAuth {
		return &ClientAuthVNC{}
	})

	return registry
}

// Register adds an authentication method factory to the registry.
func (r *AuthRegistry) Register(securityType uint8, factory AuthFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug("registering authentication method",
			Field{Key: "security_type", Value: securityType})
	}

	r.factories[securityType] = factory
}

// Unregister removes an authentication method from the registry.
func (r *AuthRegistry) Unregister(securityType uint8) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[securityType]; exists {
		delete(r.factories, securityType)
		return true
	}

	return false
}

// CreateAuth creates a new instance of the authentication method for the given security type.
func (r *AuthRegistry) CreateAuth(securityType uint8) (ClientAuth, error) {
	r.mu.RLock()
	factory, exists := r.factories[securityType]
	r.mu.RUnlock()

	if !exists {
		return nil, invalidExpectedDataError("AuthRegistry.CreateAuth",
			fmt.Sprintf("unsupported security type: %d", securityType), nil)
	}

	return factory(), nil
}

// GetSupportedTypes returns all security types this registry can construct.
func (r *AuthRegistry) GetSupportedTypes() []uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]uint8, 0, len(r.factories))
	for securityType := range r.factories {
		types = append(types, securityType)
	}

	return types
}

// IsSupported checks if a security type is supported by the registry.
func (r *AuthRegistry) IsSupported(securityType uint8) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[securityType]
	return exists
}

// NegotiateAuth picks the scheme to run given the types a server offered.
//
// With no explicit preferredOrder, the registry selects the numerically
// highest offered type that is also registered (None and VNC are the only
// ones registered by default) — not the first offered type that happens to
// match, which is a subtly different (and weaker) policy. When preferredOrder
// is given, it is scanned first-to-last and the first mutual match wins,
// letting a caller express "I'd rather downgrade to None than run VNC" or
// similar explicit overrides.
func (r *AuthRegistry) NegotiateAuth(serverTypes []uint8, preferredOrder []uint8) (ClientAuth, uint8, error) {
	if r.logger != nil {
		r.logger.Debug("starting authentication negotiation",
			Field{Key: "server_types", Value: serverTypes},
			Field{Key: "preferred_order", Value: preferredOrder})
	}

	if preferredOrder != nil {
		for _, preferredType := range preferredOrder {
			for _, serverType := range serverTypes {
				if preferredType == serverType && r.IsSupported(preferredType) {
					auth, err := r.CreateAuth(preferredType)
					if err != nil {
						continue
					}
					return auth, preferredType, nil
				}
			}
		}
	} else {
		best := uint8(0)
		found := false
		for _, serverType := range serverTypes {
			if r.IsSupported(serverType) && serverType > best {
				best = serverType
				found = true
			}
		}
		if found {
			auth, err := r.CreateAuth(best)
			if err == nil {
				return auth, best, nil
			}
		}
	}

	supportedTypes := r.GetSupportedTypes()
	return nil, 0, negotiationFailureError("AuthRegistry.NegotiateAuth",
		fmt.Sprintf("no mutual security type found: server offered %v, client supports %v", serverTypes, supportedTypes), nil)
}

// ValidateAuthMethod performs basic sanity checks on an authentication method instance.
func (r *AuthRegistry) ValidateAuthMethod(auth ClientAuth) error {
	if auth == nil {
		return invalidValueError("AuthRegistry.ValidateAuthMethod", "authentication method is nil", nil)
	}

	if auth.SecurityType() == 0 {
		return invalidValueError("AuthRegistry.ValidateAuthMethod", "invalid security type 0", nil)
	}

	return nil
}
