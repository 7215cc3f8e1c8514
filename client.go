// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

// Config holds the session's negotiable and configurable parameters.
// Constructed via defaultConfig and customized with Option functions, the
// same functional-options shape used throughout this package's public API.
type Config struct {
	// PreferredPixelFormat is the PixelFormat the client proposes to the
	// server immediately after ServerInit.
	PreferredPixelFormat PixelFormat

	// SharedFlag requests non-exclusive access to the remote desktop.
	SharedFlag bool

	// PreferredSecurity, if non-empty, overrides the default "highest of
	// {NONE,VNC}" selection policy: it is scanned in order and the first
	// entry also offered by the server wins.
	PreferredSecurity []uint8

	// AuthRegistry supplies the set of security schemes this session is
	// willing to run (and, for VNC, merely recognize). Defaults to
	// NewAuthRegistry(), which only offers None and VNC.
	AuthRegistry *AuthRegistry

	// Logger receives structured diagnostic events from the session and
	// controller. It is not passed to AuthRegistry, which keeps the no-op
	// logger it was constructed with. Defaults to a no-op logger.
	Logger Logger
}

// Option customizes a Config produced by defaultConfig.
type Option func(*Config)

// defaultConfig returns the configuration a session starts from absent any
// options: the default client pixel format, exclusive access requested,
// default security ordering, default auth registry, no-op logging.
func defaultConfig() *Config {
	return &Config{
		PreferredPixelFormat: DefaultClientPixelFormat,
		SharedFlag:           false,
		AuthRegistry:         NewAuthRegistry(),
		Logger:               &NoOpLogger{},
	}
}

// WithPixelFormat overrides the pixel format proposed to the server.
func WithPixelFormat(pf PixelFormat) Option {
	return func(c *Config) {
		c.PreferredPixelFormat = pf
	}
}

// WithSharedFlag sets whether the client requests shared (non-exclusive) access.
func WithSharedFlag(shared bool) Option {
	return func(c *Config) {
		c.SharedFlag = shared
	}
}

// WithPreferredSecurity overrides the default highest-wins security
// selection with an explicit preference order.
func WithPreferredSecurity(order ...uint8) Option {
	return func(c *Config) {
		c.PreferredSecurity = order
	}
}

// WithAuthRegistry overrides the registry of recognized security schemes.
func WithAuthRegistry(registry *AuthRegistry) Option {
	return func(c *Config) {
		c.AuthRegistry = registry
	}
}

// WithLogger overrides the session's logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
