package config

// Configuration is the JSON-serializable shape persisted to disk for both
// roles. Not every field is meaningful to every role: a client reads
// TransportDialAddress and ignores TransportListenAddress, a server the
// reverse.
type Configuration struct {
	// SharedKeyHex is the hex-encoded 32-byte ChaCha20-Poly1305 key shared
	// out of band between one client and one server.
	SharedKeyHex string `json:"SharedKeyHex"`

	// SOCKSListenAddress is where the client's SOCKS5 entry point listens,
	// e.g. "127.0.0.1:1080".
	SOCKSListenAddress string `json:"SOCKSListenAddress"`

	// TransportDialAddress is the server address a client dials to
	// establish the multiplexed control channel.
	TransportDialAddress string `json:"TransportDialAddress"`

	// TransportListenAddress is where a server listens for that
	// connection, e.g. ":11999".
	TransportListenAddress string `json:"TransportListenAddress"`

	// MaxFrameSize caps a single frame's declared length. 0 selects
	// frame.DefaultMaxFrameSize.
	MaxFrameSize uint32 `json:"MaxFrameSize"`

	// MaxConnections caps concurrently accepted connections on a listener
	// (the SOCKS listener on the client, the transport listener on the
	// server). 0 disables the limit.
	MaxConnections int `json:"MaxConnections"`

	// ReconnectIntervalMs is how long the client waits between transport
	// reconnect attempts after the connection drops.
	ReconnectIntervalMs int `json:"ReconnectIntervalMs"`

	// AcceptQueueDepth is a soft limit on the server's backlog of accepted-
	// but-not-yet-served channels: the queue itself stays unbounded (see
	// mux.Server), but the dispatcher logs a warning once it grows past
	// this many entries, signalling that Accept callers are falling behind.
	AcceptQueueDepth int `json:"AcceptQueueDepth"`
}

// NewDefaultConfiguration returns a Configuration with every field set to
// its out-of-the-box default. SharedKeyHex is left empty: there is no safe
// default key, and SharedKey returns an error when it is missing.
func NewDefaultConfiguration() *Configuration {
	return (&Configuration{}).EnsureDefaults()
}

// EnsureDefaults fills any zero-valued field with its default, leaving
// explicit values (e.g. loaded from disk) untouched.
func (c *Configuration) EnsureDefaults() *Configuration {
	if c.SOCKSListenAddress == "" {
		c.SOCKSListenAddress = "127.0.0.1:1080"
	}
	if c.TransportDialAddress == "" {
		c.TransportDialAddress = "127.0.0.1:11999"
	}
	if c.TransportListenAddress == "" {
		c.TransportListenAddress = ":11999"
	}
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = 8 << 20
	}
	if c.ReconnectIntervalMs == 0 {
		c.ReconnectIntervalMs = 2000
	}
	if c.AcceptQueueDepth == 0 {
		c.AcceptQueueDepth = 256
	}
	return c
}
