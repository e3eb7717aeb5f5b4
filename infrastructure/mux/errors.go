package mux

import "errors"

// ErrTransportClosed is returned synchronously from Connect/Accept once the
// dispatcher backing the transport has shut down.
var ErrTransportClosed = errors.New("mux: transport closed")
