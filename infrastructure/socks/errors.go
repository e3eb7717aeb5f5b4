package socks

import "errors"

var (
	// ErrUnsupportedVersion is returned when the client's greeting or
	// request does not carry SOCKS version 5.
	ErrUnsupportedVersion = errors.New("socks: unsupported protocol version")

	// ErrNoAuthMethod is returned when the client's method list does not
	// offer NO AUTHENTICATION REQUIRED, the only method this proxy serves.
	ErrNoAuthMethod = errors.New("socks: client did not offer no-auth")

	// ErrUnsupportedCommand is returned for any request command other than
	// CONNECT; BIND and UDP ASSOCIATE are out of scope.
	ErrUnsupportedCommand = errors.New("socks: unsupported command")

	// ErrUnsupportedAddressType is returned for an ATYP byte other than
	// IPv4, IPv6 or domain name.
	ErrUnsupportedAddressType = errors.New("socks: unsupported address type")
)
