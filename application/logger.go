// Package application declares the ports the infrastructure and presentation
// layers implement: small interfaces kept free of any particular transport,
// crypto, or I/O concern.
package application

// Logger is the logging port used by the dispatchers, the SOCKS glue and the
// CLI entry points. A *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, v ...any)
}
