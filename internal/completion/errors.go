package completion

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// TransportError is a failure that happened before a complete response was
// received.
type TransportError struct {
	Kind string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transport failure kinds used in the failure breakdown.
const (
	KindTimeout           = "Timeout"
	KindCanceled          = "Canceled"
	KindConnectionRefused = "Connection refused"
	KindConnectionReset   = "Connection reset"
	KindDNS               = "DNS error"
	KindTLS               = "TLS error"
	KindConnectionClosed  = "Connection closed"
	KindBodyRead          = "Body read error"
	KindRequestBuild      = "Request build error"
	KindNetwork           = "Network error"
)

func transportKind(err error) string {
	var (
		netErr   net.Error
		dnsErr   *net.DNSError
		certErr  *tls.CertificateVerificationError
		unkAuth  x509.UnknownAuthorityError
		hostErr  x509.HostnameError
		recHdErr tls.RecordHeaderError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		return KindConnectionReset
	case errors.As(err, &dnsErr):
		return KindDNS
	case errors.As(err, &certErr), errors.As(err, &unkAuth), errors.As(err, &hostErr), errors.As(err, &recHdErr):
		return KindTLS
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return KindConnectionClosed
	default:
		return KindNetwork
	}
}
