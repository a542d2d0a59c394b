package clients

import "errors"

// Failure kinds shared by every outbound client. Callers classify with
// errors.Is; the wrapped message carries the detail.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrTransport         = errors.New("transport failure")
	ErrDecode            = errors.New("decode failure")
)
