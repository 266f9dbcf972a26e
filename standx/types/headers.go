package types

// Request signing header names attached to every authenticated call.
const (
	HeaderSignVersion = "x-request-sign-version"
	HeaderRequestID   = "x-request-id"
	HeaderTimestamp   = "x-request-timestamp"
	HeaderSignature   = "x-request-signature"
)

// SignatureHeaders is the tamper-evident header bundle produced by signing an
// outbound payload.
type SignatureHeaders struct {
	SignVersion string
	RequestID   string
	Timestamp   string
	Signature   string
}

// Map returns the bundle keyed by wire header name.
func (h SignatureHeaders) Map() map[string]string {
	return map[string]string{
		HeaderSignVersion: h.SignVersion,
		HeaderRequestID:   h.RequestID,
		HeaderTimestamp:   h.Timestamp,
		HeaderSignature:   h.Signature,
	}
}
