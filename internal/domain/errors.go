package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConnected is returned by any adapter operation that requires an open
// session while the adapter is disconnected. It is distinct from vendor
// failures so callers can tell configuration errors from connectivity errors.
var ErrNotConnected = errors.New("not connected")

// ValidationError reports missing or malformed caller input, raised before
// any network attempt.
type ValidationError struct {
	Platform string   // optional: which adapter/provider rejected the input
	Missing  []string // required fields that were absent
	Reason   string   // free-form reason when Missing does not apply
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation")
	if e.Platform != "" {
		fmt.Fprintf(&b, " (%s)", e.Platform)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

// VendorError wraps a non-success response or malformed payload from a
// vendor endpoint, tagged with enough context to identify the vendor and
// operation.
type VendorError struct {
	Vendor     string
	Op         string
	StatusCode int // zero when the failure happened before/without an HTTP status
	Err        error
}

func (e *VendorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: http %d: %v", e.Vendor, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Vendor, e.Op, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }

// UnsupportedError reports a registry lookup for an unknown platform or
// provider identifier.
type UnsupportedError struct {
	Kind string // "platform" or "provider"
	ID   string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.Kind, e.ID)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnsupported reports whether err is (or wraps) an UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}
