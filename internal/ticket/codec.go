package ticket

import (
	"strings"

	"github.com/google/uuid"
)

// QR payload namespaces. The exact strings are load-bearing: printed and
// emailed tickets already carry them, so they must never change.
const (
	NamespaceGuest = "MUSDA"
	NamespaceSPH   = "SPH"

	separator = "|"
)

// GuestPayload derives the Guest-track QR payload from a verification token.
func GuestPayload(verificationToken string) string {
	return NamespaceGuest + separator + verificationToken
}

// SPHPayload derives the Workshop-track QR payload from a payment code.
func SPHPayload(paymentCode string) string {
	return NamespaceSPH + separator + paymentCode
}

// Split breaks a scanned payload into namespace and opaque identifier.
// Returns false for anything that does not match the namespaced form.
func Split(payload string) (namespace, opaqueID string, ok bool) {
	parts := strings.SplitN(payload, separator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	switch parts[0] {
	case NamespaceGuest, NamespaceSPH:
		return parts[0], parts[1], true
	}
	return "", "", false
}

// NewVerificationToken issues the opaque Guest-track identifier. Generated
// exactly once at registration; regenerating would invalidate tickets
// already in the wild.
func NewVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewPaymentCode issues the Workshop-track identifier embedded in the QR
// payload. Short enough to read over the phone at the help desk.
func NewPaymentCode() string {
	return "SPH-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
