package ticket

import (
	"strings"
	"testing"
)

func TestGuestPayloadRoundTrip(t *testing.T) {
	token := NewVerificationToken()
	payload := GuestPayload(token)

	if !strings.HasPrefix(payload, "MUSDA|") {
		t.Fatalf("unexpected payload prefix: %s", payload)
	}

	namespace, opaqueID, ok := Split(payload)
	if !ok {
		t.Fatalf("Split failed for %s", payload)
	}
	if namespace != NamespaceGuest {
		t.Errorf("namespace = %s, want %s", namespace, NamespaceGuest)
	}
	if opaqueID != token {
		t.Errorf("opaqueID = %s, want %s", opaqueID, token)
	}
}

func TestSPHPayloadRoundTrip(t *testing.T) {
	code := NewPaymentCode()
	payload := SPHPayload(code)

	if !strings.HasPrefix(payload, "SPH|") {
		t.Fatalf("unexpected payload prefix: %s", payload)
	}

	namespace, opaqueID, ok := Split(payload)
	if !ok {
		t.Fatalf("Split failed for %s", payload)
	}
	if namespace != NamespaceSPH {
		t.Errorf("namespace = %s, want %s", namespace, NamespaceSPH)
	}
	if opaqueID != code {
		t.Errorf("opaqueID = %s, want %s", opaqueID, code)
	}
}

func TestSplitRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"no separator", "MUSDAabc123"},
		{"unknown namespace", "OTHER|abc123"},
		{"empty namespace", "|abc123"},
		{"empty identifier", "SPH|"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, ok := Split(tc.payload); ok {
				t.Errorf("Split(%q) accepted, want rejection", tc.payload)
			}
		})
	}
}

func TestNewVerificationTokenShape(t *testing.T) {
	token := NewVerificationToken()
	if len(token) != 32 {
		t.Errorf("token length = %d, want 32", len(token))
	}
	if strings.Contains(token, "-") {
		t.Errorf("token contains dashes: %s", token)
	}

	if token == NewVerificationToken() {
		t.Error("two tokens collided")
	}
}

func TestNewPaymentCodeShape(t *testing.T) {
	code := NewPaymentCode()
	if !strings.HasPrefix(code, "SPH-") {
		t.Fatalf("code = %s, want SPH- prefix", code)
	}
	if len(code) != len("SPH-")+8 {
		t.Errorf("code length = %d, want %d", len(code), len("SPH-")+8)
	}
	if code != strings.ToUpper(code) {
		t.Errorf("code not uppercase: %s", code)
	}
}
