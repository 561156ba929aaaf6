package packet

import "testing"

func TestEncodeParseHandshakeRoundTrip(t *testing.T) {
	payload := EncodeHandshake(1, 0xDEADBEEF)
	hs, err := ParseHandshake(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if hs.ProtocolVersion != ProtocolVersion {
		t.Fatalf("version = %d, want %d", hs.ProtocolVersion, ProtocolVersion)
	}
	if hs.Tag != 1 || !hs.Bot() {
		t.Fatalf("expected bot tag to round-trip, got tag=%d", hs.Tag)
	}
	if hs.AccountToken != 0xDEADBEEF {
		t.Fatalf("account_token = %#x, want 0xDEADBEEF", hs.AccountToken)
	}
}

func TestParseHandshakeRejectsBadMagic(t *testing.T) {
	payload := EncodeHandshake(0, 1)
	payload[0] = 'X'
	if _, err := ParseHandshake(payload); err == nil {
		t.Fatalf("expected error for corrupted magic")
	}
}

func TestParseHandshakeRejectsWrongSize(t *testing.T) {
	if _, err := ParseHandshake([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for short payload")
	}
}

func TestParseHandshakeRejectsBadVersion(t *testing.T) {
	payload := EncodeHandshake(0, 1)
	payload[4], payload[5] = 0xFF, 0xFF
	if _, err := ParseHandshake(payload); err == nil {
		t.Fatalf("expected error for unsupported protocol version")
	}
}
