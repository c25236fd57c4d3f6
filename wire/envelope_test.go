package wire

import (
	"testing"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/types"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := Envelope{
		Version:     ProtocolVersion,
		MessageType: MsgPing,
		ID:          crypto.ContentHash([]byte("envelope-id")),
		TimestampMs: 1_700_000_000_000,
		Sender:      id.PeerID(),
		Payload:     []byte(`{"hello":"world"}`),
	}
	env.Sign(id.Private)

	encoded := Encode(env)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Version != env.Version || decoded.MessageType != env.MessageType {
		t.Fatalf("header mismatch after round trip")
	}
	if decoded.ID != env.ID || decoded.Sender != env.Sender || decoded.TimestampMs != env.TimestampMs {
		t.Fatalf("header fields mismatch after round trip")
	}
	if string(decoded.Payload) != string(env.Payload) {
		t.Fatalf("payload mismatch: got %q, want %q", decoded.Payload, env.Payload)
	}
	if !decoded.Verify(id.Public) {
		t.Fatalf("decoded envelope should verify under sender's public key")
	}
}

func TestVerifyFailsOnTamperedPayload(t *testing.T) {
	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := Envelope{
		Version:     ProtocolVersion,
		MessageType: MsgPing,
		Sender:      id.PeerID(),
		Payload:     []byte("original"),
	}
	env.Sign(id.Private)
	env.Payload = []byte("tampered!")

	if env.Verify(id.Public) {
		t.Fatalf("envelope signature should not verify after payload tampering")
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	if _, err := Decode([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatalf("expected error decoding truncated input")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := Envelope{Version: ProtocolVersion, MessageType: MsgPing, Sender: id.PeerID()}
	env.Sign(id.Private)

	encoded := append(Encode(env), 0xFF)
	if _, err := Decode(encoded); err == nil {
		t.Fatalf("expected error decoding envelope with trailing bytes")
	}
}

func TestMessageTypeIsKnown(t *testing.T) {
	if !MsgChannelOpen.IsKnown() {
		t.Fatalf("MsgChannelOpen should be known")
	}
	if MessageType(0xFFFF).IsKnown() {
		t.Fatalf("arbitrary message type should not be known")
	}
}
