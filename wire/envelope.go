// Package wire implements the Nodalync wire envelope (§6.1): the
// fixed header every protocol message carries, message-type constants
// grouped by purpose, and envelope signing/verification.
package wire

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/types"
)

// ProtocolVersion is the current wire version (§6.1).
const ProtocolVersion uint8 = 0x01

// MessageType identifies the payload's shape. Grouped by high byte
// exactly as the spec's table lays them out.
type MessageType uint16

const (
	// 0x01xx Discovery
	MsgAnnounce       MessageType = 0x0101
	MsgAnnounceUpdate MessageType = 0x0102
	MsgSearch         MessageType = 0x0103
	MsgSearchResponse MessageType = 0x0104

	// 0x02xx Preview
	MsgPreviewRequest  MessageType = 0x0201
	MsgPreviewResponse MessageType = 0x0202

	// 0x03xx Query
	MsgQueryRequest  MessageType = 0x0301
	MsgQueryResponse MessageType = 0x0302
	MsgQueryError    MessageType = 0x0303

	// 0x04xx Version
	MsgVersionRequest  MessageType = 0x0401
	MsgVersionResponse MessageType = 0x0402

	// 0x05xx Channel
	MsgChannelOpen     MessageType = 0x0501
	MsgChannelAccept   MessageType = 0x0502
	MsgChannelUpdate   MessageType = 0x0503
	MsgChannelClose    MessageType = 0x0504
	MsgChannelDispute  MessageType = 0x0505
	MsgChannelCloseAck MessageType = 0x0506

	// 0x06xx Settlement
	MsgSettleBatch   MessageType = 0x0601
	MsgSettleConfirm MessageType = 0x0602

	// 0x07xx Peer
	MsgPing     MessageType = 0x0701
	MsgPong     MessageType = 0x0702
	MsgPeerInfo MessageType = 0x0703
)

var knownMessageTypes = map[MessageType]string{
	MsgAnnounce: "Announce", MsgAnnounceUpdate: "AnnounceUpdate",
	MsgSearch: "Search", MsgSearchResponse: "SearchResponse",
	MsgPreviewRequest: "PreviewRequest", MsgPreviewResponse: "PreviewResponse",
	MsgQueryRequest: "QueryRequest", MsgQueryResponse: "QueryResponse", MsgQueryError: "QueryError",
	MsgVersionRequest: "VersionRequest", MsgVersionResponse: "VersionResponse",
	MsgChannelOpen: "ChannelOpen", MsgChannelAccept: "ChannelAccept", MsgChannelUpdate: "ChannelUpdate",
	MsgChannelClose: "ChannelClose", MsgChannelDispute: "ChannelDispute", MsgChannelCloseAck: "ChannelCloseAck",
	MsgSettleBatch: "SettleBatch", MsgSettleConfirm: "SettleConfirm",
	MsgPing: "Ping", MsgPong: "Pong", MsgPeerInfo: "PeerInfo",
}

func (t MessageType) String() string {
	if name, ok := knownMessageTypes[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%04x)", uint16(t))
}

func (t MessageType) IsKnown() bool {
	_, ok := knownMessageTypes[t]
	return ok
}

// Envelope is the fixed shape every Nodalync message takes (§6.1).
// Payload is a self-describing, type-specific encoding; this package
// does not interpret it.
type Envelope struct {
	Version     uint8
	MessageType MessageType
	ID          types.Hash
	TimestampMs int64
	Sender      types.PeerId
	Payload     []byte
	Signature   types.Signature
}

// signingDigest computes H(version||type||id||timestamp||sender||H(payload))
// per §6.1's signature field definition.
func (e Envelope) signingDigest() types.Hash {
	payloadHash := crypto.ContentHash(e.Payload)

	buf := make([]byte, 0, 1+2+32+8+20+32)
	buf = append(buf, e.Version)
	buf = appendUint16(buf, uint16(e.MessageType))
	buf = append(buf, e.ID[:]...)
	buf = appendUint64(buf, uint64(e.TimestampMs))
	buf = append(buf, e.Sender[:]...)
	buf = append(buf, payloadHash[:]...)
	return crypto.ContentHash(buf)
}

// Sign fills in e.Signature over the envelope's signing digest.
func (e *Envelope) Sign(priv ed25519.PrivateKey) {
	digest := e.signingDigest()
	e.Signature = crypto.Sign(priv, digest[:])
}

// Verify checks e.Signature against senderPub over the envelope's
// signing digest. It does not check protocol version, message-type
// validity, or timestamp skew — see validator.ValidateMessage for the
// full §4.2 validate_message check.
func (e Envelope) Verify(senderPub ed25519.PublicKey) bool {
	digest := e.signingDigest()
	return crypto.Verify(senderPub, digest[:], e.Signature)
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Encode serializes e to its wire form: a fixed header followed by a
// length-prefixed payload and a trailing signature, mirroring the
// teacher protocol's fixed-header-plus-payload framing.
func Encode(e Envelope) []byte {
	buf := make([]byte, 0, 1+2+32+8+20+4+len(e.Payload)+64)
	buf = append(buf, e.Version)
	buf = appendUint16(buf, uint16(e.MessageType))
	buf = append(buf, e.ID[:]...)
	buf = appendUint64(buf, uint64(e.TimestampMs))
	buf = append(buf, e.Sender[:]...)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(e.Payload)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, e.Payload...)
	buf = append(buf, e.Signature[:]...)
	return buf
}

const headerLen = 1 + 2 + 32 + 8 + 20 + 4

// Decode parses the wire form produced by Encode. It never panics on
// truncated or oversized input; it returns a plain error instead.
func Decode(b []byte) (Envelope, error) {
	if len(b) < headerLen+64 {
		return Envelope{}, fmt.Errorf("wire: envelope truncated: need at least %d bytes, got %d", headerLen+64, len(b))
	}
	var e Envelope
	e.Version = b[0]
	e.MessageType = MessageType(binary.BigEndian.Uint16(b[1:3]))
	copy(e.ID[:], b[3:35])
	e.TimestampMs = int64(binary.BigEndian.Uint64(b[35:43]))
	copy(e.Sender[:], b[43:63])
	payloadLen := binary.BigEndian.Uint32(b[63:67])

	rest := b[headerLen:]
	if uint64(len(rest)) < uint64(payloadLen)+64 {
		return Envelope{}, fmt.Errorf("wire: envelope payload length %d exceeds remaining bytes", payloadLen)
	}
	e.Payload = append([]byte(nil), rest[:payloadLen]...)
	copy(e.Signature[:], rest[payloadLen:payloadLen+64])
	if uint64(len(rest)) != uint64(payloadLen)+64 {
		return Envelope{}, fmt.Errorf("wire: trailing bytes after signature")
	}
	return e, nil
}
