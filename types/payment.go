package types

import "encoding/binary"

// Payment is a signed, channel-scoped payment receipt (§3). Its Id is
// deterministic over (QueryHash, Amount, Nonce) — see crypto.PaymentID
// — so replays of an identical payment collide on id, and the channel
// nonce-discipline check (§4.5) catches them independently.
type Payment struct {
	ID         Hash
	ChannelID  Hash
	Amount     uint64
	Recipient  PeerId
	QueryHash  Hash
	Provenance []ProvenanceEntry
	Nonce      uint64
	TimestampMs int64
	Signature  Signature
	Settled    bool
}

// SigningBytes is the canonical encoding a payment's signature covers:
// channel id, amount, recipient, query hash, nonce, and timestamp. The
// root set is intentionally excluded — it is re-derived from the
// manifest at validation time (§4.2 validate_payment), not trusted
// from the wire.
func (p Payment) SigningBytes() []byte {
	buf := make([]byte, 0, 32+8+20+32+8+8)
	buf = append(buf, p.ChannelID[:]...)
	buf = appendUint64(buf, p.Amount)
	buf = append(buf, p.Recipient[:]...)
	buf = append(buf, p.QueryHash[:]...)
	buf = appendUint64(buf, p.Nonce)
	buf = appendUint64(buf, uint64(p.TimestampMs))
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
