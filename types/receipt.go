package types

// Receipt is returned by the serving side of a paid query: proof that
// the owner accepted a specific payment at a specific channel nonce
// (§4.6). The requester verifies Signature over SigningBytes
// under the owner's public key before trusting the delivered bytes.
type Receipt struct {
	PaymentID    Hash
	Amount       uint64
	TimestampMs  int64
	ChannelNonce uint64
	Signature    Signature
}

// SigningBytes is the canonical encoding the owner signs: (payment_id,
// amount, timestamp, channel_nonce) per §4.6.
func (r Receipt) SigningBytes() []byte {
	buf := make([]byte, 0, 32+8+8+8)
	buf = append(buf, r.PaymentID[:]...)
	buf = appendUint64(buf, r.Amount)
	buf = appendUint64(buf, uint64(r.TimestampMs))
	buf = appendUint64(buf, r.ChannelNonce)
	return buf
}
