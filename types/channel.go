package types

// ChannelState is a node in the bilateral payment-channel state
// machine (§4.5).
type ChannelState uint8

const (
	Opening ChannelState = iota
	Open
	Closing
	Disputed
	Closed
)

func (s ChannelState) String() string {
	switch s {
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Disputed:
		return "disputed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// PendingDispute records the published state under dispute and when
// the dispute window opened.
type PendingDispute struct {
	Nonce          uint64
	MyBalance      uint64
	TheirBalance   uint64
	DisputeStartMs int64
}

// PendingClose records a cooperative-close offer awaiting peer ack.
type PendingClose struct {
	Nonce        uint64
	MyBalance    uint64
	TheirBalance uint64
	RequestedMs  int64
}

// Channel is one bilateral off-chain payment channel (§3).
type Channel struct {
	ChannelID       Hash
	PeerID          PeerId
	State           ChannelState
	MyBalance       uint64
	TheirBalance    uint64
	Nonce           uint64
	PendingPayments []Payment
	PendingClose    *PendingClose
	PendingDispute  *PendingDispute
	FundingTxID     *Hash
	LastUpdateMs    int64
}

// Capacity is the total value locked in the channel by both sides.
func (c Channel) Capacity() uint64 {
	return c.MyBalance + c.TheirBalance
}
