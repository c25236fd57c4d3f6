package channel

import "nodalync.dev/core/types"

// MinDeposit is the protocol minimum channel-opening deposit (§4.5).
const MinDeposit = 1000

// Open creates a new Opening-state channel record from this node's
// point of view: my_balance = deposit, their_balance = 0, nonce = 0.
func Open(channelID types.Hash, peer types.PeerId, deposit uint64, fundingTxID *types.Hash, nowMs int64) (types.Channel, error) {
	if deposit < MinDeposit {
		return types.Channel{}, types.NewErrorf(types.ErrDepositTooLow, "deposit %d is below minimum %d", deposit, MinDeposit)
	}
	return types.Channel{
		ChannelID:    channelID,
		PeerID:       peer,
		State:        types.Opening,
		MyBalance:    deposit,
		TheirBalance: 0,
		Nonce:        0,
		FundingTxID:  fundingTxID,
		LastUpdateMs: nowMs,
	}, nil
}

// Accept creates the counterparty's Open-state record, balances
// flipped from the opener's perspective (§4.5 accept_channel).
func Accept(channelID types.Hash, opener types.PeerId, openerDeposit uint64, myDeposit uint64, fundingTxID *types.Hash, nowMs int64) types.Channel {
	return types.Channel{
		ChannelID:    channelID,
		PeerID:       opener,
		State:        types.Open,
		MyBalance:    myDeposit,
		TheirBalance: openerDeposit,
		Nonce:        0,
		FundingTxID:  fundingTxID,
		LastUpdateMs: nowMs,
	}
}

// ActivateOpening transitions an Opening record to Open once the peer
// accepts (self-side of the opener, mirroring Accept for the acceptor).
func ActivateOpening(ch types.Channel, nowMs int64) (types.Channel, error) {
	if ch.State != types.Opening {
		return ch, types.NewErrorf(types.ErrChannelNotOpen, "channel is %s, expected opening", ch.State)
	}
	ch.State = types.Open
	ch.LastUpdateMs = nowMs
	return ch, nil
}

// Abort transitions an Opening record to Closed without ever reaching
// Open (§4.5 diagram: Opening --abort--> Closed).
func Abort(ch types.Channel, nowMs int64) (types.Channel, error) {
	if ch.State != types.Opening {
		return ch, types.NewErrorf(types.ErrInvalidCloseState, "channel is %s, expected opening", ch.State)
	}
	ch.State = types.Closed
	ch.LastUpdateMs = nowMs
	return ch, nil
}

// ApplySenderPayment applies a payment where THIS side is the sender
// (debited) of the channel — used by the requester side of a query
// after constructing and signing a Payment (§4.6). It enforces the
// same nonce and balance discipline update_channel does.
func ApplySenderPayment(ch types.Channel, payment types.Payment, nowMs int64) (types.Channel, error) {
	return applyPayment(ch, payment, nowMs, true)
}

// ApplyRecipientPayment applies a payment where THIS side is the
// recipient (credited) — used by the serving side after validating an
// incoming payment (§4.2 validate_payment, §4.6 serving-side query).
func ApplyRecipientPayment(ch types.Channel, payment types.Payment, nowMs int64) (types.Channel, error) {
	return applyPayment(ch, payment, nowMs, false)
}

func applyPayment(ch types.Channel, payment types.Payment, nowMs int64, weAreSender bool) (types.Channel, error) {
	if ch.State != types.Open {
		return ch, types.NewErrorf(types.ErrChannelNotOpen, "channel is %s", ch.State)
	}
	if payment.Nonce != ch.Nonce+1 {
		return ch, types.NewErrorf(types.ErrInvalidNonce, "payment nonce %d must equal current nonce %d + 1", payment.Nonce, ch.Nonce)
	}
	if weAreSender {
		if payment.Amount > ch.MyBalance {
			return ch, types.NewErrorf(types.ErrInsufficientBalance, "payment amount %d exceeds balance %d", payment.Amount, ch.MyBalance)
		}
		ch.MyBalance -= payment.Amount
		ch.TheirBalance += payment.Amount
	} else {
		if payment.Amount > ch.TheirBalance {
			return ch, types.NewErrorf(types.ErrInsufficientBalance, "payment amount %d exceeds counterparty balance %d", payment.Amount, ch.TheirBalance)
		}
		ch.TheirBalance -= payment.Amount
		ch.MyBalance += payment.Amount
	}
	ch.Nonce = payment.Nonce
	ch.PendingPayments = append(append([]types.Payment(nil), ch.PendingPayments...), payment)
	ch.LastUpdateMs = nowMs
	return ch, nil
}

// BeginCooperativeClose moves an Open channel to Closing with a
// pending-close offer at the current nonce (§4.5 close_channel).
func BeginCooperativeClose(ch types.Channel, nowMs int64) (types.Channel, error) {
	if ch.State != types.Open {
		return ch, types.NewErrorf(types.ErrChannelNotOpen, "channel is %s", ch.State)
	}
	ch.State = types.Closing
	ch.PendingClose = &types.PendingClose{
		Nonce:        ch.Nonce,
		MyBalance:    ch.MyBalance,
		TheirBalance: ch.TheirBalance,
		RequestedMs:  nowMs,
	}
	return ch, nil
}

// FinalizeCooperativeClose moves a Closing channel to Closed once the
// peer acknowledges.
func FinalizeCooperativeClose(ch types.Channel, nowMs int64) (types.Channel, error) {
	if ch.State != types.Closing {
		return ch, types.NewErrorf(types.ErrInvalidCloseState, "channel is %s, expected closing", ch.State)
	}
	ch.State = types.Closed
	ch.LastUpdateMs = nowMs
	return ch, nil
}

// ErrPeerUnresponsive is returned by the orchestration layer (not this
// pure package) when a cooperative close is not acknowledged within
// the close timeout; it carries a hint to start a dispute. Kept here
// as a sentinel so callers across packages compare against the same
// value (§4.5: "never silently moves on-chain").
var ErrPeerUnresponsive = types.NewError(types.ErrPeerUnresponsive, "peer did not acknowledge cooperative close within the timeout; consider disputing")

// BeginDispute moves an Open or Closing channel to Disputed, publishing
// the latest signed state at the channel's current nonce (§4.5 dispute).
func BeginDispute(ch types.Channel, nowMs int64) (types.Channel, error) {
	if ch.State != types.Open && ch.State != types.Closing {
		return ch, types.NewErrorf(types.ErrInvalidCloseState, "channel is %s, cannot dispute", ch.State)
	}
	ch.State = types.Disputed
	ch.PendingDispute = &types.PendingDispute{
		Nonce:          ch.Nonce,
		MyBalance:      ch.MyBalance,
		TheirBalance:   ch.TheirBalance,
		DisputeStartMs: nowMs,
	}
	return ch, nil
}

// Counter presents a strictly higher nonce during the dispute window
// (§4.5: "peer may counter within the dispute window by presenting a
// strictly higher nonce"). The counter's balances are from the
// counter-party's perspective and must be flipped before storing here.
func Counter(ch types.Channel, nonce uint64, myBalance, theirBalance uint64, nowMs int64) (types.Channel, error) {
	if ch.State != types.Disputed || ch.PendingDispute == nil {
		return ch, types.NewError(types.ErrInvalidCloseState, "channel is not under dispute")
	}
	if nonce <= ch.PendingDispute.Nonce {
		return ch, types.NewErrorf(types.ErrInvalidNonce, "counter-dispute nonce %d must exceed current %d", nonce, ch.PendingDispute.Nonce)
	}
	ch.PendingDispute = &types.PendingDispute{
		Nonce:          nonce,
		MyBalance:      myBalance,
		TheirBalance:   theirBalance,
		DisputeStartMs: ch.PendingDispute.DisputeStartMs, // the window does not restart (§8 property 8)
	}
	ch.LastUpdateMs = nowMs
	return ch, nil
}

// ResolveDispute finalizes a Disputed channel once the dispute window
// has elapsed, applying whichever state carries the highest nonce
// (§8 property 8: dispute safety).
func ResolveDispute(ch types.Channel, disputeWindowMs int64, nowMs int64) (types.Channel, error) {
	if ch.State != types.Disputed || ch.PendingDispute == nil {
		return ch, types.NewError(types.ErrInvalidCloseState, "channel is not under dispute")
	}
	if nowMs-ch.PendingDispute.DisputeStartMs < disputeWindowMs {
		return ch, types.NewError(types.ErrDisputePeriodNotElapsed, "dispute window has not elapsed")
	}
	ch.MyBalance = ch.PendingDispute.MyBalance
	ch.TheirBalance = ch.PendingDispute.TheirBalance
	ch.Nonce = ch.PendingDispute.Nonce
	ch.State = types.Closed
	ch.PendingDispute = nil
	ch.LastUpdateMs = nowMs
	return ch, nil
}
