package event

import (
	"context"
	"time"

	"github.com/xraph/vault/id"
)

// Kind names the operation that produced an event.
type Kind string

const (
	KindDeposit          Kind = "deposit"
	KindWithdraw         Kind = "withdraw"
	KindYieldAccumulated Kind = "yield_accumulated"
	KindRateUpdated      Kind = "rate_updated"
	KindFeeUpdated       Kind = "fee_updated"
	KindOperatorWithdraw Kind = "operator_withdraw"
	KindPaused           Kind = "paused"
	KindUnpaused         Kind = "unpaused"
)

// Kinds lists every event kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindDeposit,
		KindWithdraw,
		KindYieldAccumulated,
		KindRateUpdated,
		KindFeeUpdated,
		KindOperatorWithdraw,
		KindPaused,
		KindUnpaused,
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// MovesValue reports whether events of this kind transfer custody.
func (k Kind) MovesValue() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindYieldAccumulated, KindOperatorWithdraw:
		return true
	default:
		return false
	}
}

// Event is an append-only record of one successful operation.
type Event struct {
	ID        id.EventID `json:"id"`
	Vault     string     `json:"vault"`
	Seq       int64      `json:"seq"`
	Kind      Kind       `json:"kind"`
	Actor     string     `json:"actor"`
	Amount    int64      `json:"amount,omitempty"`
	Fee       int64      `json:"fee,omitempty"`
	Net       int64      `json:"net,omitempty"`
	Shares    int64      `json:"shares,omitempty"`
	FeeShares int64      `json:"fee_shares,omitempty"`
	Payout    int64      `json:"payout,omitempty"`
	Rate      int64      `json:"rate"`
	FeeBps    int64      `json:"fee_bps"`
	Previous  int64      `json:"previous,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ListOpts filters and paginates event listings. Events are returned in
// ascending Seq order.
type ListOpts struct {
	Kind    Kind
	Actor   string
	FromSeq int64
	Limit   int
	Offset  int
}

// Store reads the event log. Appends happen through store.Commit.
type Store interface {
	GetEvent(ctx context.Context, eventID id.EventID) (*Event, error)
	ListEvents(ctx context.Context, vault string, opts ListOpts) ([]*Event, error)
}
