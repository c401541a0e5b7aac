package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/position"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/types"
)

// ==================== State models ====================

type stateModel struct {
	grove.BaseModel `grove:"table:vault_states"`

	Name           string    `grove:"name,pk"`
	ID             string    `grove:"id"`
	AssetSymbol    string    `grove:"asset_symbol"`
	AssetDecimals  int       `grove:"asset_decimals"`
	Rate           int64     `grove:"rate"`
	FeeBps         int64     `grove:"fee_bps"`
	TotalDeposits  int64     `grove:"total_deposits"`
	TotalShares    int64     `grove:"total_shares"`
	OperatorShares int64     `grove:"operator_shares"`
	Paused         bool      `grove:"paused"`
	Version        int64     `grove:"version"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toStateModel(s *state.State) *stateModel {
	return &stateModel{
		Name:           s.Name,
		ID:             s.ID.String(),
		AssetSymbol:    s.Asset.Symbol,
		AssetDecimals:  s.Asset.Decimals,
		Rate:           s.Rate,
		FeeBps:         s.FeeBps,
		TotalDeposits:  s.TotalDeposits,
		TotalShares:    s.TotalShares,
		OperatorShares: s.OperatorShares,
		Paused:         s.Paused,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func fromStateModel(m *stateModel) (*state.State, error) {
	vaultID, err := id.ParseVaultID(m.ID)
	if err != nil {
		return nil, err
	}

	return &state.State{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             vaultID,
		Name:           m.Name,
		Asset:          types.Asset{Symbol: m.AssetSymbol, Decimals: m.AssetDecimals},
		Rate:           m.Rate,
		FeeBps:         m.FeeBps,
		TotalDeposits:  m.TotalDeposits,
		TotalShares:    m.TotalShares,
		OperatorShares: m.OperatorShares,
		Paused:         m.Paused,
		Version:        m.Version,
	}, nil
}

// ==================== Position models ====================

type positionModel struct {
	grove.BaseModel `grove:"table:vault_positions"`

	Vault     string    `grove:"vault,pk"`
	Account   string    `grove:"account,pk"`
	Balance   int64     `grove:"balance"`
	Shares    int64     `grove:"shares"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toPositionModel(p *position.Position) *positionModel {
	return &positionModel{
		Vault:     p.Vault,
		Account:   p.Account,
		Balance:   p.Balance,
		Shares:    p.Shares,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromPositionModel(m *positionModel) *position.Position {
	return &position.Position{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Vault:   m.Vault,
		Account: m.Account,
		Balance: m.Balance,
		Shares:  m.Shares,
	}
}

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:vault_events"`

	ID        string    `grove:"id,pk"`
	Vault     string    `grove:"vault"`
	Seq       int64     `grove:"seq"`
	Kind      string    `grove:"kind"`
	Actor     string    `grove:"actor"`
	Amount    int64     `grove:"amount"`
	Fee       int64     `grove:"fee"`
	Net       int64     `grove:"net"`
	Shares    int64     `grove:"shares"`
	FeeShares int64     `grove:"fee_shares"`
	Payout    int64     `grove:"payout"`
	Rate      int64     `grove:"rate"`
	FeeBps    int64     `grove:"fee_bps"`
	Previous  int64     `grove:"previous"`
	CreatedAt time.Time `grove:"created_at"`
}

func toEventModel(e *event.Event) *eventModel {
	return &eventModel{
		ID:        e.ID.String(),
		Vault:     e.Vault,
		Seq:       e.Seq,
		Kind:      string(e.Kind),
		Actor:     e.Actor,
		Amount:    e.Amount,
		Fee:       e.Fee,
		Net:       e.Net,
		Shares:    e.Shares,
		FeeShares: e.FeeShares,
		Payout:    e.Payout,
		Rate:      e.Rate,
		FeeBps:    e.FeeBps,
		Previous:  e.Previous,
		CreatedAt: e.CreatedAt,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}

	return &event.Event{
		ID:        eventID,
		Vault:     m.Vault,
		Seq:       m.Seq,
		Kind:      event.Kind(m.Kind),
		Actor:     m.Actor,
		Amount:    m.Amount,
		Fee:       m.Fee,
		Net:       m.Net,
		Shares:    m.Shares,
		FeeShares: m.FeeShares,
		Payout:    m.Payout,
		Rate:      m.Rate,
		FeeBps:    m.FeeBps,
		Previous:  m.Previous,
		CreatedAt: m.CreatedAt,
	}, nil
}
