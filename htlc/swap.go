package htlc

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusActive
	StatusClaimed
	StatusRefunded
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClaimed:
		return "claimed"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Funding is the two-variant tagged type describing what a swap escrows:
// either native value held in the account book or a quantity of an external
// multi-token contract. Exactly one variant exists per swap.
type Funding interface {
	funding()
}

// NativeFunding holds the escrowed native amount net of the protocol fee.
type NativeFunding struct {
	Amount *big.Int
}

// TokenFunding identifies a quantity of a token held with the custodian on
// the swap's behalf. No protocol fee is taken on token swaps.
type TokenFunding struct {
	Contract common.Address
	TokenID  *big.Int
	Amount   *big.Int
}

func (NativeFunding) funding() {}
func (TokenFunding) funding()  {}

// Swap is a single escrow record. Once Status leaves StatusActive the record
// is immutable; it is never deleted.
type Swap struct {
	ID         uint64
	Maker      common.Address
	Taker      *common.Address
	Funding    Funding
	SecretHash common.Hash
	Deadline   time.Time
	Status     Status
	CreatedAt  time.Time
}

// Open reports whether any address may claim the swap with the right secret.
func (s *Swap) Open() bool { return s.Taker == nil }

// CreateParams carries a creation request as it arrives off the wire, before
// the funding variant has been resolved.
type CreateParams struct {
	Maker         common.Address
	Taker         *common.Address
	SecretHash    []byte
	TimelockHours uint64

	// Native path: value attached to the request.
	Amount *big.Int

	// Token path: set TokenContract to select it.
	TokenContract *common.Address
	TokenID       *big.Int
	TokenAmount   *big.Int
}

// ContractState is the persistent configuration and fee pool of the escrow
// contract instance.
type ContractState struct {
	Admin         common.Address
	FeeBps        uint64
	Paused        bool
	NextSwapID    uint64
	CollectedFees *big.Int
}
