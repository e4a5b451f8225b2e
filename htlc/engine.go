package htlc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const feeDenominator = 10_000

// Ledger is the durable state the engine runs over: the swap table with its
// ID allocator, the contract state row and the native-currency account book.
// Atomic must execute fn against a view whose writes all commit or all roll
// back together; every engine operation mutates state only inside one Atomic
// call, which is what makes "at most one resolution" hold without locking.
type Ledger interface {
	Atomic(fn func(Ledger) error) error

	CreateSwap(swap *Swap) (uint64, error)
	Swap(id uint64) (*Swap, error)
	// SetSwapStatus is the sole mutation path for a swap. It only succeeds
	// when the current status is StatusActive and returns ErrSwapNotActive
	// otherwise.
	SetSwapStatus(id uint64, status Status) error

	State() (*ContractState, error)
	PutState(state *ContractState) error

	Credit(addr common.Address, amount *big.Int) error
	Debit(addr common.Address, amount *big.Int) error
	Balance(addr common.Address) (*big.Int, error)
}

// TokenWallet moves token quantities between external owners and the escrow
// custodian. Implementations drive an external token contract and may fail
// independently of the ledger; the engine calls Transfer inside the same
// Atomic scope as the status transition so a failed transfer rolls the
// transition back.
type TokenWallet interface {
	Custodian() common.Address
	Transfer(ctx context.Context, token common.Address, from, to common.Address, tokenID, amount *big.Int) error
}

// Engine is the swap state machine. All entry points validate, transition and
// transfer within a single atomic unit per request.
type Engine struct {
	ledger Ledger
	tokens TokenWallet
	vault  common.Address
	nowFn  func() time.Time
	logger *zap.Logger
}

type EngineOption func(*Engine)

// WithTokenWallet enables the token funding path.
func WithTokenWallet(wallet TokenWallet) EngineOption {
	return func(e *Engine) { e.tokens = wallet }
}

// WithNowFunc overrides the engine's time source. Used by tests to pin the
// clock.
func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) { e.nowFn = now }
}

// NewEngine wires the state machine to its ledger. vault is the book account
// that holds escrowed native value and collected fees.
func NewEngine(ledger Ledger, vault common.Address, logger *zap.Logger, opts ...EngineOption) *Engine {
	engine := &Engine{
		ledger: ledger,
		vault:  vault,
		nowFn:  func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func (e *Engine) now() time.Time { return e.nowFn() }

// Create validates a creation request, captures the escrowed value and
// persists a new swap under the next allocator ID.
func (e *Engine) Create(ctx context.Context, params CreateParams) (*Swap, error) {
	if len(params.SecretHash) != SecretHashSize {
		return nil, ErrInvalidSecretHashLength
	}

	now := e.now()
	deadline, err := TimelockDeadline(now, params.TimelockHours)
	if err != nil {
		return nil, err
	}

	var created *Swap
	err = e.ledger.Atomic(func(tx Ledger) error {
		state, err := tx.State()
		if err != nil {
			return err
		}
		if state.Paused {
			return ErrContractPaused
		}

		swap := &Swap{
			Maker:      params.Maker,
			Taker:      params.Taker,
			SecretHash: common.BytesToHash(params.SecretHash),
			Deadline:   deadline,
			Status:     StatusActive,
			CreatedAt:  now,
		}

		if params.TokenContract != nil {
			funding, err := e.captureToken(ctx, tx, params)
			if err != nil {
				return err
			}
			swap.Funding = funding
		} else {
			funding, err := e.captureNative(tx, state, params)
			if err != nil {
				return err
			}
			swap.Funding = funding
		}

		id, err := tx.CreateSwap(swap)
		if err != nil {
			return err
		}
		swap.ID = id
		created = swap
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("swap created",
		zap.Uint64("id", created.ID),
		zap.String("maker", created.Maker.Hex()),
		zap.String("secretHash", created.SecretHash.Hex()),
		zap.Time("deadline", created.Deadline),
	)
	return created, nil
}

// captureNative moves the attached gross amount from the maker into the vault
// and books the fee into the pool. The recorded principal is net of the fee.
func (e *Engine) captureNative(tx Ledger, state *ContractState, params CreateParams) (Funding, error) {
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return nil, ErrAmountRequired
	}
	gross := new(big.Int).Set(params.Amount)

	fee := new(big.Int).Mul(gross, new(big.Int).SetUint64(state.FeeBps))
	fee.Div(fee, big.NewInt(feeDenominator))
	net := new(big.Int).Sub(gross, fee)

	if err := tx.Debit(params.Maker, gross); err != nil {
		return nil, err
	}
	if err := tx.Credit(e.vault, gross); err != nil {
		return nil, err
	}

	if fee.Sign() > 0 {
		state.CollectedFees = new(big.Int).Add(state.CollectedFees, fee)
		if err := tx.PutState(state); err != nil {
			return nil, err
		}
	}
	return NativeFunding{Amount: net}, nil
}

// captureToken pulls the token quantity from the maker into custody via the
// external contract. The maker must have approved the custodian beforehand.
func (e *Engine) captureToken(ctx context.Context, tx Ledger, params CreateParams) (Funding, error) {
	if params.Amount != nil && params.Amount.Sign() > 0 {
		return nil, ErrConflictingFundingMode
	}
	if params.TokenAmount == nil {
		return nil, ErrTokenAmountRequired
	}
	if params.TokenAmount.Sign() <= 0 {
		return nil, ErrInvalidTokenAmount
	}
	if params.TokenID == nil || params.TokenID.Sign() < 0 {
		return nil, ErrInvalidTokenAmount
	}
	if e.tokens == nil || *params.TokenContract == (common.Address{}) {
		return nil, ErrInvalidTokenContract
	}

	funding := TokenFunding{
		Contract: *params.TokenContract,
		TokenID:  new(big.Int).Set(params.TokenID),
		Amount:   new(big.Int).Set(params.TokenAmount),
	}
	if err := e.tokens.Transfer(ctx, funding.Contract, params.Maker, e.tokens.Custodian(), funding.TokenID, funding.Amount); err != nil {
		return nil, fmt.Errorf("token escrow transfer: %w", err)
	}
	return funding, nil
}

// Claim releases the escrowed value to sender in exchange for the secret.
func (e *Engine) Claim(ctx context.Context, sender common.Address, id uint64, secret []byte) (*Swap, error) {
	now := e.now()

	var claimed *Swap
	err := e.ledger.Atomic(func(tx Ledger) error {
		state, err := tx.State()
		if err != nil {
			return err
		}
		if state.Paused {
			return ErrContractPaused
		}

		swap, err := tx.Swap(id)
		if err != nil {
			return err
		}
		if swap.Status != StatusActive {
			return ErrSwapNotActive
		}
		if !Claimable(now, swap.Deadline) {
			return ErrSwapExpired
		}
		if !VerifySecret(secret, swap.SecretHash) {
			return ErrInvalidSecret
		}
		if swap.Taker != nil && sender != *swap.Taker {
			return ErrUnauthorizedClaimer
		}

		if err := tx.SetSwapStatus(id, StatusClaimed); err != nil {
			return err
		}
		if err := e.payOut(ctx, tx, swap, sender); err != nil {
			return err
		}
		swap.Status = StatusClaimed
		claimed = swap
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("swap claimed",
		zap.Uint64("id", id),
		zap.String("claimer", sender.Hex()),
	)
	return claimed, nil
}

// Refund returns the escrowed value to the maker once the deadline has
// passed. Refunds stay available while the contract is paused so makers can
// always recover expired funds.
func (e *Engine) Refund(ctx context.Context, sender common.Address, id uint64) (*Swap, error) {
	now := e.now()

	var refunded *Swap
	err := e.ledger.Atomic(func(tx Ledger) error {
		swap, err := tx.Swap(id)
		if err != nil {
			return err
		}
		if swap.Status != StatusActive {
			return ErrSwapNotActive
		}
		if !Refundable(now, swap.Deadline) {
			return ErrSwapNotExpired
		}
		if sender != swap.Maker {
			return ErrUnauthorizedRefunder
		}

		if err := tx.SetSwapStatus(id, StatusRefunded); err != nil {
			return err
		}
		if err := e.payOut(ctx, tx, swap, swap.Maker); err != nil {
			return err
		}
		swap.Status = StatusRefunded
		refunded = swap
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("swap refunded", zap.Uint64("id", id))
	return refunded, nil
}

// payOut moves the escrowed value to the resolving party. The exact amount
// recorded at creation goes out; the preceding status transition already
// guarantees this runs at most once per swap.
func (e *Engine) payOut(ctx context.Context, tx Ledger, swap *Swap, to common.Address) error {
	switch funding := swap.Funding.(type) {
	case NativeFunding:
		if err := tx.Debit(e.vault, funding.Amount); err != nil {
			return err
		}
		return tx.Credit(to, funding.Amount)
	case TokenFunding:
		if e.tokens == nil {
			return ErrInvalidTokenContract
		}
		if err := e.tokens.Transfer(ctx, funding.Contract, e.tokens.Custodian(), to, funding.TokenID, funding.Amount); err != nil {
			return fmt.Errorf("token release transfer: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("swap %d has no funding variant", swap.ID)
	}
}

// SetAdmin hands the admin role to a new address.
func (e *Engine) SetAdmin(sender, admin common.Address) error {
	return e.adminMutation(sender, func(state *ContractState) error {
		state.Admin = admin
		return nil
	})
}

// SetFeeBps changes the fee rate for swaps created from now on. Capped at
// 500 basis points.
func (e *Engine) SetFeeBps(sender common.Address, bps uint64) error {
	return e.adminMutation(sender, func(state *ContractState) error {
		if bps > 500 {
			return ErrFeeTooHigh
		}
		state.FeeBps = bps
		return nil
	})
}

// Pause stops creations and claims. Refunds are unaffected.
func (e *Engine) Pause(sender common.Address) error {
	return e.adminMutation(sender, func(state *ContractState) error {
		state.Paused = true
		return nil
	})
}

// Unpause lifts the pause flag.
func (e *Engine) Unpause(sender common.Address) error {
	return e.adminMutation(sender, func(state *ContractState) error {
		state.Paused = false
		return nil
	})
}

// WithdrawFees pays the whole fee pool to recipient and resets it.
func (e *Engine) WithdrawFees(sender, recipient common.Address) (*big.Int, error) {
	var withdrawn *big.Int
	err := e.ledger.Atomic(func(tx Ledger) error {
		state, err := tx.State()
		if err != nil {
			return err
		}
		if sender != state.Admin {
			return ErrAdminOnly
		}
		if state.CollectedFees.Sign() == 0 {
			return ErrNoFeesToWithdraw
		}

		amount := new(big.Int).Set(state.CollectedFees)
		if err := tx.Debit(e.vault, amount); err != nil {
			return err
		}
		if err := tx.Credit(recipient, amount); err != nil {
			return err
		}
		state.CollectedFees = new(big.Int)
		if err := tx.PutState(state); err != nil {
			return err
		}
		withdrawn = amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("fees withdrawn",
		zap.String("recipient", recipient.Hex()),
		zap.String("amount", withdrawn.String()),
	)
	return withdrawn, nil
}

// Deposit credits the account book. This is the custodian bridging native
// value in, so it is admin-gated like the other configuration surfaces.
func (e *Engine) Deposit(sender, account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountRequired
	}
	return e.ledger.Atomic(func(tx Ledger) error {
		state, err := tx.State()
		if err != nil {
			return err
		}
		if sender != state.Admin {
			return ErrAdminOnly
		}
		return tx.Credit(account, amount)
	})
}

func (e *Engine) adminMutation(sender common.Address, mutate func(*ContractState) error) error {
	return e.ledger.Atomic(func(tx Ledger) error {
		state, err := tx.State()
		if err != nil {
			return err
		}
		if sender != state.Admin {
			return ErrAdminOnly
		}
		if err := mutate(state); err != nil {
			return err
		}
		return tx.PutState(state)
	})
}

// Swap returns the escrow record for id.
func (e *Engine) Swap(id uint64) (*Swap, error) {
	return e.ledger.Swap(id)
}

// NextSwapID returns the allocator value the next creation will use.
func (e *Engine) NextSwapID() (uint64, error) {
	state, err := e.ledger.State()
	if err != nil {
		return 0, err
	}
	return state.NextSwapID, nil
}

// CollectedFees returns the current fee pool balance.
func (e *Engine) CollectedFees() (*big.Int, error) {
	state, err := e.ledger.State()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(state.CollectedFees), nil
}

// Paused reports the pause flag.
func (e *Engine) Paused() (bool, error) {
	state, err := e.ledger.State()
	if err != nil {
		return false, err
	}
	return state.Paused, nil
}

// Admin returns the current admin address.
func (e *Engine) Admin() (common.Address, error) {
	state, err := e.ledger.State()
	if err != nil {
		return common.Address{}, err
	}
	return state.Admin, nil
}

// Balance returns the account book balance for addr.
func (e *Engine) Balance(addr common.Address) (*big.Int, error) {
	return e.ledger.Balance(addr)
}
