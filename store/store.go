package store

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/swaplock/htlcd/htlc"
)

const stateRowID = 1

// swapRow is the persisted form of a swap. Rows are append-only apart from
// the status column.
type swapRow struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement:false"`
	Maker        string `gorm:"size:42;not null;index"`
	Taker        string `gorm:"size:42"`
	Amount       string `gorm:"not null"`
	TokenAddress string `gorm:"size:42"`
	TokenID      string
	TokenAmount  string
	SecretHash   string `gorm:"size:66;not null;index"`
	Deadline     time.Time
	Status       uint8 `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// stateRow is the single contract-state record: configuration, fee pool and
// the swap ID allocator.
type stateRow struct {
	ID            uint8 `gorm:"primaryKey"`
	Admin         string
	FeeBps        uint64
	Paused        bool
	NextSwapID    uint64
	CollectedFees string
	UpdatedAt     time.Time
}

// accountRow is one native-currency account book entry.
type accountRow struct {
	Address   string `gorm:"primaryKey;size:42"`
	Balance   string `gorm:"not null"`
	UpdatedAt time.Time
}

// Store implements htlc.Ledger over gorm. The same value works both as the
// root handle and as the transactional view handed to Atomic callbacks.
type Store struct {
	db *gorm.DB
}

var _ htlc.Ledger = (*Store)(nil)

// NewStore opens the database, migrates the schema and seeds the contract
// state row on first run. The default fee rate is 10 basis points, matching
// the deployed contract.
func NewStore(dialector gorm.Dialector, admin common.Address, opts ...gorm.Option) (*Store, error) {
	db, err := gorm.Open(dialector, opts...)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&swapRow{}, &stateRow{}, &accountRow{}); err != nil {
		return nil, err
	}

	seed := stateRow{
		ID:            stateRowID,
		Admin:         strings.ToLower(admin.Hex()),
		FeeBps:        10,
		Paused:        false,
		NextSwapID:    1,
		CollectedFees: "0",
	}
	if tx := db.Where(stateRow{ID: stateRowID}).Attrs(seed).FirstOrCreate(&stateRow{}); tx.Error != nil {
		return nil, tx.Error
	}
	return &Store{db: db}, nil
}

// Atomic runs fn inside one database transaction.
func (s *Store) Atomic(fn func(htlc.Ledger) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// CreateSwap inserts swap under the next allocator value and advances the
// allocator. The primary key insert can never overwrite an existing row.
func (s *Store) CreateSwap(swap *htlc.Swap) (uint64, error) {
	var state stateRow
	if tx := s.db.First(&state, stateRowID); tx.Error != nil {
		return 0, tx.Error
	}

	id := state.NextSwapID
	row, err := toRow(id, swap)
	if err != nil {
		return 0, err
	}
	if tx := s.db.Create(row); tx.Error != nil {
		return 0, tx.Error
	}

	state.NextSwapID = id + 1
	if tx := s.db.Save(&state); tx.Error != nil {
		return 0, tx.Error
	}
	return id, nil
}

// Swap loads an escrow record by ID.
func (s *Store) Swap(id uint64) (*htlc.Swap, error) {
	var row swapRow
	if tx := s.db.First(&row, id); tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, htlc.ErrSwapNotFound
		}
		return nil, tx.Error
	}
	return fromRow(&row)
}

// Swaps lists all escrow records in allocation order.
func (s *Store) Swaps() ([]*htlc.Swap, error) {
	var rows []swapRow
	if tx := s.db.Order("id asc").Find(&rows); tx.Error != nil {
		return nil, tx.Error
	}
	swaps := make([]*htlc.Swap, 0, len(rows))
	for i := range rows {
		swap, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, swap)
	}
	return swaps, nil
}

// SetSwapStatus flips an Active swap to a terminal status. The conditional
// update is what enforces at-most-one resolution: the second resolver finds
// no Active row to update.
func (s *Store) SetSwapStatus(id uint64, status htlc.Status) error {
	tx := s.db.Model(&swapRow{}).
		Where("id = ? AND status = ?", id, uint8(htlc.StatusActive)).
		Update("status", uint8(status))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		var row swapRow
		if err := s.db.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return htlc.ErrSwapNotFound
			}
			return err
		}
		return htlc.ErrSwapNotActive
	}
	return nil
}

// State loads the contract state row.
func (s *Store) State() (*htlc.ContractState, error) {
	var row stateRow
	if tx := s.db.First(&row, stateRowID); tx.Error != nil {
		return nil, tx.Error
	}
	fees, err := parseAmount(row.CollectedFees)
	if err != nil {
		return nil, fmt.Errorf("corrupt fee pool value %q: %w", row.CollectedFees, err)
	}
	return &htlc.ContractState{
		Admin:         common.HexToAddress(row.Admin),
		FeeBps:        row.FeeBps,
		Paused:        row.Paused,
		NextSwapID:    row.NextSwapID,
		CollectedFees: fees,
	}, nil
}

// PutState writes configuration and fee pool back. The allocator column is
// owned by CreateSwap and deliberately not written here.
func (s *Store) PutState(state *htlc.ContractState) error {
	return s.db.Model(&stateRow{ID: stateRowID}).Updates(map[string]interface{}{
		"admin":          strings.ToLower(state.Admin.Hex()),
		"fee_bps":        state.FeeBps,
		"paused":         state.Paused,
		"collected_fees": state.CollectedFees.String(),
	}).Error
}

// Credit adds amount to an account, creating it on first use.
func (s *Store) Credit(addr common.Address, amount *big.Int) error {
	key := strings.ToLower(addr.Hex())
	var row accountRow
	tx := s.db.Where(accountRow{Address: key}).Attrs(accountRow{Address: key, Balance: "0"}).FirstOrCreate(&row)
	if tx.Error != nil {
		return tx.Error
	}
	balance, err := parseAmount(row.Balance)
	if err != nil {
		return fmt.Errorf("corrupt balance for %s: %w", key, err)
	}
	balance.Add(balance, amount)
	return s.db.Model(&accountRow{Address: key}).Update("balance", balance.String()).Error
}

// Debit removes amount from an account, failing when the funds are not
// there.
func (s *Store) Debit(addr common.Address, amount *big.Int) error {
	key := strings.ToLower(addr.Hex())
	var row accountRow
	if tx := s.db.First(&row, "address = ?", key); tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return htlc.ErrInsufficientBalance
		}
		return tx.Error
	}
	balance, err := parseAmount(row.Balance)
	if err != nil {
		return fmt.Errorf("corrupt balance for %s: %w", key, err)
	}
	if balance.Cmp(amount) < 0 {
		return htlc.ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	return s.db.Model(&accountRow{Address: key}).Update("balance", balance.String()).Error
}

// Balance reads an account, treating unknown accounts as zero.
func (s *Store) Balance(addr common.Address) (*big.Int, error) {
	var row accountRow
	if tx := s.db.First(&row, "address = ?", strings.ToLower(addr.Hex())); tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, tx.Error
	}
	return parseAmount(row.Balance)
}

func toRow(id uint64, swap *htlc.Swap) (*swapRow, error) {
	row := &swapRow{
		ID:         id,
		Maker:      strings.ToLower(swap.Maker.Hex()),
		SecretHash: swap.SecretHash.Hex(),
		Deadline:   swap.Deadline,
		Status:     uint8(swap.Status),
		CreatedAt:  swap.CreatedAt,
	}
	if swap.Taker != nil {
		row.Taker = strings.ToLower(swap.Taker.Hex())
	}
	switch funding := swap.Funding.(type) {
	case htlc.NativeFunding:
		row.Amount = funding.Amount.String()
	case htlc.TokenFunding:
		row.Amount = "0"
		row.TokenAddress = strings.ToLower(funding.Contract.Hex())
		row.TokenID = funding.TokenID.String()
		row.TokenAmount = funding.Amount.String()
	default:
		return nil, fmt.Errorf("swap has no funding variant")
	}
	return row, nil
}

func fromRow(row *swapRow) (*htlc.Swap, error) {
	swap := &htlc.Swap{
		ID:         row.ID,
		Maker:      common.HexToAddress(row.Maker),
		SecretHash: common.HexToHash(row.SecretHash),
		Deadline:   row.Deadline,
		Status:     htlc.Status(row.Status),
		CreatedAt:  row.CreatedAt,
	}
	if row.Taker != "" {
		taker := common.HexToAddress(row.Taker)
		swap.Taker = &taker
	}
	if row.TokenAddress != "" {
		tokenID, err := parseAmount(row.TokenID)
		if err != nil {
			return nil, fmt.Errorf("corrupt token id on swap %d: %w", row.ID, err)
		}
		tokenAmount, err := parseAmount(row.TokenAmount)
		if err != nil {
			return nil, fmt.Errorf("corrupt token amount on swap %d: %w", row.ID, err)
		}
		swap.Funding = htlc.TokenFunding{
			Contract: common.HexToAddress(row.TokenAddress),
			TokenID:  tokenID,
			Amount:   tokenAmount,
		}
		return swap, nil
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount on swap %d: %w", row.ID, err)
	}
	swap.Funding = htlc.NativeFunding{Amount: amount}
	return swap, nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer")
	}
	return v, nil
}
