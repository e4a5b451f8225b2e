package handlers

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/swaplock/htlcd/daemon/types"
)

// SetAdmin hands the admin role over.
func SetAdmin(cfg *types.CoreConfig, sender common.Address, req types.RequestSetAdmin) error {
	admin, err := parseAddress(req.Admin)
	if err != nil {
		return err
	}
	return cfg.Engine.SetAdmin(sender, admin)
}

// WithdrawFees sweeps the fee pool to the requested recipient.
func WithdrawFees(cfg *types.CoreConfig, sender common.Address, req types.RequestWithdrawFees) (types.WithdrawFeesResponse, error) {
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return types.WithdrawFeesResponse{}, err
	}
	amount, err := cfg.Engine.WithdrawFees(sender, recipient)
	if err != nil {
		return types.WithdrawFeesResponse{}, err
	}
	return types.WithdrawFeesResponse{Amount: amount.String()}, nil
}

// Deposit credits an account in the native book. Admin-gated in the engine.
func Deposit(cfg *types.CoreConfig, sender common.Address, req types.RequestDeposit) error {
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	return cfg.Engine.Deposit(sender, account, amount)
}
