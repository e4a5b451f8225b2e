package handlers

import (
	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/htlc"
)

// GetSwap loads one escrow record.
func GetSwap(cfg *types.CoreConfig, req types.RequestGetSwap) (types.SwapResponse, error) {
	swap, err := cfg.Engine.Swap(req.SwapID)
	if err != nil {
		return types.SwapResponse{}, err
	}
	return toSwapResponse(swap), nil
}

// BalanceOf reads the account book.
func BalanceOf(cfg *types.CoreConfig, req types.RequestBalance) (types.BalanceResponse, error) {
	account, err := parseAddress(req.Account)
	if err != nil {
		return types.BalanceResponse{}, err
	}
	balance, err := cfg.Engine.Balance(account)
	if err != nil {
		return types.BalanceResponse{}, err
	}
	return types.BalanceResponse{Account: account.Hex(), Balance: balance.String()}, nil
}

func toSwapResponse(swap *htlc.Swap) types.SwapResponse {
	resp := types.SwapResponse{
		SwapID:     swap.ID,
		Maker:      swap.Maker.Hex(),
		SecretHash: swap.SecretHash.Hex(),
		Deadline:   swap.Deadline.Unix(),
		Status:     swap.Status.String(),
		CreatedAt:  swap.CreatedAt.Unix(),
	}
	if swap.Taker != nil {
		resp.Taker = swap.Taker.Hex()
	}
	switch funding := swap.Funding.(type) {
	case htlc.NativeFunding:
		resp.Amount = funding.Amount.String()
	case htlc.TokenFunding:
		resp.TokenAddress = funding.Contract.Hex()
		resp.TokenID = funding.TokenID.String()
		resp.TokenAmount = funding.Amount.String()
	}
	return resp
}
