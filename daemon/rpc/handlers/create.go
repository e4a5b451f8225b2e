package handlers

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/htlc"
)

// Create validates the wire request and opens a new escrow on behalf of
// sender.
func Create(cfg *types.CoreConfig, sender common.Address, req types.RequestCreate) (types.CreateResponse, error) {
	params := htlc.CreateParams{
		Maker:         sender,
		TimelockHours: req.TimelockHours,
	}

	secretHash, err := hex.DecodeString(strings.TrimPrefix(req.SecretHash, "0x"))
	if err != nil {
		return types.CreateResponse{}, fmt.Errorf("malformed secret hash: %w", err)
	}
	params.SecretHash = secretHash

	if req.Taker != "" {
		taker, err := parseAddress(req.Taker)
		if err != nil {
			return types.CreateResponse{}, err
		}
		params.Taker = &taker
	}

	if req.Amount != "" {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return types.CreateResponse{}, err
		}
		params.Amount = amount
	}

	if req.TokenAddress != "" {
		token, err := parseAddress(req.TokenAddress)
		if err != nil {
			return types.CreateResponse{}, err
		}
		params.TokenContract = &token
		if req.TokenID != "" {
			tokenID, err := parseAmount(req.TokenID)
			if err != nil {
				return types.CreateResponse{}, err
			}
			params.TokenID = tokenID
		}
		if req.TokenAmount != "" {
			tokenAmount, err := parseAmount(req.TokenAmount)
			if err != nil {
				return types.CreateResponse{}, err
			}
			params.TokenAmount = tokenAmount
		}
	}

	swap, err := cfg.Engine.Create(context.Background(), params)
	if err != nil {
		return types.CreateResponse{}, err
	}
	return types.CreateResponse{SwapID: swap.ID}, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %v", s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %v", s)
	}
	return v, nil
}
