package handlers

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/swaplock/htlcd/daemon/types"
)

// Claim resolves a swap in the sender's favour with the disclosed secret. A
// successful claim also publishes the preimage to the secret store so the
// counterparty side can pick it up.
func Claim(cfg *types.CoreConfig, sender common.Address, req types.RequestClaim) (types.SwapResponse, error) {
	secret, err := hex.DecodeString(strings.TrimPrefix(req.Secret, "0x"))
	if err != nil {
		return types.SwapResponse{}, fmt.Errorf("malformed secret: %w", err)
	}

	swap, err := cfg.Engine.Claim(context.Background(), sender, req.SwapID, secret)
	if err != nil {
		return types.SwapResponse{}, err
	}

	if cfg.Secrets != nil {
		if err := cfg.Secrets.PutSecret(swap.SecretHash.Bytes(), secret); err != nil {
			// The claim already settled; losing the propagation copy is
			// not a reason to report failure.
			cfg.Logger.Warn("failed to publish revealed secret",
				zap.Uint64("id", swap.ID), zap.Error(err))
		}
	}
	return toSwapResponse(swap), nil
}

// Refund returns an expired swap's funds to its maker.
func Refund(cfg *types.CoreConfig, sender common.Address, req types.RequestRefund) (types.SwapResponse, error) {
	swap, err := cfg.Engine.Refund(context.Background(), sender, req.SwapID)
	if err != nil {
		return types.SwapResponse{}, err
	}
	return toSwapResponse(swap), nil
}
