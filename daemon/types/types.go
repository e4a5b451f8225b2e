package types

import (
	"go.uber.org/zap"

	"github.com/swaplock/htlcd/htlc"
	"github.com/swaplock/htlcd/store"
	"github.com/swaplock/htlcd/utils"
)

// SecretStore keeps preimages revealed by successful claims so counterparty
// tooling can fetch them and unlock the mirror contract.
type SecretStore interface {
	PutSecret(hash, secret []byte) error
	Secret(hash []byte) ([]byte, error)
}

// CoreConfig carries the daemon's shared collaborators into every RPC
// handler.
type CoreConfig struct {
	Engine    *htlc.Engine
	Storage   *store.Store
	Secrets   SecretStore
	EnvConfig utils.Config
	Logger    *zap.Logger
}

type RequestCreate struct {
	Taker         string `json:"taker,omitempty"`
	SecretHash    string `json:"secretHash" binding:"required"`
	TimelockHours uint64 `json:"timelockHours" binding:"required"`

	// Native path: attached value as a decimal string.
	Amount string `json:"amount,omitempty"`

	// Token path: selected by a non-empty tokenAddress.
	TokenAddress string `json:"tokenAddress,omitempty"`
	TokenID      string `json:"tokenId,omitempty"`
	TokenAmount  string `json:"tokenAmount,omitempty"`
}

type RequestClaim struct {
	SwapID uint64 `json:"swapId" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

type RequestRefund struct {
	SwapID uint64 `json:"swapId" binding:"required"`
}

type RequestGetSwap struct {
	SwapID uint64 `json:"swapId" binding:"required"`
}

type RequestSetAdmin struct {
	Admin string `json:"admin" binding:"required"`
}

type RequestSetFee struct {
	FeeBps uint64 `json:"feeBps"`
}

type RequestWithdrawFees struct {
	Recipient string `json:"recipient" binding:"required"`
}

type RequestDeposit struct {
	Account string `json:"account" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

type RequestBalance struct {
	Account string `json:"account" binding:"required"`
}

// SwapResponse is the wire form of an escrow record.
type SwapResponse struct {
	SwapID       uint64 `json:"swapId"`
	Maker        string `json:"maker"`
	Taker        string `json:"taker,omitempty"`
	Amount       string `json:"amount,omitempty"`
	TokenAddress string `json:"tokenAddress,omitempty"`
	TokenID      string `json:"tokenId,omitempty"`
	TokenAmount  string `json:"tokenAmount,omitempty"`
	SecretHash   string `json:"secretHash"`
	Deadline     int64  `json:"deadline"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"createdAt"`
}

type CreateResponse struct {
	SwapID uint64 `json:"swapId"`
}

type WithdrawFeesResponse struct {
	Amount string `json:"amount"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}
