// Package asset drives the external multi-token contract that backs token
// swaps. The escrow daemon acts as an approved operator: creation pulls the
// quantity from the maker into the custodian account and resolution pushes it
// back out, both through the contract's safeTransferFrom entry point.
package asset

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const transferABI = `[{"name":"safeTransferFrom","type":"function","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]}]`

const transferGasLimit = 200_000

// Client is the subset of the Ethereum RPC the wallet uses.
type Client interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ERC1155Wallet signs and submits token transfers on behalf of the escrow
// custodian.
type ERC1155Wallet struct {
	client  Client
	waiter  bind.DeployBackend
	key     *ecdsa.PrivateKey
	owner   common.Address
	chainID *big.Int
	abi     abi.ABI
	logger  *zap.Logger
}

// Dial connects to an Ethereum node and builds a wallet around the operator
// key. The key's address is the custodian account makers must approve.
func Dial(ctx context.Context, url string, key *ecdsa.PrivateKey, logger *zap.Logger) (*ERC1155Wallet, error) {
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial eth node: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	return NewERC1155Wallet(client, client, key, chainID, logger)
}

// NewERC1155Wallet builds a wallet over an existing client. waiter is used to
// block on inclusion; in production it is the same *ethclient.Client.
func NewERC1155Wallet(client Client, waiter bind.DeployBackend, key *ecdsa.PrivateKey, chainID *big.Int, logger *zap.Logger) (*ERC1155Wallet, error) {
	parsed, err := abi.JSON(strings.NewReader(transferABI))
	if err != nil {
		return nil, err
	}
	return &ERC1155Wallet{
		client:  client,
		waiter:  waiter,
		key:     key,
		owner:   crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		abi:     parsed,
		logger:  logger.With(zap.String("component", "erc1155")),
	}, nil
}

// Custodian returns the account that holds escrowed tokens.
func (w *ERC1155Wallet) Custodian() common.Address { return w.owner }

// Transfer moves amount of tokenID on the token contract and waits for the
// transaction to land. A reverted receipt is reported as an error so the
// caller can roll its own state back.
func (w *ERC1155Wallet) Transfer(ctx context.Context, token common.Address, from, to common.Address, tokenID, amount *big.Int) error {
	data, err := w.abi.Pack("safeTransferFrom", from, to, tokenID, amount, []byte{})
	if err != nil {
		return fmt.Errorf("pack transfer: %w", err)
	}

	nonce, err := w.client.PendingNonceAt(ctx, w.owner)
	if err != nil {
		return fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, token, new(big.Int), transferGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}
	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send transfer: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, w.waiter, signed)
	if err != nil {
		return fmt.Errorf("wait for transfer %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transfer %s reverted", signed.Hash().Hex())
	}

	w.logger.Debug("token transfer mined",
		zap.String("token", token.Hex()),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("tx", signed.Hash().Hex()),
	)
	return nil
}
