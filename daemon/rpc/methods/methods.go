package methods

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swaplock/htlcd/daemon/rpc/handlers"
	"github.com/swaplock/htlcd/daemon/types"
)

// Method is one JSON-RPC entry point. sender is the wallet address recovered
// from the caller's session token.
type Method interface {
	Name() string
	Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error)
}

type createSwap struct{}

func CreateSwap() Method { return &createSwap{} }

func (createSwap) Name() string { return "createSwap" }

func (createSwap) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestCreate
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	resp, err := handlers.Create(cfg, sender, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

type claimSwap struct{}

func ClaimSwap() Method { return &claimSwap{} }

func (claimSwap) Name() string { return "claimSwap" }

func (claimSwap) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestClaim
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	resp, err := handlers.Claim(cfg, sender, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

type refundSwap struct{}

func RefundSwap() Method { return &refundSwap{} }

func (refundSwap) Name() string { return "refundSwap" }

func (refundSwap) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestRefund
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	resp, err := handlers.Refund(cfg, sender, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

type getSwap struct{}

func GetSwap() Method { return &getSwap{} }

func (getSwap) Name() string { return "getSwap" }

func (getSwap) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestGetSwap
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	resp, err := handlers.GetSwap(cfg, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

type getNextSwapID struct{}

func GetNextSwapID() Method { return &getNextSwapID{} }

func (getNextSwapID) Name() string { return "getNextSwapId" }

func (getNextSwapID) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	id, err := cfg.Engine.NextSwapID()
	if err != nil {
		return nil, err
	}
	return json.Marshal(id)
}

type getCollectedFees struct{}

func GetCollectedFees() Method { return &getCollectedFees{} }

func (getCollectedFees) Name() string { return "getCollectedFees" }

func (getCollectedFees) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	fees, err := cfg.Engine.CollectedFees()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fees.String())
}

type isPaused struct{}

func IsPaused() Method { return &isPaused{} }

func (isPaused) Name() string { return "isPaused" }

func (isPaused) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	paused, err := cfg.Engine.Paused()
	if err != nil {
		return nil, err
	}
	return json.Marshal(paused)
}

type setAdmin struct{}

func SetAdmin() Method { return &setAdmin{} }

func (setAdmin) Name() string { return "setAdmin" }

func (setAdmin) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestSetAdmin
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	if err := handlers.SetAdmin(cfg, sender, req); err != nil {
		return nil, err
	}
	return json.Marshal(true)
}

type setFeePercentage struct{}

func SetFeePercentage() Method { return &setFeePercentage{} }

func (setFeePercentage) Name() string { return "setFeePercentage" }

func (setFeePercentage) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestSetFee
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	if err := cfg.Engine.SetFeeBps(sender, req.FeeBps); err != nil {
		return nil, err
	}
	return json.Marshal(true)
}

type pause struct{}

func Pause() Method { return &pause{} }

func (pause) Name() string { return "pause" }

func (pause) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	if err := cfg.Engine.Pause(sender); err != nil {
		return nil, err
	}
	return json.Marshal(true)
}

type unpause struct{}

func Unpause() Method { return &unpause{} }

func (unpause) Name() string { return "unpause" }

func (unpause) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	if err := cfg.Engine.Unpause(sender); err != nil {
		return nil, err
	}
	return json.Marshal(true)
}

type withdrawFees struct{}

func WithdrawFees() Method { return &withdrawFees{} }

func (withdrawFees) Name() string { return "withdrawFees" }

func (withdrawFees) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestWithdrawFees
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	resp, err := handlers.WithdrawFees(cfg, sender, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

type deposit struct{}

func Deposit() Method { return &deposit{} }

func (deposit) Name() string { return "deposit" }

func (deposit) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestDeposit
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	if err := handlers.Deposit(cfg, sender, req); err != nil {
		return nil, err
	}
	return json.Marshal(true)
}

type balanceOf struct{}

func BalanceOf() Method { return &balanceOf{} }

func (balanceOf) Name() string { return "balanceOf" }

func (balanceOf) Query(cfg *types.CoreConfig, sender common.Address, params json.RawMessage) (json.RawMessage, error) {
	var req types.RequestBalance
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	resp, err := handlers.BalanceOf(cfg, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}
