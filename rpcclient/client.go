package rpcclient

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spruceid/siwe-go"

	jsonrpc "github.com/swaplock/htlcd/daemon/rpc"
	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/utils"
)

// Client talks to the escrow daemon. Callers authenticate with their wallet
// key: Login runs the SIWE handshake and the resulting session token rides on
// every request.
type Client interface {
	Login() error

	CreateSwap(req types.RequestCreate) (types.CreateResponse, error)
	ClaimSwap(req types.RequestClaim) (types.SwapResponse, error)
	RefundSwap(req types.RequestRefund) (types.SwapResponse, error)
	GetSwap(req types.RequestGetSwap) (types.SwapResponse, error)
	GetNextSwapID() (uint64, error)
	GetCollectedFees() (string, error)
	IsPaused() (bool, error)

	SetAdmin(req types.RequestSetAdmin) error
	SetFeePercentage(req types.RequestSetFee) error
	Pause() error
	Unpause() error
	WithdrawFees(req types.RequestWithdrawFees) (types.WithdrawFeesResponse, error)
	Deposit(req types.RequestDeposit) error
	BalanceOf(req types.RequestBalance) (types.BalanceResponse, error)
}

type client struct {
	key      *ecdsa.PrivateKey
	endpoint string
	token    string
}

// NewClient builds a client for the daemon at endpoint, e.g.
// "http://localhost:8299".
func NewClient(key *ecdsa.PrivateKey, endpoint string) Client {
	return &client{key: key, endpoint: endpoint}
}

// Login fetches a nonce, signs a SIWE message over it and exchanges the
// signature for a session token.
func (c *client) Login() error {
	resp, err := http.Get(fmt.Sprintf("%s/nonce", c.endpoint))
	if err != nil {
		return fmt.Errorf("fetch nonce: %w", err)
	}
	defer resp.Body.Close()
	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&nonceResp); err != nil {
		return fmt.Errorf("decode nonce: %w", err)
	}

	parsed, err := url.Parse(c.endpoint)
	if err != nil {
		return err
	}
	addr := crypto.PubkeyToAddress(c.key.PublicKey)
	message, err := siwe.InitMessage(parsed.Hostname(), addr.Hex(), c.endpoint, nonceResp.Nonce, map[string]interface{}{
		"statement": "Sign in to the escrow daemon",
		"chainId":   1,
	})
	if err != nil {
		return fmt.Errorf("build siwe message: %w", err)
	}

	digest := utils.EIP191Hash(message.String())
	signature, err := crypto.Sign(digest.Bytes(), c.key)
	if err != nil {
		return fmt.Errorf("sign siwe message: %w", err)
	}
	signature[64] += 27

	body, err := json.Marshal(jsonrpc.VerifyRequest{
		Message:   message.String(),
		Signature: hexutil.Encode(signature),
	})
	if err != nil {
		return err
	}
	verifyResp, err := http.Post(fmt.Sprintf("%s/verify", c.endpoint), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	defer verifyResp.Body.Close()
	if verifyResp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(verifyResp.Body)
		return fmt.Errorf("login rejected: %s", data)
	}
	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(verifyResp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	c.token = tokenResp.Token
	return nil
}

// sendPostRequest submits one JSON-RPC call and unwraps the result or error.
func (c *client) sendPostRequest(method string, params interface{}) (json.RawMessage, error) {
	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		rawParams = data
	}

	payload := jsonrpc.Request{
		Version: "2.0",
		ID:      1,
		Method:  method,
		Params:  rawParams,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.token)

	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	var resp jsonrpc.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("malformed response %s: %w", data, err)
	}
	if resp.Error != nil {
		if resp.Error.Data != "" {
			return nil, fmt.Errorf("%s", resp.Error.Data)
		}
		return nil, fmt.Errorf("%s", resp.Error.Message)
	}
	return resp.Result, nil
}

func (c *client) CreateSwap(req types.RequestCreate) (types.CreateResponse, error) {
	var resp types.CreateResponse
	return resp, c.call("createSwap", req, &resp)
}

func (c *client) ClaimSwap(req types.RequestClaim) (types.SwapResponse, error) {
	var resp types.SwapResponse
	return resp, c.call("claimSwap", req, &resp)
}

func (c *client) RefundSwap(req types.RequestRefund) (types.SwapResponse, error) {
	var resp types.SwapResponse
	return resp, c.call("refundSwap", req, &resp)
}

func (c *client) GetSwap(req types.RequestGetSwap) (types.SwapResponse, error) {
	var resp types.SwapResponse
	return resp, c.call("getSwap", req, &resp)
}

func (c *client) GetNextSwapID() (uint64, error) {
	var id uint64
	return id, c.call("getNextSwapId", nil, &id)
}

func (c *client) GetCollectedFees() (string, error) {
	var fees string
	return fees, c.call("getCollectedFees", nil, &fees)
}

func (c *client) IsPaused() (bool, error) {
	var paused bool
	return paused, c.call("isPaused", nil, &paused)
}

func (c *client) SetAdmin(req types.RequestSetAdmin) error {
	return c.call("setAdmin", req, nil)
}

func (c *client) SetFeePercentage(req types.RequestSetFee) error {
	return c.call("setFeePercentage", req, nil)
}

func (c *client) Pause() error {
	return c.call("pause", nil, nil)
}

func (c *client) Unpause() error {
	return c.call("unpause", nil, nil)
}

func (c *client) WithdrawFees(req types.RequestWithdrawFees) (types.WithdrawFeesResponse, error) {
	var resp types.WithdrawFeesResponse
	return resp, c.call("withdrawFees", req, &resp)
}

func (c *client) Deposit(req types.RequestDeposit) error {
	return c.call("deposit", req, nil)
}

func (c *client) BalanceOf(req types.RequestBalance) (types.BalanceResponse, error) {
	var resp types.BalanceResponse
	return resp, c.call("balanceOf", req, &resp)
}

func (c *client) call(method string, params interface{}, out interface{}) error {
	result, err := c.sendPostRequest(method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(result, out)
}
