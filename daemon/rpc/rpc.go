package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spruceid/siwe-go"
	"go.uber.org/zap"

	"github.com/swaplock/htlcd/daemon/rpc/methods"
	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/htlc"
	"github.com/swaplock/htlcd/utils"
)

const sessionTTL = 24 * time.Hour

type RPC interface {
	AddCommand(cmd methods.Method)
	Run() error
}

type rpc struct {
	commands   map[string]methods.Method
	coreConfig types.CoreConfig
	jwtSecret  []byte
	domain     string
	logger     *zap.Logger
}

// Request defines a JSON-RPC 2.0 request object.
type Request struct {
	Version string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response defines a JSON-RPC 2.0 response object.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error defines a JSON-RPC 2.0 error object. For rejected escrow operations
// Data carries the stable failure code (e.g. SWAP_NOT_ACTIVE).
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Error codes
const (
	ErrorCodeParseError        = -32700
	ErrorMessageParseError     = "Parse error"
	ErrorCodeMethodNotFound    = -32601
	ErrorMessageMethodNotFound = "Method not found"
	ErrorCodeInternalError     = -32603
	ErrorMessageInternalError  = "Internal error"
	ErrorCodeRejected          = -32000
	ErrorMessageRejected       = "Operation rejected"
)

func NewResponse(id interface{}, result json.RawMessage, err *Error) Response {
	return Response{
		Version: "2.0",
		ID:      id,
		Result:  result,
		Error:   err,
	}
}

func NewError(code int, message string, data string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// VerifyRequest is the SIWE login payload.
type VerifyRequest struct {
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type sessionClaims struct {
	Wallet string `json:"wallet"`
	jwt.StandardClaims
}

func NewRpcServer(coreConfig types.CoreConfig) RPC {
	if coreConfig.EnvConfig.JWTSecret == "" {
		panic("JWT secret must be configured")
	}
	return &rpc{
		commands:   make(map[string]methods.Method),
		coreConfig: coreConfig,
		jwtSecret:  []byte(coreConfig.EnvConfig.JWTSecret),
		domain:     coreConfig.EnvConfig.SIWEDomain,
		logger:     coreConfig.Logger.With(zap.String("component", "rpc")),
	}
}

func (r *rpc) AddCommand(cmd methods.Method) {
	r.commands[cmd.Name()] = cmd
}

func (r *rpc) handleJSONRPC(ctx *gin.Context) {
	req := Request{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, NewResponse(req.ID, nil, NewError(ErrorCodeParseError, ErrorMessageParseError, err.Error())))
		return
	}

	cmd, ok := r.commands[req.Method]
	if !ok {
		ctx.JSON(http.StatusNotFound, NewResponse(req.ID, nil, NewError(ErrorCodeMethodNotFound, ErrorMessageMethodNotFound, "")))
		return
	}

	sender := common.HexToAddress(ctx.GetString("wallet"))
	result, err := cmd.Query(&r.coreConfig, sender, req.Params)
	if err != nil {
		var rejection htlc.Error
		if errors.As(err, &rejection) {
			ctx.JSON(http.StatusOK, NewResponse(req.ID, nil, NewError(ErrorCodeRejected, ErrorMessageRejected, string(rejection))))
			return
		}
		r.logger.Error("method failed", zap.String("method", req.Method), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, NewResponse(req.ID, nil, NewError(ErrorCodeInternalError, ErrorMessageInternalError, err.Error())))
		return
	}

	ctx.JSON(http.StatusOK, NewResponse(req.ID, result, nil))
}

// nonce hands out a fresh SIWE nonce for the login handshake.
func (r *rpc) nonce(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"nonce": siwe.GenerateNonce()})
}

// verify checks a signed SIWE message and mints a session token bound to the
// recovered wallet address.
func (r *rpc) verify(ctx *gin.Context) {
	req := VerifyRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := siwe.ParseMessage(req.Message)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("parse message: %v", err)})
		return
	}
	if valid, err := parsed.ValidNow(); err != nil || !valid {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "message expired"})
		return
	}
	if r.domain != "" && parsed.GetDomain() != r.domain {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "message domain mismatch"})
		return
	}

	sigBytes, err := hexutil.Decode(req.Signature)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	signer, err := utils.RecoverSigner(parsed.String(), sigBytes)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if signer != parsed.GetAddress() {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "signature does not match message address"})
		return
	}

	claims := sessionClaims{
		Wallet: strings.ToLower(signer.Hex()),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(sessionTTL).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.jwtSecret)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// authenticate resolves the session token to the sender wallet address.
func (r *rpc) authenticate(ctx *gin.Context) {
	tokenString := ctx.GetHeader("Authorization")
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
		return
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return r.jwtSecret, nil
	})
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
		return
	}
	wallet, ok := claims["wallet"].(string)
	if !ok || wallet == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
		return
	}
	ctx.Set("wallet", strings.ToLower(wallet))
	ctx.Next()
}

func (r *rpc) Run() error {
	r.AddCommand(methods.CreateSwap())
	r.AddCommand(methods.ClaimSwap())
	r.AddCommand(methods.RefundSwap())
	r.AddCommand(methods.GetSwap())
	r.AddCommand(methods.GetNextSwapID())
	r.AddCommand(methods.GetCollectedFees())
	r.AddCommand(methods.IsPaused())
	r.AddCommand(methods.SetAdmin())
	r.AddCommand(methods.SetFeePercentage())
	r.AddCommand(methods.Pause())
	r.AddCommand(methods.Unpause())
	r.AddCommand(methods.WithdrawFees())
	r.AddCommand(methods.Deposit())
	r.AddCommand(methods.BalanceOf())

	s := gin.Default()
	s.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	s.GET("/nonce", r.nonce)
	s.POST("/verify", r.verify)

	authRoutes := s.Group("/")
	authRoutes.Use(r.authenticate)
	authRoutes.POST("/", r.handleJSONRPC)

	return s.Run(r.coreConfig.EnvConfig.Listen)
}
