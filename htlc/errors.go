package htlc

// Error is a stable rejection code. The string form is what external tooling
// matches on, so the values below must never change once released.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrContractPaused          = Error("CONTRACT_PAUSED")
	ErrTimelockTooShort        = Error("TIMELOCK_TOO_SHORT")
	ErrTimelockTooLong         = Error("TIMELOCK_TOO_LONG")
	ErrInvalidSecretHashLength = Error("INVALID_SECRET_HASH_LENGTH")
	ErrAmountRequired          = Error("AMOUNT_REQUIRED")
	ErrTokenAmountRequired     = Error("TOKEN_AMOUNT_REQUIRED")
	ErrInvalidTokenAmount      = Error("INVALID_TOKEN_AMOUNT")
	ErrInvalidTokenContract    = Error("INVALID_TOKEN_CONTRACT")
	ErrConflictingFundingMode  = Error("CONFLICTING_FUNDING_MODE")
	ErrSwapNotFound            = Error("SWAP_NOT_FOUND")
	ErrSwapNotActive           = Error("SWAP_NOT_ACTIVE")
	ErrSwapExpired             = Error("SWAP_EXPIRED")
	ErrSwapNotExpired          = Error("SWAP_NOT_EXPIRED")
	ErrInvalidSecret           = Error("INVALID_SECRET")
	ErrUnauthorizedClaimer     = Error("UNAUTHORIZED_CLAIMER")
	ErrUnauthorizedRefunder    = Error("UNAUTHORIZED_REFUNDER")
	ErrAdminOnly               = Error("ADMIN_ONLY")
	ErrFeeTooHigh              = Error("FEE_TOO_HIGH")
	ErrNoFeesToWithdraw        = Error("NO_FEES_TO_WITHDRAW")
	ErrInsufficientBalance     = Error("INSUFFICIENT_BALANCE")
)
