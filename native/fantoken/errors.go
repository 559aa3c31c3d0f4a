package fantoken

import "errors"

var (
	ErrNilState                 = errors.New("fantoken: state not configured")
	ErrUnauthorized             = errors.New("fantoken: unauthorized signer")
	ErrMintExists               = errors.New("fantoken: mint already exists")
	ErrMintNotFound             = errors.New("fantoken: mint not found")
	ErrAccountNotFound          = errors.New("fantoken: token account not found")
	ErrInvalidAmount            = errors.New("fantoken: amount must be positive")
	ErrInvalidDecimals          = errors.New("fantoken: decimals must be zero")
	ErrInvalidMetadata          = errors.New("fantoken: invalid mint metadata")
	ErrInsufficientFunds        = errors.New("fantoken: insufficient balance")
	ErrInsufficientTokenBalance = errors.New("fantoken: insufficient token balance")
	ErrTransferNotAllowed       = errors.New("fantoken: tokens are non-transferable")
	ErrRewardExists             = errors.New("fantoken: reward already exists")
	ErrRewardNotFound           = errors.New("fantoken: reward not found")
	ErrRewardAlreadyRemoved     = errors.New("fantoken: reward already removed")
	ErrRewardInactive           = errors.New("fantoken: reward is not active")
	ErrNotCustomer              = errors.New("fantoken: buyer is not a customer of this artist")
	ErrRewardAuthorityNotSet    = errors.New("fantoken: reward authority not configured")
)
