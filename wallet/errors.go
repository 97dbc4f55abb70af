package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrMetadataNotFound    = errors.New("metadata not found")
	ErrWalletAlreadyExists = errors.New("wallet already exists")
	ErrMsgAlreadyQueued    = errors.New("message already queued")
	ErrMsgNotQueued        = errors.New("message not queued")
	ErrDuplicateApproval   = errors.New("message already approved by signer")
	ErrNotSigner           = errors.New("caller is not a signer of the wallet")
	ErrThresholdInvalid    = errors.New("threshold does not match signers")
	ErrCannotSign          = errors.New("message cannot be signed")
	ErrSignInFlight        = errors.New("message signing already in progress")
	ErrInvalidMessage      = errors.New("invalid message")
	ErrInvalidIdentity     = errors.New("invalid identity")
	ErrExternalFailure     = errors.New("external call failed")
)

// ExternalError wraps an error reported by the signing or transfer capability
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func (e *ExternalError) Is(target error) bool {
	return target == ErrExternalFailure
}

// ErrorCode returns the caller-facing spelling of err
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWalletNotFound):
		return "WalletNotFound"
	case errors.Is(err, ErrWalletAlreadyExists):
		return "WalletAlreadyExists"
	case errors.Is(err, ErrMsgAlreadyQueued):
		return "WalletMsgAlreadyQueued"
	case errors.Is(err, ErrMsgNotQueued):
		return "WalletMsgNotQueued"
	case errors.Is(err, ErrDuplicateApproval), errors.Is(err, ErrNotSigner):
		return "WalletInvalidSignature"
	case errors.Is(err, ErrCannotSign):
		return "WalletCannotSign"
	case errors.Is(err, ErrSignInFlight):
		return "WalletSignInFlight"
	case errors.Is(err, ErrThresholdInvalid):
		return "WalletSignersNotMatchThreshold"
	case errors.Is(err, ErrMetadataNotFound):
		return "MetadataNotFound"
	case errors.Is(err, ErrInvalidMessage):
		return "InvalidMessage"
	case errors.Is(err, ErrInvalidIdentity):
		return "InvalidIdentity"
	case errors.Is(err, ErrExternalFailure):
		return "ExternalFailure"
	default:
		return "UnknownError"
	}
}
