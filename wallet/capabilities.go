package wallet

import "context"

// KeyID names the signing key of the external signer
type KeyID string

func (k KeyID) String() string {
	return string(k)
}

type Signer interface {
	Sign(ctx context.Context, walletID string, message []byte, keyID KeyID) ([]byte, error)
}

type Verifier interface {
	Verify(ctx context.Context, walletID string, message, signature []byte, keyID KeyID) (bool, error)
}

type TransferArgs struct {
	From         string
	Amount       Tokens
	To           Identity
	ToSubaccount *Subaccount
}

type Receipt struct {
	BlockIndex uint64 `json:"block_index"`
}

type Transferer interface {
	Transfer(ctx context.Context, args TransferArgs) (Receipt, error)
}
