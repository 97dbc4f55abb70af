package requests

type WalletIdForm struct {
	WalletID string `query:"walletID" json:"wallet_id" validate:"attr=wallet_id,min=1"`
}

type PrincipalForm struct {
	Principal string `query:"principal" json:"principal" validate:"attr=principal,min=64"`
}

type CreateWalletForm struct {
	WalletID  string   `json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Signers   []string `json:"signers"`
	Threshold int      `json:"threshold"`
}

type WalletMessageForm struct {
	WalletID string `query:"walletID" json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Message  string `query:"message" json:"message"`
}

type CallerMessageForm struct {
	Caller   string `query:"caller" json:"caller" validate:"attr=caller,min=64"`
	WalletID string `query:"walletID" json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Message  string `query:"message" json:"message"`
}

type MessageMetadataForm struct {
	Caller   string `json:"caller" validate:"attr=caller,min=64"`
	WalletID string `json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Message  string `json:"message"`
	Metadata string `json:"metadata"`
}

type VerifySignatureForm struct {
	WalletID  string `json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type SignerForm struct {
	Caller   string `json:"caller" validate:"attr=caller,min=64"`
	WalletID string `json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Signer   string `json:"signer" validate:"attr=signer,min=64"`
}

type ThresholdForm struct {
	Caller    string `json:"caller" validate:"attr=caller,min=64"`
	WalletID  string `json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Threshold int    `json:"threshold"`
}

type TransferForm struct {
	Caller       string `json:"caller" validate:"attr=caller,min=64"`
	WalletID     string `json:"wallet_id" validate:"attr=wallet_id,min=1"`
	Amount       string `json:"amount" validate:"attr=amount,min=1"`
	To           string `json:"to" validate:"attr=to,min=64"`
	ToSubaccount string `json:"to_subaccount"`
}

type JournalOffsetForm struct {
	WalletID string `query:"walletID" json:"wallet_id"`
	Offset   uint64 `query:"offset" json:"offset"`
}
