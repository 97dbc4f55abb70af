package dto

// This packages contains DTO (Data Transfer Object) structures
// for providing validated and sanitized values to service layer.
// Messages are hex encoded, callers are identities in their text form.

type WalletIdDTO struct {
	WalletID string
}

type PrincipalDTO struct {
	Principal string
}

type CreateWalletDTO struct {
	WalletID  string
	Signers   []string
	Threshold int
}

type WalletMessageDTO struct {
	WalletID string
	Message  string
}

type CallerMessageDTO struct {
	Caller   string
	WalletID string
	Message  string
}

type MessageMetadataDTO struct {
	Caller   string
	WalletID string
	Message  string
	Metadata string
}

type VerifySignatureDTO struct {
	WalletID  string
	Message   string
	Signature string
}

type SignerDTO struct {
	Caller   string
	WalletID string
	Signer   string
}

type ThresholdDTO struct {
	Caller    string
	WalletID  string
	Threshold int
}

type TransferDTO struct {
	Caller       string
	WalletID     string
	Amount       string
	To           string
	ToSubaccount string
}

type JournalOffsetDTO struct {
	WalletID string
	Offset   uint64
}
