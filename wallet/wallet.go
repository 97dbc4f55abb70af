package wallet

import (
	"fmt"
	"time"
)

// Wallet is a signer set with its approval threshold, pending proposals and their metadata
type Wallet struct {
	id        string
	signers   map[Identity]struct{}
	threshold int
	messages  *messageLedger
	metadata  metadataStore
}

// WalletView is a detached snapshot of a wallet for callers
type WalletView struct {
	ID        string     `json:"id"`
	Signers   []Identity `json:"signers"`
	Threshold int        `json:"threshold"`
	Pending   int        `json:"pending"`
}

func newWallet(id string, signers []Identity, threshold int) (*Wallet, error) {
	w := &Wallet{
		id:       id,
		signers:  make(map[Identity]struct{}, len(signers)),
		messages: newMessageLedger(),
		metadata: make(metadataStore),
	}
	for _, signer := range signers {
		w.signers[signer] = struct{}{}
	}

	if err := w.setThreshold(threshold); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Wallet) isSigner(id Identity) bool {
	_, ok := w.signers[id]
	return ok
}

func (w *Wallet) addSigner(id Identity) {
	w.signers[id] = struct{}{}
}

// removeSigner keeps the threshold as is, even above the remaining signer count
func (w *Wallet) removeSigner(id Identity) {
	delete(w.signers, id)
}

func (w *Wallet) setThreshold(threshold int) error {
	if threshold < 1 || threshold > len(w.signers) {
		return fmt.Errorf("%w: threshold %d, signers %d", ErrThresholdInvalid, threshold, len(w.signers))
	}
	w.threshold = threshold
	return nil
}

func (w *Wallet) signerList() []Identity {
	out := make([]Identity, 0, len(w.signers))
	for signer := range w.signers {
		out = append(out, signer)
	}
	sortIdentities(out)
	return out
}

func (w *Wallet) view() WalletView {
	return WalletView{
		ID:        w.id,
		Signers:   w.signerList(),
		Threshold: w.threshold,
		Pending:   w.messages.size(),
	}
}

func (w *Wallet) retire(msg []byte, signer Identity, at time.Time) error {
	w.metadata.drop(msg)
	return w.messages.retire(msg, signer, at)
}
