package storage

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
)

// Message is a journal entry: one successful wallet mutation, signed by the node that applied it
type Message struct {
	ID         string `json:"id"`
	WalletID   string `json:"wallet_id"`
	Event      string `json:"event"`
	Data       []byte `json:"data"`
	Signature  []byte `json:"signature"`
	SenderAddr string `json:"sender"`
	Offset     uint64 `json:"offset"`
}

// Bytes returns the signed part of the message
func (m *Message) Bytes() []byte {
	bz, _ := json.Marshal(struct {
		ID         string `json:"id"`
		WalletID   string `json:"wallet_id"`
		Event      string `json:"event"`
		Data       []byte `json:"data"`
		SenderAddr string `json:"sender"`
	}{
		ID:         m.ID,
		WalletID:   m.WalletID,
		Event:      m.Event,
		Data:       m.Data,
		SenderAddr: m.SenderAddr,
	})
	return bz
}

func (m *Message) Verify(pubKey ed25519.PublicKey) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key size %d", len(pubKey))
	}
	if !ed25519.Verify(pubKey, m.Bytes(), m.Signature) {
		return fmt.Errorf("invalid signature of message %s", m.ID)
	}
	return nil
}

type Storage interface {
	Send(messages ...Message) error
	GetMessages(offset uint64) ([]Message, error)
	Close() error
}

// WalletReader is implemented by storages that can read the entries of one wallet
type WalletReader interface {
	GetWalletMessages(walletID string, offset uint64) ([]Message, error)
}

// GetWalletMessages reads the entries of walletID from offset, filtering the
// whole journal when s cannot do it itself
func GetWalletMessages(s Storage, walletID string, offset uint64) ([]Message, error) {
	if r, ok := s.(WalletReader); ok {
		return r.GetWalletMessages(walletID, offset)
	}

	msgs, err := s.GetMessages(offset)
	if err != nil {
		return nil, err
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m.WalletID == walletID {
			out = append(out, m)
		}
	}
	return out, nil
}
