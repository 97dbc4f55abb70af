package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Identity is the canonical text of a caller: lowercase hex of its ed25519 public key
type Identity string

func ParseIdentity(s string) (Identity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidIdentity, s, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: %q: expected %d bytes, got %d", ErrInvalidIdentity, s, ed25519.PublicKeySize, len(raw))
	}
	return Identity(s), nil
}

func IdentityFromPubKey(pubKey ed25519.PublicKey) Identity {
	return Identity(hex.EncodeToString(pubKey))
}

func (i Identity) String() string {
	return string(i)
}

func (i Identity) PubKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(string(i))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, string(i))
	}
	return raw, nil
}

func sortIdentities(ids []Identity) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
