package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"lukechampine.com/frand"

	"github.com/q3xlabs/q3x/wallet"
)

const (
	EnvLocal      = "local"
	EnvTest       = "test"
	EnvProduction = "production"
)

var (
	_ wallet.Signer   = (*ECDSASigner)(nil)
	_ wallet.Verifier = (*ECDSASigner)(nil)
)

// KeyIDFromEnv maps a deployment environment to the signing key it uses
func KeyIDFromEnv(env string) (wallet.KeyID, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case EnvLocal:
		return "dfx_test_key", nil
	case EnvTest:
		return "test_key_1", nil
	case EnvProduction:
		return "key_1", nil
	default:
		return "", fmt.Errorf("unknown environment %q", env)
	}
}

// ECDSASigner signs with secp256k1 keys derived from a master seed,
// one key per (key id, wallet id) pair. Signatures are 64 bytes r||s over sha256(message).
type ECDSASigner struct {
	seed []byte

	mu   sync.Mutex
	keys map[string]*ecdsa.PrivateKey
}

func NewECDSASigner(seed []byte) (*ECDSASigner, error) {
	if len(seed) != seedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", seedSize, len(seed))
	}

	return &ECDSASigner{
		seed: append([]byte(nil), seed...),
		keys: make(map[string]*ecdsa.PrivateKey),
	}, nil
}

func (s *ECDSASigner) Sign(ctx context.Context, walletID string, message []byte, keyID wallet.KeyID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priv, err := s.key(walletID, keyID)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(message)
	sig, err := crypto.Sign(hash[:], priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	// drop the recovery id
	return sig[:64], nil
}

func (s *ECDSASigner) Verify(ctx context.Context, walletID string, message, signature []byte, keyID wallet.KeyID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if len(signature) != 64 {
		return false, nil
	}

	priv, err := s.key(walletID, keyID)
	if err != nil {
		return false, err
	}

	hash := sha256.Sum256(message)
	return crypto.VerifySignature(crypto.CompressPubkey(&priv.PublicKey), hash[:], signature), nil
}

// PublicKey returns the compressed public key of walletID
func (s *ECDSASigner) PublicKey(walletID string, keyID wallet.KeyID) ([]byte, error) {
	priv, err := s.key(walletID, keyID)
	if err != nil {
		return nil, err
	}
	return crypto.CompressPubkey(&priv.PublicKey), nil
}

func (s *ECDSASigner) key(walletID string, keyID wallet.KeyID) (*ecdsa.PrivateKey, error) {
	if keyID == "" {
		return nil, fmt.Errorf("key id cannot be empty")
	}

	cacheKey := keyID.String() + "/" + walletID

	s.mu.Lock()
	defer s.mu.Unlock()

	if priv, ok := s.keys[cacheKey]; ok {
		return priv, nil
	}

	mac := hmac.New(sha512.New, s.seed)
	mac.Write([]byte(keyID))
	mac.Write([]byte{0})
	mac.Write([]byte(walletID))
	derived := mac.Sum(nil)[:seedSize]

	// candidates outside [1, N) are skipped, the stream is deterministic
	rng := frand.NewCustom(derived, 32, 20)
	buf := make([]byte, 32)
	for i := 0; i < 64; i++ {
		rng.Read(buf)
		priv, err := crypto.ToECDSA(buf)
		if err != nil {
			continue
		}
		s.keys[cacheKey] = priv
		return priv, nil
	}

	return nil, fmt.Errorf("failed to derive key for wallet %q", walletID)
}
