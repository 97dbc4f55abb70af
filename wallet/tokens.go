package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	E8sPerToken = 100_000_000

	DefaultTransferFee Tokens = 10_000
)

var (
	e8sExp    = decimal.New(1, 8)
	maxTokens = new(big.Int).SetUint64(math.MaxUint64)
)

// Tokens is an amount in e8s, the smallest ledger unit
type Tokens uint64

// ParseTokens parses a decimal token amount, e.g. "1.5", into e8s
func ParseTokens(s string) (Tokens, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}

	e8s := d.Mul(e8sExp)
	if !e8s.Equal(e8s.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than 8 decimal places", s)
	}
	if e8s.GreaterThan(decimal.NewFromBigInt(maxTokens, 0)) {
		return 0, fmt.Errorf("amount %q overflows", s)
	}

	return Tokens(e8s.BigInt().Uint64()), nil
}

func (t Tokens) E8s() uint64 {
	return uint64(t)
}

// String formats the amount in tokens
func (t Tokens) String() string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t)), -8).String()
}

// Subaccount selects one of the accounts owned by an identity
type Subaccount [32]byte

func ParseSubaccount(s string) (*Subaccount, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode subaccount: %w", err)
	}
	if len(raw) != len(Subaccount{}) {
		return nil, fmt.Errorf("subaccount must be %d bytes, got %d", len(Subaccount{}), len(raw))
	}
	var sub Subaccount
	copy(sub[:], raw)
	return &sub, nil
}

func (s Subaccount) String() string {
	return hex.EncodeToString(s[:])
}

func (s Subaccount) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Subaccount) UnmarshalText(text []byte) error {
	sub, err := ParseSubaccount(string(text))
	if err != nil {
		return err
	}
	*s = *sub
	return nil
}

// WalletSubaccount is the source subaccount funds of walletID are held in
func WalletSubaccount(walletID string) Subaccount {
	return sha256.Sum256([]byte(walletID))
}
