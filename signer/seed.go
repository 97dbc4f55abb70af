package signer

import (
	"crypto/sha512"
	"fmt"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"

	"github.com/q3xlabs/q3x/client/modules/state"
)

const (
	seedSize     = 32
	mnemonicSalt = "mnemonic"

	SeedKey = "signer_seed"
)

func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256) //maximum
	if err != nil {
		return "", fmt.Errorf("failed to generate bip39 entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate bip39 mnemonic: %w", err)
	}
	return mnemonic, nil
}

func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	if _, err := bip39.EntropyFromMnemonic(mnemonic); err != nil {
		return nil, fmt.Errorf("failed to check mnemonic: %w", err)
	}

	return pbkdf2.Key([]byte(mnemonic), []byte(mnemonicSalt), 2048, seedSize, sha512.New), nil
}

// LoadOrCreateSeed returns the seed kept in s. A fresh seed is generated and
// stored when none exists, its mnemonic is returned once so it can be backed up.
func LoadOrCreateSeed(s state.State) (seed []byte, mnemonic string, err error) {
	if seed, err = s.Get(SeedKey); err != nil {
		return nil, "", fmt.Errorf("failed to load signer seed: %w", err)
	}
	if seed != nil {
		if len(seed) != seedSize {
			return nil, "", fmt.Errorf("stored signer seed has invalid size %d", len(seed))
		}
		return seed, "", nil
	}

	if mnemonic, err = GenerateMnemonic(); err != nil {
		return nil, "", err
	}
	if seed, err = SeedFromMnemonic(mnemonic); err != nil {
		return nil, "", err
	}
	if err = s.Set(SeedKey, seed); err != nil {
		return nil, "", fmt.Errorf("failed to save signer seed: %w", err)
	}
	return seed, mnemonic, nil
}

// RestoreSeed replaces the stored seed with the one derived from mnemonic
func RestoreSeed(s state.State, mnemonic string) ([]byte, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	if err = s.Set(SeedKey, seed); err != nil {
		return nil, fmt.Errorf("failed to save signer seed: %w", err)
	}
	return seed, nil
}
