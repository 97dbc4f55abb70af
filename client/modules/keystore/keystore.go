package keystore

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"lukechampine.com/frand"
)

const (
	secretsKey = "secrets"
)

var ErrKeysNotFound = errors.New("no key pair found")

type KeyStore interface {
	PutKeys(username string, keyPair *KeyPair) error
	LoadKeys(username string) (*KeyPair, error)
	Close() error
}

// LevelDBKeyStore keeps hot node keys unencrypted
type LevelDBKeyStore struct {
	keystoreDb *leveldb.DB
}

func NewLevelDBKeyStore(keystorePath string) (*LevelDBKeyStore, error) {
	db, err := leveldb.OpenFile(keystorePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}

	keystore := &LevelDBKeyStore{
		keystoreDb: db,
	}

	if err := keystore.initJsonKey(secretsKey, map[string]*KeyPair{}); err != nil {
		return nil, fmt.Errorf("failed to init %s storage: %w", secretsKey, err)
	}

	return keystore, nil
}

func (s *LevelDBKeyStore) PutKeys(username string, keyPair *KeyPair) error {
	keyPairs, err := s.keyPairs()
	if err != nil {
		return err
	}

	keyPairs[username] = keyPair

	keyPairsBz, err := json.Marshal(keyPairs)
	if err != nil {
		return fmt.Errorf("failed to marshal key pair: %w", err)
	}

	if err = s.keystoreDb.Put([]byte(secretsKey), keyPairsBz, nil); err != nil {
		return fmt.Errorf("failed to put key pairs: %w", err)
	}

	return nil
}

func (s *LevelDBKeyStore) LoadKeys(username string) (*KeyPair, error) {
	keyPairs, err := s.keyPairs()
	if err != nil {
		return nil, err
	}

	keyPair, ok := keyPairs[username]
	if !ok {
		return nil, fmt.Errorf("%w for user %s", ErrKeysNotFound, username)
	}

	return keyPair, nil
}

func (s *LevelDBKeyStore) Close() error {
	return s.keystoreDb.Close()
}

func (s *LevelDBKeyStore) keyPairs() (map[string]*KeyPair, error) {
	bz, err := s.keystoreDb.Get([]byte(secretsKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	var keyPairs = map[string]*KeyPair{}
	if err := json.Unmarshal(bz, &keyPairs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key pairs: %w", err)
	}

	return keyPairs, nil
}

func (s *LevelDBKeyStore) initJsonKey(key string, data interface{}) error {
	if _, err := s.keystoreDb.Get([]byte(key), nil); err != nil {
		dataBz, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal storage structure: %w", err)
		}
		err = s.keystoreDb.Put([]byte(key), dataBz, nil)
		if err != nil {
			return fmt.Errorf("failed to init state: %w", err)
		}
	}

	return nil
}

type KeyPair struct {
	Pub  ed25519.PublicKey
	Priv ed25519.PrivateKey
}

func NewKeyPair() *KeyPair {
	pub, priv, _ := ed25519.GenerateKey(frand.Reader)
	return &KeyPair{
		Pub:  pub,
		Priv: priv,
	}
}

// GetAddr returns the node address, the identity other nodes know it by
func (p *KeyPair) GetAddr() string {
	return hex.EncodeToString(p.Pub)
}

func (p *KeyPair) Sign(data []byte) []byte {
	return ed25519.Sign(p.Priv, data)
}
