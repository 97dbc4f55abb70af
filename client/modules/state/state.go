package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// State is the node's key/value substrate. Missing keys read as nil values.
type State interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// SetBatch writes all pairs atomically
	SetBatch(values map[string][]byte) error
	Close() error
}

type LevelDBState struct {
	sync.Mutex
	stateDb     *leveldb.DB
	namespace   string
	stateDbPath string
}

func NewLevelDBState(stateDbPath string, namespace string) (*LevelDBState, error) {
	db, err := leveldb.OpenFile(stateDbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open stateDB: %w", err)
	}

	return &LevelDBState{
		stateDb:     db,
		namespace:   namespace,
		stateDbPath: stateDbPath,
	}, nil
}

func (s *LevelDBState) Namespace() string {
	return s.namespace
}

func (s *LevelDBState) Get(key string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	value, err := s.stateDb.Get(s.key(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get value with key {%s} from leveldb storage: %w", key, err)
	}
	return value, nil
}

func (s *LevelDBState) Set(key string, value []byte) error {
	s.Lock()
	defer s.Unlock()

	if err := s.stateDb.Put(s.key(key), value, nil); err != nil {
		return fmt.Errorf("failed to save value with key %s: %w", key, err)
	}
	return nil
}

func (s *LevelDBState) SetBatch(values map[string][]byte) error {
	s.Lock()
	defer s.Unlock()

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	batch := new(leveldb.Batch)
	for _, key := range keys {
		batch.Put(s.key(key), values[key])
	}

	if err := s.stateDb.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write batch of %d values: %w", len(values), err)
	}
	return nil
}

func (s *LevelDBState) Delete(key string) error {
	s.Lock()
	defer s.Unlock()

	err := s.stateDb.Delete(s.key(key), nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return fmt.Errorf("failed to delete value with key {%s}: %w", key, err)
	}
	return nil
}

func (s *LevelDBState) Close() error {
	s.Lock()
	defer s.Unlock()

	if err := s.stateDb.Close(); err != nil {
		return fmt.Errorf("failed to close stateDB %s: %w", s.stateDbPath, err)
	}
	return nil
}

func (s *LevelDBState) key(key string) []byte {
	if s.namespace == "" {
		return []byte(key)
	}
	return MakeCompositeKey(s.namespace, key)
}

func MakeCompositeKey(prefix, key string) []byte {
	return []byte(fmt.Sprintf("%s_%s", prefix, key))
}

func MakeCompositeKeyString(prefix, key string) string {
	return fmt.Sprintf("%s_%s", prefix, key)
}
