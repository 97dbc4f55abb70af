package wallet

import (
	"encoding/json"
	"fmt"

	"github.com/q3xlabs/q3x/client/modules/state"
	"github.com/q3xlabs/q3x/wallet"
)

const (
	SnapshotKey      = "wallet_snapshot"
	JournalOffsetKey = "journal_offset"
)

type WalletRepo interface {
	SaveSnapshot(snapshot wallet.Snapshot, journalOffset uint64) error
	// LoadSnapshot returns nil when nothing was saved yet
	LoadSnapshot() (*wallet.Snapshot, error)
	GetJournalOffset() (uint64, error)
}

type BaseWalletRepo struct {
	state                     state.State
	snapshotCompositeKey      string
	journalOffsetCompositeKey string
}

func NewWalletRepo(s state.State, topic string) *BaseWalletRepo {
	return &BaseWalletRepo{
		state:                     s,
		snapshotCompositeKey:      state.MakeCompositeKeyString(topic, SnapshotKey),
		journalOffsetCompositeKey: state.MakeCompositeKeyString(topic, JournalOffsetKey),
	}
}

// SaveSnapshot stores the snapshot together with the journal offset it covers
func (r *BaseWalletRepo) SaveSnapshot(snapshot wallet.Snapshot, journalOffset uint64) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet snapshot: %w", err)
	}

	offsetJSON, err := json.Marshal(journalOffset)
	if err != nil {
		return fmt.Errorf("failed to marshal journal offset: %w", err)
	}

	if err = r.state.SetBatch(map[string][]byte{
		r.snapshotCompositeKey:      snapshotJSON,
		r.journalOffsetCompositeKey: offsetJSON,
	}); err != nil {
		return fmt.Errorf("failed to save wallet snapshot: %w", err)
	}

	return nil
}

func (r *BaseWalletRepo) LoadSnapshot() (*wallet.Snapshot, error) {
	bz, err := r.state.Get(r.snapshotCompositeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet snapshot: %w", err)
	}
	if bz == nil {
		return nil, nil
	}

	var snapshot wallet.Snapshot
	if err = json.Unmarshal(bz, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet snapshot: %w", err)
	}

	return &snapshot, nil
}

func (r *BaseWalletRepo) GetJournalOffset() (uint64, error) {
	bz, err := r.state.Get(r.journalOffsetCompositeKey)
	if err != nil {
		return 0, fmt.Errorf("failed to get journal offset: %w", err)
	}
	if bz == nil {
		return 0, nil
	}

	var offset uint64
	if err = json.Unmarshal(bz, &offset); err != nil {
		return 0, fmt.Errorf("failed to unmarshal journal offset: %w", err)
	}

	return offset, nil
}
