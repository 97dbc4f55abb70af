package wallet

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q3xlabs/q3x/client/modules/state"
	"github.com/q3xlabs/q3x/wallet"
)

func TestSaveLoadSnapshot(t *testing.T) {
	var (
		req    = require.New(t)
		dbPath = "/tmp/q3x_test_SaveLoadSnapshot"
		topic  = "test_topic"
		alice  = wallet.Identity(strings.Repeat("0a", 32))
		bob    = wallet.Identity(strings.Repeat("0b", 32))
	)
	defer os.RemoveAll(dbPath)

	stg, err := state.NewLevelDBState(dbPath, topic)
	req.NoError(err)
	defer stg.Close()

	repo := NewWalletRepo(stg, topic)

	snapshot, err := repo.LoadSnapshot()
	req.NoError(err)
	req.Nil(snapshot)

	offset, err := repo.GetJournalOffset()
	req.NoError(err)
	req.Zero(offset)

	engine := wallet.NewEngine(wallet.NewRegistry(), nil, nil, nil, "key_1")
	req.NoError(engine.CreateWallet("w1", []wallet.Identity{alice, bob}, 2))
	_, err = engine.ProposeWithMetadata(alice, "w1", []byte{0xde, 0xad}, "pay rent")
	req.NoError(err)

	req.NoError(repo.SaveSnapshot(engine.Registry().Snapshot(), 3))

	snapshot, err = repo.LoadSnapshot()
	req.NoError(err)
	req.NotNil(snapshot)

	offset, err = repo.GetJournalOffset()
	req.NoError(err)
	req.Equal(uint64(3), offset)

	restored := wallet.NewRegistry()
	req.NoError(restored.Restore(*snapshot))

	restoredEngine := wallet.NewEngine(restored, nil, nil, nil, "key_1")
	proposal, err := restoredEngine.GetProposal("w1", []byte{0xde, 0xad})
	req.NoError(err)
	req.Equal(alice, proposal.Proposer)
	req.Equal(2, proposal.Threshold)

	md, err := restoredEngine.GetMetadata(bob, "w1", []byte{0xde, 0xad})
	req.NoError(err)
	req.Equal("pay rent", md.Text)

	req.Equal([]string{"w1"}, restoredEngine.WalletsFor(bob))
}

func TestLoadSnapshot_Corrupted(t *testing.T) {
	var (
		req    = require.New(t)
		dbPath = "/tmp/q3x_test_LoadSnapshot_Corrupted"
		topic  = "test_topic"
	)
	defer os.RemoveAll(dbPath)

	stg, err := state.NewLevelDBState(dbPath, topic)
	req.NoError(err)
	defer stg.Close()

	req.NoError(stg.Set(state.MakeCompositeKeyString(topic, SnapshotKey), []byte("{")))

	_, err = NewWalletRepo(stg, topic).LoadSnapshot()
	req.Error(err)
}
