package file_storage

import (
	"crypto/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q3xlabs/q3x/storage"
)

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil
	}
	return b
}

func TestFileStorage_SendGetMessages(t *testing.T) {
	var (
		req      = require.New(t)
		N        = 10
		testFile = "/tmp/q3x_test_file_storage"
		lockFile = "/tmp/q3x_test_file_storage_lock"
	)
	defer os.Remove(testFile)
	defer os.Remove(lockFile)

	fs, err := NewFileStorage(testFile, lockFile)
	req.NoError(err)
	defer fs.Close()

	msgs := make([]storage.Message, 0, N)
	for i := 0; i < N; i++ {
		msgs = append(msgs, storage.Message{
			WalletID:  "w1",
			Event:     "approve",
			Data:      randomBytes(10),
			Signature: randomBytes(10),
		})
	}
	msgs[0].ID = "fixed-id"

	req.NoError(fs.Send(msgs...))
	req.Equal("fixed-id", msgs[0].ID)
	for i, msg := range msgs {
		req.Equal(uint64(i), msg.Offset)
		req.NotEmpty(msg.ID)
	}

	stored, err := fs.GetMessages(0)
	req.NoError(err)
	req.Equal(msgs, stored)

	stored, err = fs.GetMessages(7)
	req.NoError(err)
	req.Equal(msgs[7:], stored)

	stored, err = fs.GetMessages(uint64(N + 5))
	req.NoError(err)
	req.Empty(stored)
}

func TestFileStorage_Reopen(t *testing.T) {
	var (
		req      = require.New(t)
		testFile = "/tmp/q3x_test_file_storage_reopen"
	)
	defer os.Remove(testFile)

	fs, err := NewFileStorage(testFile)
	req.NoError(err)
	req.NoError(fs.Send(storage.Message{Event: "create_wallet"}))
	req.NoError(fs.Close())

	fs, err = NewFileStorage(testFile)
	req.NoError(err)
	defer fs.Close()

	msg := storage.Message{Event: "propose"}
	req.NoError(fs.Send(msg))

	stored, err := fs.GetMessages(0)
	req.NoError(err)
	req.Len(stored, 2)
	req.Equal(uint64(1), stored[1].Offset)
}

func TestFileStorage_GetWalletMessages(t *testing.T) {
	var (
		req      = require.New(t)
		testFile = "/tmp/q3x_test_file_storage_wallet"
		lockFile = "/tmp/q3x_test_file_storage_wallet_lock"
	)
	defer os.Remove(testFile)
	defer os.Remove(lockFile)

	fs, err := NewFileStorage(testFile, lockFile)
	req.NoError(err)
	defer fs.Close()

	req.NoError(fs.Send(
		storage.Message{WalletID: "w1", Event: "create_wallet"},
		storage.Message{WalletID: "w2", Event: "create_wallet"},
		storage.Message{WalletID: "w1", Event: "propose"},
		storage.Message{WalletID: "w2", Event: "propose"},
	))

	msgs, err := fs.GetWalletMessages("w1", 0)
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal(uint64(0), msgs[0].Offset)
	req.Equal(uint64(2), msgs[1].Offset)

	msgs, err = fs.GetWalletMessages("w2", 2)
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal("propose", msgs[0].Event)

	msgs, err = storage.GetWalletMessages(fs, "w3", 0)
	req.NoError(err)
	req.Empty(msgs)
}

func TestFileStorage_SharedFile(t *testing.T) {
	var (
		req      = require.New(t)
		testFile = "/tmp/q3x_test_file_storage_shared"
		lockFile = "/tmp/q3x_test_file_storage_shared_lock"
	)
	defer os.Remove(testFile)
	defer os.Remove(lockFile)

	first, err := NewFileStorage(testFile, lockFile)
	req.NoError(err)
	defer first.Close()
	second, err := NewFileStorage(testFile, lockFile)
	req.NoError(err)
	defer second.Close()

	batch := []storage.Message{{Event: "a"}, {Event: "b"}}
	req.NoError(first.Send(batch...))
	req.Equal(uint64(1), batch[1].Offset)

	// offsets continue past entries appended through another handle
	other := []storage.Message{{Event: "c"}}
	req.NoError(second.Send(other...))
	req.Equal(uint64(2), other[0].Offset)

	last := []storage.Message{{Event: "d"}}
	req.NoError(first.Send(last...))
	req.Equal(uint64(3), last[0].Offset)

	msgs, err := first.GetMessages(0)
	req.NoError(err)
	req.Len(msgs, 4)
	for i, m := range msgs {
		req.Equal(uint64(i), m.Offset)
	}
}
