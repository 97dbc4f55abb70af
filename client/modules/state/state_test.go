package state_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q3xlabs/q3x/client/modules/state"
)

func TestLevelDBState_SetGetDelete(t *testing.T) {
	var (
		req    = require.New(t)
		dbPath = "/tmp/q3x_test_SetGetDelete"
	)
	defer os.RemoveAll(dbPath)

	stg, err := state.NewLevelDBState(dbPath, "node")
	req.NoError(err)
	defer stg.Close()

	value, err := stg.Get("missing")
	req.NoError(err)
	req.Nil(value)

	req.NoError(stg.Set("key", []byte("value")))
	value, err = stg.Get("key")
	req.NoError(err)
	req.Equal([]byte("value"), value)

	req.NoError(stg.Delete("key"))
	req.NoError(stg.Delete("key"))
	value, err = stg.Get("key")
	req.NoError(err)
	req.Nil(value)
}

func TestLevelDBState_Namespaces(t *testing.T) {
	var (
		req    = require.New(t)
		dbPath = "/tmp/q3x_test_Namespaces"
	)
	defer os.RemoveAll(dbPath)

	stg, err := state.NewLevelDBState(dbPath, "alice")
	req.NoError(err)

	req.NoError(stg.SetBatch(map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}))
	req.NoError(stg.Close())

	stg, err = state.NewLevelDBState(dbPath, "bob")
	req.NoError(err)

	value, err := stg.Get("a")
	req.NoError(err)
	req.Nil(value)
	req.NoError(stg.Close())

	stg, err = state.NewLevelDBState(dbPath, "alice")
	req.NoError(err)
	defer stg.Close()

	value, err = stg.Get("b")
	req.NoError(err)
	req.Equal([]byte("2"), value)
	req.Equal("alice", stg.Namespace())
	req.Equal("alice_b", state.MakeCompositeKeyString(stg.Namespace(), "b"))
}
