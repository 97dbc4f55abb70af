package services

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q3xlabs/q3x/client/config"
	"github.com/q3xlabs/q3x/client/modules/state"
	"github.com/q3xlabs/q3x/signer"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Log(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warn(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestLoadSeed_MnemonicStaysOutOfLogs(t *testing.T) {
	var (
		req    = require.New(t)
		dbPath = "/tmp/q3x_test_LoadSeed"
	)
	defer os.RemoveAll(dbPath)

	stg, err := state.NewLevelDBState(dbPath, "")
	req.NoError(err)
	defer stg.Close()

	var (
		log = &recordingLogger{}
		out bytes.Buffer
	)
	seed, err := loadSeed(stg, &config.SignerConfig{}, log, &out)
	req.NoError(err)
	req.Len(seed, 32)

	printed := strings.TrimSpace(out.String())
	req.True(strings.HasPrefix(printed, "Signer seed mnemonic, write it down: "))
	mnemonic := strings.TrimPrefix(printed, "Signer seed mnemonic, write it down: ")

	restored, err := signer.SeedFromMnemonic(mnemonic)
	req.NoError(err)
	req.Equal(seed, restored)

	req.NotEmpty(log.lines)
	for _, line := range log.lines {
		req.NotContains(line, mnemonic)
	}

	// the stored seed is reused and nothing is printed again
	out.Reset()
	again, err := loadSeed(stg, &config.SignerConfig{}, log, &out)
	req.NoError(err)
	req.Equal(seed, again)
	req.Empty(out.String())
}

func TestLoadSeed_Restore(t *testing.T) {
	var (
		req    = require.New(t)
		dbPath = "/tmp/q3x_test_LoadSeed_Restore"
	)
	defer os.RemoveAll(dbPath)

	stg, err := state.NewLevelDBState(dbPath, "")
	req.NoError(err)
	defer stg.Close()

	mnemonic, err := signer.GenerateMnemonic()
	req.NoError(err)

	var out bytes.Buffer
	seed, err := loadSeed(stg, &config.SignerConfig{Mnemonic: mnemonic}, &recordingLogger{}, &out)
	req.NoError(err)
	req.Empty(out.String())

	expected, err := signer.SeedFromMnemonic(mnemonic)
	req.NoError(err)
	req.Equal(expected, seed)
}
