package wallet

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var (
	idA = Identity(strings.Repeat("a1", 32))
	idB = Identity(strings.Repeat("b2", 32))
)

func TestDecodeCommand(t *testing.T) {
	sub := WalletSubaccount("w1")

	tests := []struct {
		name string
		msg  []byte
		want Command
	}{
		{"opaque text", []byte("hello"), Command{Kind: CommandOpaque}},
		{"opaque binary", []byte{0xde, 0xad}, Command{Kind: CommandOpaque}},
		{"non utf8 with prefix", append([]byte("ADD_SIGNER::"), 0xff), Command{Kind: CommandOpaque}},
		{"lowercase prefix", []byte("add_signer::" + idA), Command{Kind: CommandOpaque}},
		{"add signer", []byte("ADD_SIGNER::" + idA), AddSignerCommand(idA)},
		{"add signer malformed", []byte("ADD_SIGNER::not-an-identity"), Command{Kind: CommandAddSigner, Malformed: true}},
		{"remove signer", []byte("REMOVE_SIGNER::" + idB), RemoveSignerCommand(idB)},
		{"remove signer malformed", []byte("REMOVE_SIGNER::"), Command{Kind: CommandRemoveSigner, Malformed: true}},
		{"set threshold", []byte("SET_THRESHOLD::3"), SetThresholdCommand(3)},
		{"set threshold zero", []byte("SET_THRESHOLD::0"), SetThresholdCommand(0)},
		{"set threshold overflow", []byte("SET_THRESHOLD::256"), Command{Kind: CommandSetThreshold, Malformed: true}},
		{"set threshold negative", []byte("SET_THRESHOLD::-1"), Command{Kind: CommandSetThreshold, Malformed: true}},
		{"transfer", []byte("TRANSFER::100000::" + idB), TransferCommand(100000, idB, nil)},
		{"transfer subaccount", []byte("TRANSFER::5::" + idB + "::" + Identity(sub.String())), TransferCommand(5, idB, &sub)},
		{"transfer missing destination", []byte("TRANSFER::100000"), Command{Kind: CommandTransfer, Malformed: true}},
		{"transfer bad amount", []byte("TRANSFER::1.5::" + idB), Command{Kind: CommandTransfer, Malformed: true}},
		{"transfer bad destination", []byte("TRANSFER::10::bob"), Command{Kind: CommandTransfer, Malformed: true}},
		{"transfer extra parts", []byte("TRANSFER::10::" + idB + "::00::11"), Command{Kind: CommandTransfer, Malformed: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodeCommand(tc.msg)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("DecodeCommand() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommand_Encode(t *testing.T) {
	req := require.New(t)
	sub := WalletSubaccount("w2")

	for _, cmd := range []Command{
		AddSignerCommand(idA),
		RemoveSignerCommand(idB),
		SetThresholdCommand(2),
		TransferCommand(DefaultTransferFee, idA, nil),
		TransferCommand(1, idA, &sub),
	} {
		msg, err := cmd.Encode()
		req.NoError(err)
		req.Equal(cmd, DecodeCommand(msg))
		req.True(cmd.IsSpecial())
	}

	msg, err := TransferCommand(100000, idB, nil).Encode()
	req.NoError(err)
	req.Equal("TRANSFER::100000::"+idB.String(), string(msg))

	_, err = Command{Kind: CommandOpaque}.Encode()
	req.Error(err)
}

func TestCommand_EncodeRoundTrip(t *testing.T) {
	sub := WalletSubaccount("w3")

	for _, cmd := range []Command{
		AddSignerCommand(idA),
		RemoveSignerCommand(idA),
		SetThresholdCommand(1),
		SetThresholdCommand(17),
		SetThresholdCommand(MaxThreshold),
		TransferCommand(0, idB, nil),
		TransferCommand(Tokens(math.MaxUint64), idB, nil),
		TransferCommand(DefaultTransferFee, idB, &sub),
	} {
		msg, err := cmd.Encode()
		require.NoError(t, err, cmd.Kind.String())

		got := DecodeCommand(msg)
		require.False(t, got.Malformed, string(msg))
		if diff := cmp.Diff(cmd, got); diff != "" {
			t.Errorf("%s does not decode back (-want +got):\n%s", msg, diff)
		}
	}
}

func TestCommand_EncodeRejects(t *testing.T) {
	req := require.New(t)

	for _, threshold := range []int{-1, 0, MaxThreshold + 1, 300} {
		_, err := SetThresholdCommand(threshold).Encode()
		req.ErrorIs(err, ErrThresholdInvalid, "threshold %d", threshold)
	}

	upper := Identity(strings.ToUpper(idA.String()))
	for _, cmd := range []Command{
		AddSignerCommand("bob"),
		RemoveSignerCommand(upper),
		TransferCommand(10, "", nil),
		TransferCommand(10, upper, nil),
	} {
		_, err := cmd.Encode()
		req.ErrorIs(err, ErrInvalidIdentity, cmd.Kind.String())
	}
}

func TestCommandKind_MarshalText(t *testing.T) {
	text, err := CommandSetThreshold.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "set_threshold", string(text))
	require.Equal(t, "unknown", CommandKind(42).String())

	var kind CommandKind
	require.NoError(t, kind.UnmarshalText([]byte("transfer")))
	require.Equal(t, CommandTransfer, kind)
	require.Error(t, kind.UnmarshalText([]byte("unknown")))
}

func TestCommand_JSON(t *testing.T) {
	req := require.New(t)

	sub := WalletSubaccount("w1")
	cmd := TransferCommand(150_000_000, idB, &sub)

	bz, err := json.Marshal(cmd)
	req.NoError(err)
	req.Contains(string(bz), `"kind":"transfer"`)
	req.Contains(string(bz), sub.String())

	var decoded Command
	req.NoError(json.Unmarshal(bz, &decoded))
	if diff := cmp.Diff(cmd, decoded); diff != "" {
		t.Fatalf("decoded command mismatch (-want +got):\n%s", diff)
	}
}
