package wallet

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_HexRoundTrip(t *testing.T) {
	req := require.New(t)

	for _, s := range []string{"", "dead", "00ff10", strings.Repeat("ab", 64)} {
		msg, err := DecodeMessage(s)
		req.NoError(err)
		req.Equal(s, EncodeMessage(msg))
	}

	msg, err := DecodeMessage("dead")
	req.NoError(err)
	req.Equal([]byte{0xde, 0xad}, msg)

	for _, s := range []string{"abc", "zz", "0x00"} {
		_, err := DecodeMessage(s)
		req.True(errors.Is(err, ErrInvalidMessage), s)
		req.Equal("InvalidMessage", ErrorCode(err))
	}
}

func TestParseIdentity(t *testing.T) {
	req := require.New(t)

	id, err := ParseIdentity(strings.ToUpper(idA.String()))
	req.NoError(err)
	req.Equal(idA, id)

	pub, err := id.PubKey()
	req.NoError(err)
	req.Equal(id, IdentityFromPubKey(pub))

	for _, s := range []string{"", "a1a1", "alice", strings.Repeat("a1", 33)} {
		_, err := ParseIdentity(s)
		req.True(errors.Is(err, ErrInvalidIdentity), s)
	}
}

func TestErrorCode(t *testing.T) {
	req := require.New(t)

	req.Equal("", ErrorCode(nil))
	req.Equal("WalletNotFound", ErrorCode(ErrWalletNotFound))
	req.Equal("WalletInvalidSignature", ErrorCode(ErrDuplicateApproval))
	req.Equal("WalletInvalidSignature", ErrorCode(ErrNotSigner))
	req.Equal("WalletSignersNotMatchThreshold", ErrorCode(ErrThresholdInvalid))
	req.Equal("UnknownError", ErrorCode(errors.New("boom")))

	extErr := &ExternalError{Op: "sign", Err: errors.New("boom")}
	req.Equal("ExternalFailure", ErrorCode(extErr))
	req.EqualError(extErr, "sign failed: boom")
	req.Equal("boom", errors.Unwrap(extErr).Error())
}
