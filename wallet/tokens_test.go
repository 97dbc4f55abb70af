package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTokens(t *testing.T) {
	req := require.New(t)

	amount, err := ParseTokens("1.5")
	req.NoError(err)
	req.Equal(Tokens(150_000_000), amount)
	req.Equal("1.5", amount.String())

	amount, err = ParseTokens(" 0.0001 ")
	req.NoError(err)
	req.Equal(DefaultTransferFee, amount)

	amount, err = ParseTokens("42")
	req.NoError(err)
	req.Equal(uint64(42*E8sPerToken), amount.E8s())

	_, err = ParseTokens("0.000000001")
	req.Error(err)

	_, err = ParseTokens("-1")
	req.Error(err)

	_, err = ParseTokens("ten")
	req.Error(err)

	_, err = ParseTokens("184467440737.09551616")
	req.Error(err)

	req.Equal("0", Tokens(0).String())
}

func TestParseSubaccount(t *testing.T) {
	req := require.New(t)

	sub := WalletSubaccount("w1")
	parsed, err := ParseSubaccount(sub.String())
	req.NoError(err)
	req.Equal(sub, *parsed)

	_, err = ParseSubaccount("abcd")
	req.Error(err)

	_, err = ParseSubaccount("zz")
	req.Error(err)
}
