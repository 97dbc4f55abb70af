package ledger

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/q3xlabs/q3x/client/modules/state"
	"github.com/q3xlabs/q3x/mocks/clientMocks"
	"github.com/q3xlabs/q3x/wallet"
)

const testOwner = "q3x"

var testDest = wallet.Identity(strings.Repeat("ab", 32))

func newTestLedger(t *testing.T) (*Ledger, func()) {
	dbPath := "/tmp/q3x_test_ledger_" + t.Name()
	stg, err := state.NewLevelDBState(dbPath, "ledger")
	require.NoError(t, err)

	return NewLedger(stg, testOwner, wallet.DefaultTransferFee), func() {
		stg.Close()
		os.RemoveAll(dbPath)
	}
}

func TestLedger_Transfer(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	l, cleanup := newTestLedger(t)
	defer cleanup()

	source := l.WalletAccount("w1")
	req.Equal(wallet.WalletSubaccount("w1"), source.Subaccount)

	receipt, err := l.Mint(source, 100_000)
	req.NoError(err)
	req.Equal(uint64(0), receipt.BlockIndex)

	receipt, err = l.Transfer(ctx, wallet.TransferArgs{
		From:   "w1",
		Amount: 50_000,
		To:     testDest,
	})
	req.NoError(err)
	req.Equal(uint64(1), receipt.BlockIndex)

	balance, err := l.Balance(source)
	req.NoError(err)
	req.Equal(wallet.Tokens(40_000), balance)

	balance, err = l.Balance(Account{Owner: testDest.String()})
	req.NoError(err)
	req.Equal(wallet.Tokens(50_000), balance)

	// amount plus fee exceeds the balance
	_, err = l.Transfer(ctx, wallet.TransferArgs{
		From:   "w1",
		Amount: 30_001,
		To:     testDest,
	})
	req.ErrorIs(err, ErrInsufficientFunds)

	balance, err = l.Balance(source)
	req.NoError(err)
	req.Equal(wallet.Tokens(40_000), balance)
}

func TestLedger_TransferToSubaccount(t *testing.T) {
	req := require.New(t)

	l, cleanup := newTestLedger(t)
	defer cleanup()

	_, err := l.Mint(l.WalletAccount("w1"), 1_000_000)
	req.NoError(err)

	sub := wallet.Subaccount{1}
	_, err = l.Transfer(context.Background(), wallet.TransferArgs{
		From:         "w1",
		Amount:       1_000,
		To:           testDest,
		ToSubaccount: &sub,
	})
	req.NoError(err)

	balance, err := l.Balance(Account{Owner: testDest.String(), Subaccount: sub})
	req.NoError(err)
	req.Equal(wallet.Tokens(1_000), balance)

	balance, err = l.Balance(Account{Owner: testDest.String()})
	req.NoError(err)
	req.Zero(balance)
}

func TestLedger_SelfTransfer(t *testing.T) {
	req := require.New(t)

	l, cleanup := newTestLedger(t)
	defer cleanup()

	source := l.WalletAccount("w1")
	_, err := l.Mint(source, 100_000)
	req.NoError(err)

	sub := source.Subaccount
	_, err = l.Transfer(context.Background(), wallet.TransferArgs{
		From:         "w1",
		Amount:       5_000,
		To:           wallet.Identity(testOwner),
		ToSubaccount: &sub,
	})
	req.NoError(err)

	balance, err := l.Balance(source)
	req.NoError(err)
	req.Equal(wallet.Tokens(90_000), balance)
}

func TestLedger_StateFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stg := clientMocks.NewMockState(ctrl)
	l := NewLedger(stg, testOwner, wallet.DefaultTransferFee)

	stg.EXPECT().Get(gomock.Any()).Return(encodeUint64(1_000_000), nil).Times(3)
	stg.EXPECT().SetBatch(gomock.Any()).Return(os.ErrPermission)

	_, err := l.Transfer(context.Background(), wallet.TransferArgs{
		From:   "w1",
		Amount: 1,
		To:     testDest,
	})
	req.ErrorIs(err, os.ErrPermission)
}
