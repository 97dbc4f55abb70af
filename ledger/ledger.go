package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/q3xlabs/q3x/client/modules/state"
	"github.com/q3xlabs/q3x/wallet"
)

const (
	balancePrefix = "balance"
	blockIndexKey = "block_index"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

var _ wallet.Transferer = (*Ledger)(nil)

// Account is a ledger account, an owner plus one of its subaccounts
type Account struct {
	Owner      string
	Subaccount wallet.Subaccount
}

func (a Account) String() string {
	return a.Owner + "." + a.Subaccount.String()
}

// Ledger is a token ledger on top of the node state. Every transfer charges
// the fee to the source account and gets the next block index.
type Ledger struct {
	mu    sync.Mutex
	state state.State
	owner string
	fee   wallet.Tokens
}

// NewLedger creates a ledger whose wallet accounts belong to owner
func NewLedger(s state.State, owner string, fee wallet.Tokens) *Ledger {
	return &Ledger{
		state: s,
		owner: owner,
		fee:   fee,
	}
}

func (l *Ledger) Fee() wallet.Tokens {
	return l.fee
}

// WalletAccount is the account funds of walletID are held in
func (l *Ledger) WalletAccount(walletID string) Account {
	return Account{
		Owner:      l.owner,
		Subaccount: wallet.WalletSubaccount(walletID),
	}
}

func (l *Ledger) Transfer(ctx context.Context, args wallet.TransferArgs) (wallet.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return wallet.Receipt{}, err
	}

	to := Account{Owner: args.To.String()}
	if args.ToSubaccount != nil {
		to.Subaccount = *args.ToSubaccount
	}
	from := l.WalletAccount(args.From)

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance, err := l.balance(from)
	if err != nil {
		return wallet.Receipt{}, err
	}

	debit := uint64(args.Amount) + uint64(l.fee)
	if debit < uint64(args.Amount) || fromBalance < debit {
		return wallet.Receipt{}, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds,
			wallet.Tokens(fromBalance), wallet.Tokens(debit))
	}

	// self transfers only burn the fee
	toBalance := fromBalance - debit
	if to != from {
		if toBalance, err = l.balance(to); err != nil {
			return wallet.Receipt{}, err
		}
	}
	if toBalance > math.MaxUint64-uint64(args.Amount) {
		return wallet.Receipt{}, ErrBalanceOverflow
	}

	index, err := l.blockIndex()
	if err != nil {
		return wallet.Receipt{}, err
	}

	updates := map[string][]byte{
		blockIndexKey: encodeUint64(index + 1),
	}
	if to == from {
		updates[balanceKey(from)] = encodeUint64(fromBalance - uint64(l.fee))
	} else {
		updates[balanceKey(from)] = encodeUint64(fromBalance - debit)
		updates[balanceKey(to)] = encodeUint64(toBalance + uint64(args.Amount))
	}

	if err = l.state.SetBatch(updates); err != nil {
		return wallet.Receipt{}, fmt.Errorf("failed to save transfer: %w", err)
	}

	return wallet.Receipt{BlockIndex: index}, nil
}

// Mint credits account with amount, it is used to fund accounts on local setups
func (l *Ledger) Mint(account Account, amount wallet.Tokens) (wallet.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, err := l.balance(account)
	if err != nil {
		return wallet.Receipt{}, err
	}
	if balance > math.MaxUint64-uint64(amount) {
		return wallet.Receipt{}, ErrBalanceOverflow
	}

	index, err := l.blockIndex()
	if err != nil {
		return wallet.Receipt{}, err
	}

	if err = l.state.SetBatch(map[string][]byte{
		balanceKey(account): encodeUint64(balance + uint64(amount)),
		blockIndexKey:       encodeUint64(index + 1),
	}); err != nil {
		return wallet.Receipt{}, fmt.Errorf("failed to save mint: %w", err)
	}

	return wallet.Receipt{BlockIndex: index}, nil
}

func (l *Ledger) Balance(account Account) (wallet.Tokens, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, err := l.balance(account)
	return wallet.Tokens(balance), err
}

func (l *Ledger) balance(account Account) (uint64, error) {
	bz, err := l.state.Get(balanceKey(account))
	if err != nil {
		return 0, fmt.Errorf("failed to load balance of %s: %w", account, err)
	}
	return decodeUint64(bz)
}

func (l *Ledger) blockIndex() (uint64, error) {
	bz, err := l.state.Get(blockIndexKey)
	if err != nil {
		return 0, fmt.Errorf("failed to load block index: %w", err)
	}
	return decodeUint64(bz)
}

func balanceKey(account Account) string {
	return state.MakeCompositeKeyString(balancePrefix, account.String())
}

func encodeUint64(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}

func decodeUint64(bz []byte) (uint64, error) {
	if bz == nil {
		return 0, nil
	}
	if len(bz) != 8 {
		return 0, fmt.Errorf("invalid stored value size %d", len(bz))
	}
	return binary.BigEndian.Uint64(bz), nil
}
