package node

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/q3xlabs/q3x/client/api/dto"
	"github.com/q3xlabs/q3x/client/config"
	"github.com/q3xlabs/q3x/client/modules/keystore"
	"github.com/q3xlabs/q3x/client/modules/logger"
	"github.com/q3xlabs/q3x/client/services"
	"github.com/q3xlabs/q3x/mocks/clientMocks"
	"github.com/q3xlabs/q3x/mocks/repoMocks"
	"github.com/q3xlabs/q3x/mocks/storageMocks"
	"github.com/q3xlabs/q3x/mocks/walletMocks"
	"github.com/q3xlabs/q3x/storage"
	"github.com/q3xlabs/q3x/wallet"
)

const (
	userName = "node_user"
	keyID    = wallet.KeyID("dfx_test_key")
)

type testNode struct {
	node     *BaseNodeService
	keyPair  *keystore.KeyPair
	stg      *storageMocks.MockStorage
	repo     *repoMocks.MockWalletRepo
	signer   *walletMocks.MockSigner
	verifier *walletMocks.MockVerifier
	registry *wallet.Registry
}

func newTestNode(t *testing.T, ctrl *gomock.Controller, snapshot *wallet.Snapshot) *testNode {
	req := require.New(t)

	tn := &testNode{
		keyPair:  keystore.NewKeyPair(),
		stg:      storageMocks.NewMockStorage(ctrl),
		repo:     repoMocks.NewMockWalletRepo(ctrl),
		signer:   walletMocks.NewMockSigner(ctrl),
		verifier: walletMocks.NewMockVerifier(ctrl),
		registry: wallet.NewRegistry(),
	}

	keyStore := clientMocks.NewMockKeyStore(ctrl)
	keyStore.EXPECT().LoadKeys(userName).Times(1).Return(tn.keyPair, nil)

	tn.repo.EXPECT().LoadSnapshot().Times(1).Return(snapshot, nil)
	if snapshot != nil {
		tn.repo.EXPECT().GetJournalOffset().Times(1).Return(uint64(len(snapshot.Wallets)), nil)
	}

	sp := services.ServiceProvider{}
	sp.SetLogger(logger.NewLogger(userName))
	sp.SetKeyStore(keyStore)
	sp.SetStorage(tn.stg)
	sp.SetWalletRepo(tn.repo)
	sp.SetEngine(wallet.NewEngine(tn.registry, tn.signer, tn.verifier, nil, keyID))

	// minimal config to make test
	cfg := config.Config{
		Username: userName,
	}

	node, err := NewNode(&cfg, &sp)
	req.NoError(err)
	tn.node = node

	return tn
}

// expectPersist expects n journal appends, each followed by a snapshot
func (tn *testNode) expectPersist(n int) {
	tn.stg.EXPECT().Send(gomock.Any()).Times(n).Return(nil)
	tn.repo.EXPECT().SaveSnapshot(gomock.Any(), gomock.Any()).Times(n).Return(nil)
}

func newIdentity() string {
	return keystore.NewKeyPair().GetAddr()
}

func TestNodeService_SignFlow(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
		ctx  = context.Background()
	)
	defer ctrl.Finish()

	tn := newTestNode(t, ctrl, nil)
	a, b, c := newIdentity(), newIdentity(), newIdentity()

	tn.expectPersist(4)

	req.NoError(tn.node.CreateWallet(&dto.CreateWalletDTO{
		WalletID:  "w1",
		Signers:   []string{a, b, c},
		Threshold: 2,
	}))

	entry, err := tn.node.Propose(&dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "dead"})
	req.NoError(err)
	req.Equal("dead", entry.Message)
	req.False(entry.CanSign)
	req.Equal([]wallet.Identity{wallet.Identity(a)}, entry.Signers)

	canSign, err := tn.node.CanSign(&dto.WalletMessageDTO{WalletID: "w1", Message: "dead"})
	req.NoError(err)
	req.False(canSign)

	approvals, err := tn.node.Approve(&dto.CallerMessageDTO{Caller: b, WalletID: "w1", Message: "dead"})
	req.NoError(err)
	req.Equal(2, approvals)

	msgs, err := tn.node.GetMessagesToSign(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Equal([]string{"dead"}, msgs)

	tn.signer.EXPECT().Sign(gomock.Any(), "w1", []byte{0xde, 0xad}, keyID).Times(1).Return([]byte{0x01, 0x02}, nil)

	resp, err := tn.node.Sign(ctx, &dto.CallerMessageDTO{Caller: c, WalletID: "w1", Message: "dead"})
	req.NoError(err)
	req.Equal("0102", resp.Signature)
	req.Equal(wallet.CommandOpaque, resp.Command.Kind)

	msgs, err = tn.node.GetProposedMessages(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Empty(msgs)

	wallets, err := tn.node.GetWalletsForPrincipal(&dto.PrincipalDTO{Principal: b})
	req.NoError(err)
	req.Equal([]string{"w1"}, wallets)
}

func TestNodeService_BoundaryErrors(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
	)
	defer ctrl.Finish()

	tn := newTestNode(t, ctrl, nil)
	a := newIdentity()

	tn.expectPersist(1)
	req.NoError(tn.node.CreateWallet(&dto.CreateWalletDTO{WalletID: "w1", Signers: []string{a}, Threshold: 1}))

	_, err := tn.node.Propose(&dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "xyz"})
	req.ErrorIs(err, wallet.ErrInvalidMessage)
	req.Equal("InvalidMessage", wallet.ErrorCode(err))

	_, err = tn.node.Propose(&dto.CallerMessageDTO{Caller: "alice", WalletID: "w1", Message: "dead"})
	req.ErrorIs(err, wallet.ErrInvalidIdentity)

	err = tn.node.CreateWallet(&dto.CreateWalletDTO{WalletID: "w2", Signers: []string{a, newIdentity()}, Threshold: 3})
	req.ErrorIs(err, wallet.ErrThresholdInvalid)

	_, err = tn.node.GetWallet(&dto.WalletIdDTO{WalletID: "w2"})
	req.ErrorIs(err, wallet.ErrWalletNotFound)

	_, err = tn.node.Approve(&dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "beef"})
	req.ErrorIs(err, wallet.ErrMsgNotQueued)

	_, err = tn.node.Transfer(&dto.TransferDTO{Caller: a, WalletID: "w1", Amount: "-1", To: newIdentity()})
	req.Error(err)

	_, err = tn.node.VerifySignature(context.Background(), &dto.VerifySignatureDTO{WalletID: "w1", Message: "dead", Signature: "zz"})
	req.Error(err)
}

func TestNodeService_Journal(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
	)
	defer ctrl.Finish()

	tn := newTestNode(t, ctrl, nil)
	a := newIdentity()

	var sent []storage.Message
	tn.stg.EXPECT().Send(gomock.Any()).Times(2).DoAndReturn(func(msgs ...storage.Message) error {
		sent = append(sent, msgs...)
		return nil
	})
	gomock.InOrder(
		tn.repo.EXPECT().SaveSnapshot(gomock.Any(), uint64(1)).Return(nil),
		tn.repo.EXPECT().SaveSnapshot(gomock.Any(), uint64(2)).Return(nil),
	)

	req.NoError(tn.node.CreateWallet(&dto.CreateWalletDTO{WalletID: "w1", Signers: []string{a}, Threshold: 1}))
	_, err := tn.node.Propose(&dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "dead"})
	req.NoError(err)

	req.Len(sent, 2)
	req.Equal(EventCreateWallet, sent[0].Event)
	req.Equal(EventPropose, sent[1].Event)
	for _, msg := range sent {
		req.Equal("w1", msg.WalletID)
		req.Equal(userName, msg.SenderAddr)
		req.NoError(msg.Verify(tn.node.GetPubKey()))
	}

	tn.stg.EXPECT().GetMessages(uint64(1)).Times(1).Return(sent[1:], nil)
	journal, err := tn.node.GetJournal(&dto.JournalOffsetDTO{Offset: 1})
	req.NoError(err)
	req.Len(journal, 1)

	tn.stg.EXPECT().GetMessages(uint64(0)).Times(1).Return([]storage.Message{
		{ID: "0", WalletID: "w1"},
		{ID: "1", WalletID: "w2"},
		{ID: "2", WalletID: "w1"},
	}, nil)
	journal, err = tn.node.GetJournal(&dto.JournalOffsetDTO{WalletID: "w2"})
	req.NoError(err)
	req.Len(journal, 1)
	req.Equal("1", journal[0].ID)
}

func TestNodeService_PersistFailureIsLogged(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
	)
	defer ctrl.Finish()

	tn := newTestNode(t, ctrl, nil)
	a := newIdentity()

	tn.stg.EXPECT().Send(gomock.Any()).Times(1).Return(errors.New("broker is down"))
	tn.repo.EXPECT().SaveSnapshot(gomock.Any(), uint64(0)).Times(1).Return(nil)

	req.NoError(tn.node.CreateWallet(&dto.CreateWalletDTO{WalletID: "w1", Signers: []string{a}, Threshold: 1}))

	view, err := tn.node.GetWallet(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Equal(1, view.Threshold)
}

func TestNodeService_SpecialCommands(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
		ctx  = context.Background()
	)
	defer ctrl.Finish()

	tn := newTestNode(t, ctrl, nil)
	a, b := newIdentity(), newIdentity()

	tn.expectPersist(8)

	req.NoError(tn.node.CreateWallet(&dto.CreateWalletDTO{WalletID: "w1", Signers: []string{a}, Threshold: 1}))

	msg, err := tn.node.AddSigner(&dto.SignerDTO{Caller: a, WalletID: "w1", Signer: b})
	req.NoError(err)
	req.Equal(hex.EncodeToString([]byte("ADD_SIGNER::"+b)), msg)

	resp, err := tn.node.Sign(ctx, &dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: msg})
	req.NoError(err)
	req.Empty(resp.Signature)
	req.Equal(wallet.CommandAddSigner, resp.Command.Kind)

	msg, err = tn.node.SetThreshold(&dto.ThresholdDTO{Caller: a, WalletID: "w1", Threshold: 2})
	req.NoError(err)
	_, err = tn.node.Sign(ctx, &dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: msg})
	req.NoError(err)

	view, err := tn.node.GetWallet(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Equal(2, view.Threshold)
	req.Len(view.Signers, 2)

	// thresholds the codec cannot carry are refused before proposing
	for _, threshold := range []int{-1, 0, 300} {
		_, err = tn.node.SetThreshold(&dto.ThresholdDTO{Caller: a, WalletID: "w1", Threshold: threshold})
		req.ErrorIs(err, wallet.ErrThresholdInvalid)
	}

	// malformed command: retired without effect and without a signature
	malformed := hex.EncodeToString([]byte("SET_THRESHOLD::two"))
	entry, err := tn.node.Propose(&dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: malformed})
	req.NoError(err)
	req.True(entry.Command.Malformed)

	_, err = tn.node.Approve(&dto.CallerMessageDTO{Caller: b, WalletID: "w1", Message: malformed})
	req.NoError(err)

	resp, err = tn.node.Sign(ctx, &dto.CallerMessageDTO{Caller: b, WalletID: "w1", Message: malformed})
	req.NoError(err)
	req.Empty(resp.Signature)
	req.True(resp.Command.Malformed)

	view, err = tn.node.GetWallet(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Equal(2, view.Threshold)
	req.Zero(view.Pending)
}

func TestNodeService_SignFailureRetires(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
	)
	defer ctrl.Finish()

	tn := newTestNode(t, ctrl, nil)
	a := newIdentity()

	tn.expectPersist(3)

	req.NoError(tn.node.CreateWallet(&dto.CreateWalletDTO{WalletID: "w1", Signers: []string{a}, Threshold: 1}))
	_, err := tn.node.Propose(&dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "dead"})
	req.NoError(err)

	tn.signer.EXPECT().Sign(gomock.Any(), "w1", gomock.Any(), keyID).Times(1).Return(nil, errors.New("subnet unavailable"))

	_, err = tn.node.Sign(context.Background(), &dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "dead"})
	req.ErrorIs(err, wallet.ErrExternalFailure)

	msgs, err := tn.node.GetProposedMessages(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Empty(msgs)

	// rejected before signing started, nothing is persisted
	_, err = tn.node.Sign(context.Background(), &dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "dead"})
	req.ErrorIs(err, wallet.ErrCannotSign)
}

func TestNodeService_Metadata(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
	)
	defer ctrl.Finish()

	tn := newTestNode(t, ctrl, nil)
	a, b := newIdentity(), newIdentity()

	tn.expectPersist(3)

	req.NoError(tn.node.CreateWallet(&dto.CreateWalletDTO{WalletID: "w1", Signers: []string{a, b}, Threshold: 2}))
	_, err := tn.node.ProposeWithMetadata(&dto.MessageMetadataDTO{Caller: a, WalletID: "w1", Message: "dead", Metadata: "rent"})
	req.NoError(err)
	req.NoError(tn.node.AddMetadata(&dto.MessageMetadataDTO{Caller: b, WalletID: "w1", Message: "dead", Metadata: "rent, march"}))

	md, err := tn.node.GetMetadata(&dto.CallerMessageDTO{Caller: a, WalletID: "w1", Message: "dead"})
	req.NoError(err)
	req.Equal("rent, march", md.Text)
	req.Equal(wallet.Identity(b), md.Author)

	_, err = tn.node.GetMetadata(&dto.CallerMessageDTO{Caller: newIdentity(), WalletID: "w1", Message: "dead"})
	req.ErrorIs(err, wallet.ErrMetadataNotFound)

	entries, err := tn.node.GetMessagesWithSigners(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("dead", entries[0].Message)
}

func TestNodeService_Restore(t *testing.T) {
	var (
		req  = require.New(t)
		ctrl = gomock.NewController(t)
	)
	defer ctrl.Finish()

	a, b := newIdentity(), newIdentity()

	source := wallet.NewEngine(wallet.NewRegistry(), nil, nil, nil, keyID)
	req.NoError(source.CreateWallet("w1", []wallet.Identity{wallet.Identity(a), wallet.Identity(b)}, 2))
	_, err := source.Propose(wallet.Identity(a), "w1", []byte{0xde, 0xad})
	req.NoError(err)
	snapshot := source.Registry().Snapshot()

	tn := newTestNode(t, ctrl, &snapshot)

	msgs, err := tn.node.GetProposedMessages(&dto.WalletIdDTO{WalletID: "w1"})
	req.NoError(err)
	req.Equal([]string{"dead"}, msgs)

	tn.expectPersist(1)
	approvals, err := tn.node.Approve(&dto.CallerMessageDTO{Caller: b, WalletID: "w1", Message: "dead"})
	req.NoError(err)
	req.Equal(2, approvals)
	req.Equal(uint64(2), tn.node.journalSeq)
}
