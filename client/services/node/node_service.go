package node

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/q3xlabs/q3x/client/api/dto"
	"github.com/q3xlabs/q3x/client/config"
	"github.com/q3xlabs/q3x/client/modules/keystore"
	"github.com/q3xlabs/q3x/client/modules/logger"
	walletrepo "github.com/q3xlabs/q3x/client/repositories/wallet"
	"github.com/q3xlabs/q3x/client/services"
	"github.com/q3xlabs/q3x/fsm/fsm"
	"github.com/q3xlabs/q3x/storage"
	"github.com/q3xlabs/q3x/wallet"
)

// Journal events, one per successful wallet mutation
const (
	EventCreateWallet = "create_wallet"
	EventPropose      = "propose"
	EventApprove      = "approve"
	EventSign         = "sign"
	EventAddMetadata  = "add_metadata"
)

type NodeService interface {
	GetLogger() logger.Logger
	GetPubKey() ed25519.PublicKey
	GetUsername() string

	CreateWallet(dto *dto.CreateWalletDTO) error
	GetWallet(dto *dto.WalletIdDTO) (wallet.WalletView, error)
	GetWalletsForPrincipal(dto *dto.PrincipalDTO) ([]string, error)

	Propose(dto *dto.CallerMessageDTO) (*ProposalEntry, error)
	ProposeWithMetadata(dto *dto.MessageMetadataDTO) (*ProposalEntry, error)
	Approve(dto *dto.CallerMessageDTO) (int, error)
	CanSign(dto *dto.WalletMessageDTO) (bool, error)
	Sign(ctx context.Context, dto *dto.CallerMessageDTO) (*SignResponse, error)
	VerifySignature(ctx context.Context, dto *dto.VerifySignatureDTO) (bool, error)

	GetMessagesToSign(dto *dto.WalletIdDTO) ([]string, error)
	GetProposedMessages(dto *dto.WalletIdDTO) ([]string, error)
	GetMessagesWithSigners(dto *dto.WalletIdDTO) ([]ProposalEntry, error)

	AddSigner(dto *dto.SignerDTO) (string, error)
	RemoveSigner(dto *dto.SignerDTO) (string, error)
	SetThreshold(dto *dto.ThresholdDTO) (string, error)
	Transfer(dto *dto.TransferDTO) (string, error)

	AddMetadata(dto *dto.MessageMetadataDTO) error
	GetMetadata(dto *dto.CallerMessageDTO) (wallet.Metadata, error)

	GetPublicKey(dto *dto.WalletIdDTO) (string, error)
	GetJournal(dto *dto.JournalOffsetDTO) ([]storage.Message, error)
}

// ProposalEntry is a pending message with hex encoded bytes
type ProposalEntry struct {
	Message   string            `json:"message"`
	Command   wallet.Command    `json:"command"`
	State     fsm.State         `json:"state"`
	Proposer  wallet.Identity   `json:"proposer"`
	Signers   []wallet.Identity `json:"signers"`
	Threshold int               `json:"threshold"`
	CanSign   bool              `json:"can_sign"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type SignResponse struct {
	Signature string          `json:"signature"`
	Command   wallet.Command  `json:"command"`
	Receipt   *wallet.Receipt `json:"receipt,omitempty"`
}

type BaseNodeService struct {
	// persistMu orders journal appends and snapshots
	persistMu  sync.Mutex
	journalSeq uint64

	userName   string
	keyPair    *keystore.KeyPair
	storage    storage.Storage
	walletRepo walletrepo.WalletRepo
	engine     *wallet.Engine
	pubKeys    services.PublicKeyProvider
	Logger     logger.Logger
}

// NewNode loads the node keys and restores the wallets from the last snapshot
func NewNode(config *config.Config, sp *services.ServiceProvider) (*BaseNodeService, error) {
	keyPair, err := sp.GetKeyStore().LoadKeys(config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to LoadKeys: %w", err)
	}

	s := &BaseNodeService{
		userName:   config.Username,
		keyPair:    keyPair,
		storage:    sp.GetStorage(),
		walletRepo: sp.GetWalletRepo(),
		engine:     sp.GetEngine(),
		pubKeys:    sp.GetPublicKeyProvider(),
		Logger:     sp.GetLogger(),
	}

	if err = s.restore(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *BaseNodeService) restore() error {
	snapshot, err := s.walletRepo.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("failed to LoadSnapshot: %w", err)
	}
	if snapshot == nil {
		return nil
	}

	if err = s.engine.Registry().Restore(*snapshot); err != nil {
		return fmt.Errorf("failed to restore wallets: %w", err)
	}

	if s.journalSeq, err = s.walletRepo.GetJournalOffset(); err != nil {
		return fmt.Errorf("failed to GetJournalOffset: %w", err)
	}

	s.Logger.Log("Restored %d wallets, journal offset %d", len(snapshot.Wallets), s.journalSeq)
	return nil
}

func (s *BaseNodeService) GetLogger() logger.Logger {
	return s.Logger
}

func (s *BaseNodeService) GetPubKey() ed25519.PublicKey {
	return s.keyPair.Pub
}

func (s *BaseNodeService) GetUsername() string {
	return s.userName
}

func (s *BaseNodeService) CreateWallet(dto *dto.CreateWalletDTO) error {
	signers := make([]wallet.Identity, 0, len(dto.Signers))
	for _, signer := range dto.Signers {
		id, err := wallet.ParseIdentity(signer)
		if err != nil {
			return err
		}
		signers = append(signers, id)
	}

	if err := s.engine.CreateWallet(dto.WalletID, signers, dto.Threshold); err != nil {
		return err
	}

	s.persist(dto.WalletID, EventCreateWallet, dto)
	return nil
}

func (s *BaseNodeService) GetWallet(dto *dto.WalletIdDTO) (wallet.WalletView, error) {
	return s.engine.GetWallet(dto.WalletID)
}

func (s *BaseNodeService) GetWalletsForPrincipal(dto *dto.PrincipalDTO) ([]string, error) {
	id, err := wallet.ParseIdentity(dto.Principal)
	if err != nil {
		return nil, err
	}
	return s.engine.WalletsFor(id), nil
}

func (s *BaseNodeService) Propose(dto *dto.CallerMessageDTO) (*ProposalEntry, error) {
	caller, msg, err := parseCallerMessage(dto.Caller, dto.Message)
	if err != nil {
		return nil, err
	}

	p, err := s.engine.Propose(caller, dto.WalletID, msg)
	if err != nil {
		return nil, err
	}

	s.persist(dto.WalletID, EventPropose, dto)
	return newProposalEntry(p), nil
}

func (s *BaseNodeService) ProposeWithMetadata(dto *dto.MessageMetadataDTO) (*ProposalEntry, error) {
	caller, msg, err := parseCallerMessage(dto.Caller, dto.Message)
	if err != nil {
		return nil, err
	}

	p, err := s.engine.ProposeWithMetadata(caller, dto.WalletID, msg, dto.Metadata)
	if err != nil {
		return nil, err
	}

	s.persist(dto.WalletID, EventPropose, dto)
	return newProposalEntry(p), nil
}

func (s *BaseNodeService) Approve(dto *dto.CallerMessageDTO) (int, error) {
	caller, msg, err := parseCallerMessage(dto.Caller, dto.Message)
	if err != nil {
		return 0, err
	}

	approvals, err := s.engine.Approve(caller, dto.WalletID, msg)
	if err != nil {
		return 0, err
	}

	s.persist(dto.WalletID, EventApprove, dto)
	return approvals, nil
}

func (s *BaseNodeService) CanSign(dto *dto.WalletMessageDTO) (bool, error) {
	msg, err := wallet.DecodeMessage(dto.Message)
	if err != nil {
		return false, err
	}
	return s.engine.CanSign(dto.WalletID, msg)
}

// Sign executes a signable message. A failed attempt still retires the
// message, so the journal records every attempt that passed the checks.
func (s *BaseNodeService) Sign(ctx context.Context, dto *dto.CallerMessageDTO) (*SignResponse, error) {
	caller, msg, err := parseCallerMessage(dto.Caller, dto.Message)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Sign(ctx, caller, dto.WalletID, msg)
	if err != nil && !retired(err) {
		return nil, err
	}

	if result.Command.Malformed {
		s.Logger.Warn("Malformed %s command in message %s of wallet %s was retired without effect",
			result.Command.Kind, dto.Message, dto.WalletID)
	}
	s.persist(dto.WalletID, EventSign, dto)

	if err != nil {
		s.Logger.Error("Failed to execute message %s of wallet %s: %v", dto.Message, dto.WalletID, err)
		return nil, err
	}

	return &SignResponse{
		Signature: hex.EncodeToString(result.Signature),
		Command:   result.Command,
		Receipt:   result.Receipt,
	}, nil
}

// retired reports whether a Sign error happened after the message had been taken for signing
func retired(err error) bool {
	return errors.Is(err, wallet.ErrExternalFailure) || errors.Is(err, wallet.ErrThresholdInvalid)
}

func (s *BaseNodeService) VerifySignature(ctx context.Context, dto *dto.VerifySignatureDTO) (bool, error) {
	msg, err := wallet.DecodeMessage(dto.Message)
	if err != nil {
		return false, err
	}
	signature, err := hex.DecodeString(dto.Signature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}

	return s.engine.VerifySignature(ctx, dto.WalletID, msg, signature)
}

func (s *BaseNodeService) GetMessagesToSign(dto *dto.WalletIdDTO) ([]string, error) {
	msgs, err := s.engine.MessagesToSign(dto.WalletID)
	if err != nil {
		return nil, err
	}
	return encodeMessages(msgs), nil
}

func (s *BaseNodeService) GetProposedMessages(dto *dto.WalletIdDTO) ([]string, error) {
	msgs, err := s.engine.ProposedMessages(dto.WalletID)
	if err != nil {
		return nil, err
	}
	return encodeMessages(msgs), nil
}

func (s *BaseNodeService) GetMessagesWithSigners(dto *dto.WalletIdDTO) ([]ProposalEntry, error) {
	proposals, err := s.engine.MessagesWithSigners(dto.WalletID)
	if err != nil {
		return nil, err
	}

	entries := make([]ProposalEntry, 0, len(proposals))
	for _, p := range proposals {
		entries = append(entries, *newProposalEntry(p))
	}
	return entries, nil
}

func (s *BaseNodeService) AddSigner(dto *dto.SignerDTO) (string, error) {
	signer, err := wallet.ParseIdentity(dto.Signer)
	if err != nil {
		return "", err
	}
	return s.proposeCommand(dto.Caller, dto.WalletID, wallet.AddSignerCommand(signer))
}

func (s *BaseNodeService) RemoveSigner(dto *dto.SignerDTO) (string, error) {
	signer, err := wallet.ParseIdentity(dto.Signer)
	if err != nil {
		return "", err
	}
	return s.proposeCommand(dto.Caller, dto.WalletID, wallet.RemoveSignerCommand(signer))
}

func (s *BaseNodeService) SetThreshold(dto *dto.ThresholdDTO) (string, error) {
	return s.proposeCommand(dto.Caller, dto.WalletID, wallet.SetThresholdCommand(dto.Threshold))
}

func (s *BaseNodeService) Transfer(dto *dto.TransferDTO) (string, error) {
	amount, err := wallet.ParseTokens(dto.Amount)
	if err != nil {
		return "", err
	}
	to, err := wallet.ParseIdentity(dto.To)
	if err != nil {
		return "", err
	}

	var toSubaccount *wallet.Subaccount
	if dto.ToSubaccount != "" {
		if toSubaccount, err = wallet.ParseSubaccount(dto.ToSubaccount); err != nil {
			return "", err
		}
	}

	return s.proposeCommand(dto.Caller, dto.WalletID, wallet.TransferCommand(amount, to, toSubaccount))
}

func (s *BaseNodeService) proposeCommand(callerID, walletID string, cmd wallet.Command) (string, error) {
	caller, err := wallet.ParseIdentity(callerID)
	if err != nil {
		return "", err
	}

	msg, _, err := s.engine.ProposeCommand(caller, walletID, cmd)
	if err != nil {
		return "", err
	}

	hexMsg := wallet.EncodeMessage(msg)
	s.persist(walletID, EventPropose, &dto.CallerMessageDTO{
		Caller:   callerID,
		WalletID: walletID,
		Message:  hexMsg,
	})
	return hexMsg, nil
}

func (s *BaseNodeService) AddMetadata(dto *dto.MessageMetadataDTO) error {
	caller, msg, err := parseCallerMessage(dto.Caller, dto.Message)
	if err != nil {
		return err
	}

	if err = s.engine.AddMetadata(caller, dto.WalletID, msg, dto.Metadata); err != nil {
		return err
	}

	s.persist(dto.WalletID, EventAddMetadata, dto)
	return nil
}

func (s *BaseNodeService) GetMetadata(dto *dto.CallerMessageDTO) (wallet.Metadata, error) {
	caller, msg, err := parseCallerMessage(dto.Caller, dto.Message)
	if err != nil {
		return wallet.Metadata{}, err
	}
	return s.engine.GetMetadata(caller, dto.WalletID, msg)
}

func (s *BaseNodeService) GetPublicKey(dto *dto.WalletIdDTO) (string, error) {
	if _, err := s.engine.GetWallet(dto.WalletID); err != nil {
		return "", err
	}
	if s.pubKeys == nil {
		return "", errors.New("signer does not expose public keys")
	}

	pubKey, err := s.pubKeys.PublicKey(dto.WalletID, s.engine.KeyID())
	if err != nil {
		return "", fmt.Errorf("failed to get public key: %w", err)
	}
	return hex.EncodeToString(pubKey), nil
}

// GetJournal reads journal entries from the offset, only those of one wallet when WalletID is set
func (s *BaseNodeService) GetJournal(dto *dto.JournalOffsetDTO) ([]storage.Message, error) {
	var (
		msgs []storage.Message
		err  error
	)
	if dto.WalletID != "" {
		msgs, err = storage.GetWalletMessages(s.storage, dto.WalletID, dto.Offset)
	} else {
		msgs, err = s.storage.GetMessages(dto.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return msgs, nil
}

// persist appends the mutation to the journal and saves a snapshot of the wallets.
// The mutation has already taken effect, failures are logged only.
func (s *BaseNodeService) persist(walletID, event string, payload interface{}) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err := s.appendJournal(walletID, event, payload); err != nil {
		s.Logger.Error("Failed to append %s of wallet %s to journal: %v", event, walletID, err)
	} else {
		s.journalSeq++
	}

	if err := s.walletRepo.SaveSnapshot(s.engine.Registry().Snapshot(), s.journalSeq); err != nil {
		s.Logger.Error("Failed to save wallets snapshot: %v", err)
	}
}

func (s *BaseNodeService) appendJournal(walletID, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := storage.Message{
		ID:         uuid.New().String(),
		WalletID:   walletID,
		Event:      event,
		Data:       data,
		SenderAddr: s.GetUsername(),
	}
	message.Signature = ed25519.Sign(s.keyPair.Priv, message.Bytes())

	return s.storage.Send(message)
}

func parseCallerMessage(callerID, hexMsg string) (wallet.Identity, []byte, error) {
	caller, err := wallet.ParseIdentity(callerID)
	if err != nil {
		return "", nil, err
	}
	msg, err := wallet.DecodeMessage(hexMsg)
	if err != nil {
		return "", nil, err
	}
	return caller, msg, nil
}

func encodeMessages(msgs [][]byte) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, wallet.EncodeMessage(msg))
	}
	return out
}

func newProposalEntry(p wallet.Proposal) *ProposalEntry {
	return &ProposalEntry{
		Message:   wallet.EncodeMessage(p.Message),
		Command:   p.Command,
		State:     p.State,
		Proposer:  p.Proposer,
		Signers:   p.Approvals,
		Threshold: p.Threshold,
		CanSign:   p.CanSign(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
