package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/q3xlabs/q3x/fsm/state_machines/proposal_fsm"
)

var errCapabilityMissing = errors.New("capability is not configured")

// Engine runs wallet operations against a Registry. Calls to the external
// signer and transferer are made without holding the registry lock.
type Engine struct {
	registry   *Registry
	signer     Signer
	verifier   Verifier
	transferer Transferer
	keyID      KeyID
	now        func() time.Time
}

type EngineOption func(e *Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(registry *Registry, signer Signer, verifier Verifier, transferer Transferer, keyID KeyID, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:   registry,
		signer:     signer,
		verifier:   verifier,
		transferer: transferer,
		keyID:      keyID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) KeyID() KeyID {
	return e.keyID
}

// SignResult is the outcome of a signing attempt. Special commands produce no signature.
type SignResult struct {
	Signature []byte   `json:"signature"`
	Command   Command  `json:"command"`
	Receipt   *Receipt `json:"receipt,omitempty"`
}

func (e *Engine) CreateWallet(id string, signers []Identity, threshold int) error {
	if id == "" {
		return errors.New("wallet id cannot be empty")
	}

	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	if _, ok := e.registry.wallets[id]; ok {
		return fmt.Errorf("%w: %q", ErrWalletAlreadyExists, id)
	}

	w, err := newWallet(id, signers, threshold)
	if err != nil {
		return err
	}

	e.registry.wallets[id] = w
	for _, signer := range w.signerList() {
		e.registry.book.register(signer, id)
	}

	return nil
}

func (e *Engine) GetWallet(id string) (WalletView, error) {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	w, err := e.registry.wallet(id)
	if err != nil {
		return WalletView{}, err
	}
	return w.view(), nil
}

func (e *Engine) WalletsFor(id Identity) []string {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	return e.registry.book.WalletsFor(id)
}

func (e *Engine) Propose(caller Identity, walletID string, msg []byte) (Proposal, error) {
	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	return e.propose(caller, walletID, msg)
}

// ProposeWithMetadata proposes msg and annotates it, nothing is stored if either step fails
func (e *Engine) ProposeWithMetadata(caller Identity, walletID string, msg []byte, text string) (Proposal, error) {
	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	p, err := e.propose(caller, walletID, msg)
	if err != nil {
		return Proposal{}, err
	}

	if err = e.addMetadata(caller, walletID, msg, text); err != nil {
		return Proposal{}, err
	}

	return p, nil
}

// ProposeCommand encodes cmd and proposes it on behalf of caller
func (e *Engine) ProposeCommand(caller Identity, walletID string, cmd Command) ([]byte, Proposal, error) {
	msg, err := cmd.Encode()
	if err != nil {
		return nil, Proposal{}, err
	}

	p, err := e.Propose(caller, walletID, msg)
	if err != nil {
		return msg, Proposal{}, err
	}
	return msg, p, nil
}

func (e *Engine) propose(caller Identity, walletID string, msg []byte) (Proposal, error) {
	w, err := e.registry.wallet(walletID)
	if err != nil {
		return Proposal{}, err
	}

	if !w.isSigner(caller) {
		return Proposal{}, fmt.Errorf("%w: %s", ErrNotSigner, caller)
	}

	p, err := w.messages.propose(msg, caller, w.threshold, e.now())
	if err != nil {
		return Proposal{}, err
	}

	return p.view(), nil
}

// Approve records the approval of caller and returns the approvals count
func (e *Engine) Approve(caller Identity, walletID string, msg []byte) (int, error) {
	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return 0, err
	}

	if !w.isSigner(caller) {
		return 0, fmt.Errorf("%w: %s", ErrNotSigner, caller)
	}

	return w.messages.approve(msg, caller, e.now())
}

func (e *Engine) CanSign(walletID string, msg []byte) (bool, error) {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return false, err
	}
	return w.messages.canSign(msg), nil
}

// Sign executes a signable message: special commands are applied to the
// wallet, opaque messages go to the external signer. The message is retired
// whatever the outcome of the attempt.
func (e *Engine) Sign(ctx context.Context, caller Identity, walletID string, msg []byte) (SignResult, error) {
	cmd, err := e.startSigning(caller, walletID, msg)
	if err != nil {
		return SignResult{}, err
	}

	result := SignResult{Command: cmd}

	var execErr error
	switch {
	case cmd.Malformed:
	case cmd.Kind == CommandOpaque:
		result.Signature, execErr = e.sign(ctx, walletID, msg)
	case cmd.Kind == CommandTransfer:
		result.Receipt, execErr = e.transfer(ctx, walletID, cmd)
	}

	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return result, err
	}

	if execErr == nil && !cmd.Malformed {
		execErr = e.apply(w, cmd)
	}

	if err = w.retire(msg, caller, e.now()); err != nil && execErr == nil {
		execErr = err
	}

	return result, execErr
}

func (e *Engine) startSigning(caller Identity, walletID string, msg []byte) (Command, error) {
	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return Command{}, err
	}

	if !w.isSigner(caller) {
		return Command{}, fmt.Errorf("%w: %s", ErrNotSigner, caller)
	}

	p, err := w.messages.startSigning(msg, caller, e.now())
	if err != nil {
		return Command{}, err
	}

	return p.command, nil
}

func (e *Engine) sign(ctx context.Context, walletID string, msg []byte) ([]byte, error) {
	if e.signer == nil {
		return nil, &ExternalError{Op: "sign", Err: errCapabilityMissing}
	}

	signature, err := e.signer.Sign(ctx, walletID, msg, e.keyID)
	if err != nil {
		return nil, &ExternalError{Op: "sign", Err: err}
	}
	return signature, nil
}

func (e *Engine) transfer(ctx context.Context, walletID string, cmd Command) (*Receipt, error) {
	if e.transferer == nil {
		return nil, &ExternalError{Op: "transfer", Err: errCapabilityMissing}
	}

	receipt, err := e.transferer.Transfer(ctx, TransferArgs{
		From:         walletID,
		Amount:       cmd.Amount,
		To:           cmd.To,
		ToSubaccount: cmd.ToSubaccount,
	})
	if err != nil {
		return nil, &ExternalError{Op: "transfer", Err: err}
	}
	return &receipt, nil
}

// apply must be called with the registry lock held
func (e *Engine) apply(w *Wallet, cmd Command) error {
	switch cmd.Kind {
	case CommandAddSigner:
		w.addSigner(cmd.Signer)
		e.registry.book.register(cmd.Signer, w.id)
	case CommandRemoveSigner:
		w.removeSigner(cmd.Signer)
		e.registry.book.unregister(cmd.Signer, w.id)
	case CommandSetThreshold:
		if err := w.setThreshold(cmd.Threshold); err != nil {
			return err
		}
		return w.messages.revalidate(cmd.Threshold, e.now())
	}
	return nil
}

func (e *Engine) VerifySignature(ctx context.Context, walletID string, msg, signature []byte) (bool, error) {
	if _, err := e.GetWallet(walletID); err != nil {
		return false, err
	}

	if e.verifier == nil {
		return false, &ExternalError{Op: "verify", Err: errCapabilityMissing}
	}

	valid, err := e.verifier.Verify(ctx, walletID, msg, signature, e.keyID)
	if err != nil {
		return false, &ExternalError{Op: "verify", Err: err}
	}
	return valid, nil
}

// MessagesToSign lists messages ready for signing, in flight ones excluded
func (e *Engine) MessagesToSign(walletID string) ([][]byte, error) {
	return e.messages(walletID, func(p *proposal) bool {
		return p.machine.State() == proposal_fsm.StateProposalSignable
	})
}

// ProposedMessages lists all pending messages
func (e *Engine) ProposedMessages(walletID string) ([][]byte, error) {
	return e.messages(walletID, nil)
}

func (e *Engine) messages(walletID string, filter func(p *proposal) bool) ([][]byte, error) {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return nil, err
	}

	proposals := w.messages.list(filter)
	out := make([][]byte, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, append([]byte(nil), p.message...))
	}
	return out, nil
}

// MessagesWithSigners lists pending messages along with their approvals
func (e *Engine) MessagesWithSigners(walletID string) ([]Proposal, error) {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return nil, err
	}

	proposals := w.messages.list(nil)
	out := make([]Proposal, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, p.view())
	}
	return out, nil
}

func (e *Engine) GetProposal(walletID string, msg []byte) (Proposal, error) {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return Proposal{}, err
	}

	p, ok := w.messages.get(msg)
	if !ok {
		return Proposal{}, ErrMsgNotQueued
	}
	return p.view(), nil
}

// AddMetadata annotates a pending message, replacing any previous annotation
func (e *Engine) AddMetadata(caller Identity, walletID string, msg []byte, text string) error {
	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	return e.addMetadata(caller, walletID, msg, text)
}

func (e *Engine) addMetadata(caller Identity, walletID string, msg []byte, text string) error {
	w, err := e.registry.wallet(walletID)
	if err != nil {
		return err
	}

	if !w.isSigner(caller) {
		return fmt.Errorf("%w: %s", ErrNotSigner, caller)
	}

	if _, ok := w.messages.get(msg); !ok {
		return ErrMsgNotQueued
	}

	w.metadata.put(msg, Metadata{
		Text:      text,
		Author:    caller,
		UpdatedAt: e.now(),
	})
	return nil
}

// GetMetadata returns the annotation of msg, non-signers get ErrMetadataNotFound
func (e *Engine) GetMetadata(caller Identity, walletID string, msg []byte) (Metadata, error) {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	w, err := e.registry.wallet(walletID)
	if err != nil {
		return Metadata{}, err
	}

	if !w.isSigner(caller) {
		return Metadata{}, ErrMetadataNotFound
	}

	md, ok := w.metadata.get(msg)
	if !ok {
		return Metadata{}, ErrMetadataNotFound
	}
	return md, nil
}
