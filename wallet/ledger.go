package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/btree"

	"github.com/q3xlabs/q3x/fsm/fsm"
	"github.com/q3xlabs/q3x/fsm/state_machines/proposal_fsm"
	"github.com/q3xlabs/q3x/fsm/types/requests"
)

const ledgerDegree = 8

// Proposal is a read-only view of a pending message
type Proposal struct {
	Message   []byte     `json:"message"`
	Command   Command    `json:"command"`
	State     fsm.State  `json:"state"`
	Proposer  Identity   `json:"proposer"`
	Approvals []Identity `json:"approvals"`
	Threshold int        `json:"threshold"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p Proposal) CanSign() bool {
	return p.State == proposal_fsm.StateProposalSignable || p.State == proposal_fsm.StateProposalSigning
}

type proposal struct {
	message []byte
	command Command
	machine *proposal_fsm.ProposalFSM
}

func (p *proposal) Less(than btree.Item) bool {
	return string(p.message) < string(than.(*proposal).message)
}

func (p *proposal) view() Proposal {
	payload := p.machine.Payload()

	approvals := make([]Identity, 0, len(payload.Quorum))
	for _, approver := range payload.Quorum.Approvers() {
		approvals = append(approvals, Identity(approver))
	}

	msg := make([]byte, len(p.message))
	copy(msg, p.message)

	return Proposal{
		Message:   msg,
		Command:   p.command,
		State:     p.machine.State(),
		Proposer:  Identity(payload.Proposer),
		Approvals: approvals,
		Threshold: payload.Threshold,
		CreatedAt: payload.CreatedAt,
		UpdatedAt: payload.UpdatedAt,
	}
}

// messageLedger keeps pending proposals ordered by message bytes
type messageLedger struct {
	proposals *btree.BTree
}

func newMessageLedger() *messageLedger {
	return &messageLedger{proposals: btree.New(ledgerDegree)}
}

func (l *messageLedger) get(msg []byte) (*proposal, bool) {
	item := l.proposals.Get(&proposal{message: msg})
	if item == nil {
		return nil, false
	}
	return item.(*proposal), true
}

func (l *messageLedger) propose(msg []byte, proposer Identity, threshold int, at time.Time) (*proposal, error) {
	if _, ok := l.get(msg); ok {
		return nil, ErrMsgAlreadyQueued
	}

	p := &proposal{
		message: append([]byte(nil), msg...),
		command: DecodeCommand(msg),
		machine: proposal_fsm.New(),
	}

	_, err := p.machine.Do(proposal_fsm.EventPropose, requests.ProposalProposeRequest{
		Proposer:  proposer.String(),
		Threshold: threshold,
		CreatedAt: at,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to propose message: %w", err)
	}

	l.proposals.ReplaceOrInsert(p)
	return p, nil
}

func (l *messageLedger) approve(msg []byte, approver Identity, at time.Time) (int, error) {
	p, ok := l.get(msg)
	if !ok {
		return 0, ErrMsgNotQueued
	}
	if p.machine.State() == proposal_fsm.StateProposalSigning {
		return 0, ErrSignInFlight
	}

	resp, err := p.machine.Do(proposal_fsm.EventApprove, requests.ProposalApproveRequest{
		Approver:  approver.String(),
		CreatedAt: at,
	})
	if err != nil {
		if errors.Is(err, proposal_fsm.ErrAlreadyApproved) {
			return 0, ErrDuplicateApproval
		}
		return 0, fmt.Errorf("failed to approve message: %w", err)
	}

	count, _ := resp.Data.(int)
	return count, nil
}

func (l *messageLedger) canSign(msg []byte) bool {
	p, ok := l.get(msg)
	return ok && p.machine.CanSign()
}

// startSigning marks the proposal in flight, only one signing attempt may hold it
func (l *messageLedger) startSigning(msg []byte, signer Identity, at time.Time) (*proposal, error) {
	p, ok := l.get(msg)
	if !ok {
		return nil, ErrCannotSign
	}

	switch p.machine.State() {
	case proposal_fsm.StateProposalSigning:
		return nil, ErrSignInFlight
	case proposal_fsm.StateProposalSignable:
	default:
		return nil, ErrCannotSign
	}

	_, err := p.machine.Do(proposal_fsm.EventStartSigning, requests.ProposalSigningRequest{
		Signer:    signer.String(),
		CreatedAt: at,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotSign, err)
	}

	return p, nil
}

// retire drops the proposal after its signing attempt
func (l *messageLedger) retire(msg []byte, signer Identity, at time.Time) error {
	p, ok := l.get(msg)
	if !ok {
		return ErrMsgNotQueued
	}

	_, err := p.machine.Do(proposal_fsm.EventRetire, requests.ProposalSigningRequest{
		Signer:    signer.String(),
		CreatedAt: at,
	})
	l.proposals.Delete(p)
	if err != nil {
		return fmt.Errorf("failed to retire message: %w", err)
	}
	return nil
}

// revalidate applies a new threshold to proposals awaiting signing
func (l *messageLedger) revalidate(threshold int, at time.Time) error {
	var errs []error
	l.proposals.Ascend(func(item btree.Item) bool {
		p := item.(*proposal)
		if !p.machine.Can(proposal_fsm.EventRevalidate) {
			return true
		}
		_, err := p.machine.Do(proposal_fsm.EventRevalidate, requests.ProposalRevalidateRequest{
			Threshold: threshold,
			CreatedAt: at,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("message %s: %w", EncodeMessage(p.message), err))
		}
		return true
	})
	if len(errs) > 0 {
		return fmt.Errorf("failed to revalidate proposals: %v", errs)
	}
	return nil
}

func (l *messageLedger) list(filter func(p *proposal) bool) []*proposal {
	var out []*proposal
	l.proposals.Ascend(func(item btree.Item) bool {
		p := item.(*proposal)
		if filter == nil || filter(p) {
			out = append(out, p)
		}
		return true
	})
	return out
}

func (l *messageLedger) size() int {
	return l.proposals.Len()
}

func (l *messageLedger) restore(msg []byte, state fsm.State, payload proposal_fsm.ProposalPayload) {
	p := &proposal{
		message: append([]byte(nil), msg...),
		command: DecodeCommand(msg),
		machine: proposal_fsm.New().WithSetup(state, &payload),
	}
	l.proposals.ReplaceOrInsert(p)
}
