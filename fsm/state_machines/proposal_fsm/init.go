package proposal_fsm

import (
	"sync"

	"github.com/q3xlabs/q3x/fsm/fsm"
)

const (
	FsmName = "proposal_fsm"

	StateProposalUnproposed = fsm.State("state_proposal_unproposed")

	// Awaiting approvals
	StateProposalProposed = fsm.State("state_proposal_proposed")

	// Approvals reached the threshold
	StateProposalSignable = fsm.State("state_proposal_signable")

	// External call or command execution in progress
	StateProposalSigning = fsm.State("state_proposal_signing")

	StateProposalRetired = fsm.State("state_proposal_retired")

	// Events

	EventPropose      = fsm.Event("event_proposal_propose")
	EventApprove      = fsm.Event("event_proposal_approve")
	EventRevalidate   = fsm.Event("event_proposal_revalidate")
	EventStartSigning = fsm.Event("event_proposal_start_signing")
	EventRetire       = fsm.Event("event_proposal_retire")

	eventAutoValidateQuorumInternal = fsm.Event("event_proposal_validate_quorum")
	eventSetSignableInternal        = fsm.Event("event_proposal_set_signable")
	eventSetProposedInternal        = fsm.Event("event_proposal_set_proposed")
)

type ProposalFSM struct {
	*fsm.FSM
	payload   *ProposalPayload
	payloadMu sync.RWMutex
}

func New() *ProposalFSM {
	machine := &ProposalFSM{
		payload: &ProposalPayload{
			Quorum: make(ProposalQuorum),
		},
	}

	machine.FSM = fsm.MustNewFSM(
		FsmName,
		StateProposalUnproposed,
		[]fsm.EventDesc{
			{Name: EventPropose, SrcState: []fsm.State{StateProposalUnproposed}, DstState: StateProposalProposed},

			// Approvals keep coming until retirement
			{Name: EventApprove, SrcState: []fsm.State{StateProposalProposed}, DstState: StateProposalProposed},
			{Name: EventApprove, SrcState: []fsm.State{StateProposalSignable}, DstState: StateProposalSignable},

			// Validate
			{Name: eventAutoValidateQuorumInternal, SrcState: []fsm.State{StateProposalProposed}, DstState: StateProposalProposed, IsInternal: true, IsAuto: true},
			{Name: eventSetSignableInternal, SrcState: []fsm.State{StateProposalProposed}, DstState: StateProposalSignable, IsInternal: true},

			// Threshold changed
			{Name: EventRevalidate, SrcState: []fsm.State{StateProposalProposed}, DstState: StateProposalProposed},
			{Name: EventRevalidate, SrcState: []fsm.State{StateProposalSignable}, DstState: StateProposalSignable},
			{Name: eventSetProposedInternal, SrcState: []fsm.State{StateProposalSignable}, DstState: StateProposalProposed, IsInternal: true},

			{Name: EventStartSigning, SrcState: []fsm.State{StateProposalSignable}, DstState: StateProposalSigning},
			{Name: EventRetire, SrcState: []fsm.State{StateProposalSigning}, DstState: StateProposalRetired},
		},
		fsm.Callbacks{
			EventPropose:                    machine.actionPropose,
			EventApprove:                    machine.actionApprove,
			eventAutoValidateQuorumInternal: machine.actionValidateQuorum,
			EventRevalidate:                 machine.actionRevalidate,
			EventStartSigning:               machine.actionStartSigning,
			EventRetire:                     machine.actionRetire,
		},
	)

	return machine
}

// WithSetup positions the machine at state over a previously dumped payload
func (m *ProposalFSM) WithSetup(state fsm.State, payload *ProposalPayload) *ProposalFSM {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	m.payload = payload
	if m.payload.Quorum == nil {
		m.payload.Quorum = make(ProposalQuorum)
	}
	m.FSM = m.FSM.MustCopyWithState(state)
	return m
}

// Payload returns a copy of the machine payload
func (m *ProposalFSM) Payload() ProposalPayload {
	m.payloadMu.RLock()
	defer m.payloadMu.RUnlock()

	return m.payload.copy()
}

func (m *ProposalFSM) IsPending() bool {
	switch m.State() {
	case StateProposalProposed, StateProposalSignable, StateProposalSigning:
		return true
	}
	return false
}

// CanSign reports whether approvals reached the threshold
func (m *ProposalFSM) CanSign() bool {
	state := m.State()
	return state == StateProposalSignable || state == StateProposalSigning
}
