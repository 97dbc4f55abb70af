package proposal_fsm

import (
	"errors"
	"fmt"

	"github.com/q3xlabs/q3x/fsm/fsm"
	"github.com/q3xlabs/q3x/fsm/types/requests"
)

func (m *ProposalFSM) actionPropose(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	if len(args) != 1 {
		err = errors.New("{arg0} required {ProposalProposeRequest}")
		return
	}

	request, ok := args[0].(requests.ProposalProposeRequest)
	if !ok {
		err = errors.New("cannot cast {arg0} to type {ProposalProposeRequest}")
		return
	}

	if err = request.Validate(); err != nil {
		return
	}

	m.payload.Proposer = request.Proposer
	m.payload.Threshold = request.Threshold
	m.payload.Quorum = ProposalQuorum{
		request.Proposer: request.CreatedAt,
	}
	m.payload.CreatedAt = request.CreatedAt
	m.payload.UpdatedAt = request.CreatedAt

	return inEvent, len(m.payload.Quorum), nil
}

func (m *ProposalFSM) actionApprove(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	if len(args) != 1 {
		err = errors.New("{arg0} required {ProposalApproveRequest}")
		return
	}

	request, ok := args[0].(requests.ProposalApproveRequest)
	if !ok {
		err = errors.New("cannot cast {arg0} to type {ProposalApproveRequest}")
		return
	}

	if err = request.Validate(); err != nil {
		return
	}

	if m.payload.Quorum.Has(request.Approver) {
		err = fmt.Errorf("{Approver} = {\"%s\"}: %w", request.Approver, ErrAlreadyApproved)
		return
	}

	m.payload.Quorum[request.Approver] = request.CreatedAt
	m.payload.UpdatedAt = request.CreatedAt

	return inEvent, len(m.payload.Quorum), nil
}

func (m *ProposalFSM) actionValidateQuorum(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.RLock()
	defer m.payloadMu.RUnlock()

	if !m.payload.QuorumReached() {
		return
	}

	outEvent = eventSetSignableInternal

	return
}

func (m *ProposalFSM) actionRevalidate(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	if len(args) != 1 {
		err = errors.New("{arg0} required {ProposalRevalidateRequest}")
		return
	}

	request, ok := args[0].(requests.ProposalRevalidateRequest)
	if !ok {
		err = errors.New("cannot cast {arg0} to type {ProposalRevalidateRequest}")
		return
	}

	if err = request.Validate(); err != nil {
		return
	}

	m.payload.Threshold = request.Threshold
	m.payload.UpdatedAt = request.CreatedAt

	// Promotion is handled by the quorum validation of the proposed state
	if m.State() == StateProposalSignable && !m.payload.QuorumReached() {
		outEvent = eventSetProposedInternal
	}

	return
}

func (m *ProposalFSM) actionStartSigning(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	request, err := signingRequest(args...)
	if err != nil {
		return
	}

	if !m.payload.QuorumReached() {
		err = fmt.Errorf("quorum is not reached: %d of %d", len(m.payload.Quorum), m.payload.Threshold)
		return
	}

	m.payload.SignedBy = request.Signer
	m.payload.UpdatedAt = request.CreatedAt

	return
}

func (m *ProposalFSM) actionRetire(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	request, err := signingRequest(args...)
	if err != nil {
		return
	}

	m.payload.UpdatedAt = request.CreatedAt

	return
}

func signingRequest(args ...interface{}) (request requests.ProposalSigningRequest, err error) {
	if len(args) != 1 {
		err = errors.New("{arg0} required {ProposalSigningRequest}")
		return
	}

	request, ok := args[0].(requests.ProposalSigningRequest)
	if !ok {
		err = errors.New("cannot cast {arg0} to type {ProposalSigningRequest}")
		return
	}

	err = request.Validate()
	return
}
