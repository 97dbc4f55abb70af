package requests

import "time"

// States: "state_proposal_unproposed"
// Events: "event_proposal_propose"
type ProposalProposeRequest struct {
	Proposer  string
	Threshold int
	CreatedAt time.Time
}

// States: "state_proposal_proposed", "state_proposal_signable", "state_proposal_signing"
// Events: "event_proposal_approve"
type ProposalApproveRequest struct {
	Approver  string
	CreatedAt time.Time
}

// States: "state_proposal_proposed", "state_proposal_signable"
// Events: "event_proposal_revalidate"
type ProposalRevalidateRequest struct {
	Threshold int
	CreatedAt time.Time
}

// States: "state_proposal_signable", "state_proposal_signing"
// Events: "event_proposal_start_signing", "event_proposal_retire"
type ProposalSigningRequest struct {
	Signer    string
	CreatedAt time.Time
}
