package proposal_fsm

import (
	"errors"
	"sort"
	"time"
)

var ErrAlreadyApproved = errors.New("participant already approved the proposal")

// ProposalQuorum maps an approver to its approval time
type ProposalQuorum map[string]time.Time

func (q ProposalQuorum) Has(approver string) bool {
	_, ok := q[approver]
	return ok
}

// Approvers returns approvers in ascending order
func (q ProposalQuorum) Approvers() []string {
	approvers := make([]string, 0, len(q))
	for approver := range q {
		approvers = append(approvers, approver)
	}
	sort.Strings(approvers)
	return approvers
}

type ProposalPayload struct {
	Proposer  string         `json:"proposer"`
	Quorum    ProposalQuorum `json:"quorum"`
	Threshold int            `json:"threshold"`
	SignedBy  string         `json:"signed_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (p *ProposalPayload) QuorumReached() bool {
	return len(p.Quorum) >= p.Threshold
}

func (p *ProposalPayload) copy() ProposalPayload {
	out := *p
	out.Quorum = make(ProposalQuorum, len(p.Quorum))
	for approver, at := range p.Quorum {
		out.Quorum[approver] = at
	}
	return out
}
