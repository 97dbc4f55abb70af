package requests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProposalRequests_Validate(t *testing.T) {
	req := require.New(t)
	now := time.Now()

	propose := ProposalProposeRequest{Proposer: "a", Threshold: 1, CreatedAt: now}
	req.NoError(propose.Validate())

	propose.Threshold = 0
	req.EqualError(propose.Validate(), "{Threshold} cannot be less than 1")

	propose = ProposalProposeRequest{Threshold: 2, CreatedAt: now}
	req.EqualError(propose.Validate(), "{Proposer} cannot be empty")

	approve := ProposalApproveRequest{Approver: "b"}
	req.EqualError(approve.Validate(), "{CreatedAt} is not set")

	revalidate := ProposalRevalidateRequest{Threshold: 3, CreatedAt: now}
	req.NoError(revalidate.Validate())

	signing := ProposalSigningRequest{CreatedAt: now}
	req.EqualError(signing.Validate(), "{Signer} cannot be empty")
}
