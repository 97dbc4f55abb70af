package requests

import "errors"

func (r *ProposalProposeRequest) Validate() error {
	if r.Proposer == "" {
		return errors.New("{Proposer} cannot be empty")
	}

	if r.Threshold < 1 {
		return errors.New("{Threshold} cannot be less than 1")
	}

	if r.CreatedAt.IsZero() {
		return errors.New("{CreatedAt} is not set")
	}

	return nil
}

func (r *ProposalApproveRequest) Validate() error {
	if r.Approver == "" {
		return errors.New("{Approver} cannot be empty")
	}

	if r.CreatedAt.IsZero() {
		return errors.New("{CreatedAt} is not set")
	}

	return nil
}

func (r *ProposalRevalidateRequest) Validate() error {
	if r.Threshold < 1 {
		return errors.New("{Threshold} cannot be less than 1")
	}

	if r.CreatedAt.IsZero() {
		return errors.New("{CreatedAt} is not set")
	}

	return nil
}

func (r *ProposalSigningRequest) Validate() error {
	if r.Signer == "" {
		return errors.New("{Signer} cannot be empty")
	}

	if r.CreatedAt.IsZero() {
		return errors.New("{CreatedAt} is not set")
	}

	return nil
}
