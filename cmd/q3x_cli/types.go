package main

import (
	"github.com/q3xlabs/q3x/client/api/http_api/responses"
	"github.com/q3xlabs/q3x/client/services/node"
	"github.com/q3xlabs/q3x/storage"
	"github.com/q3xlabs/q3x/wallet"
)

type Response = responses.BaseResponse

type (
	ProposalResponse  = node.ProposalEntry
	SignResponse      = node.SignResponse
	WalletResponse    = wallet.WalletView
	MetadataResponse  = wallet.Metadata
	JournalResponse   = []storage.Message
	ProposalsResponse = []node.ProposalEntry
)
