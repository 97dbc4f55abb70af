package wallet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/q3xlabs/q3x/fsm/fsm"
	"github.com/q3xlabs/q3x/fsm/state_machines/proposal_fsm"
)

// Registry owns all wallets and the address book behind a single reader/writer lock
type Registry struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
	book    *AddressBook
}

func NewRegistry() *Registry {
	return &Registry{
		wallets: make(map[string]*Wallet),
		book:    NewAddressBook(),
	}
}

// wallet must be called with mu held
func (r *Registry) wallet(id string) (*Wallet, error) {
	w, ok := r.wallets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, id)
	}
	return w, nil
}

type Snapshot struct {
	Wallets     []WalletSnapshot      `json:"wallets"`
	AddressBook map[Identity][]string `json:"address_book"`
}

type WalletSnapshot struct {
	ID        string             `json:"id"`
	Signers   []Identity         `json:"signers"`
	Threshold int                `json:"threshold"`
	Proposals []ProposalSnapshot `json:"proposals"`
	Metadata  []MetadataSnapshot `json:"metadata"`
}

type ProposalSnapshot struct {
	Message []byte                       `json:"message"`
	State   fsm.State                    `json:"state"`
	Payload proposal_fsm.ProposalPayload `json:"payload"`
}

type MetadataSnapshot struct {
	Message  []byte   `json:"message"`
	Metadata Metadata `json:"metadata"`
}

// Snapshot dumps the registry, wallets ordered by id
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := Snapshot{
		Wallets:     make([]WalletSnapshot, 0, len(r.wallets)),
		AddressBook: make(map[Identity][]string, len(r.book.entries)),
	}

	for id := range r.book.entries {
		snapshot.AddressBook[id] = r.book.WalletsFor(id)
	}

	for _, w := range r.wallets {
		ws := WalletSnapshot{
			ID:        w.id,
			Signers:   w.signerList(),
			Threshold: w.threshold,
		}
		for _, p := range w.messages.list(nil) {
			ws.Proposals = append(ws.Proposals, ProposalSnapshot{
				Message: append([]byte(nil), p.message...),
				State:   p.machine.State(),
				Payload: p.machine.Payload(),
			})
		}
		for msg, md := range w.metadata {
			ws.Metadata = append(ws.Metadata, MetadataSnapshot{Message: []byte(msg), Metadata: md})
		}
		sort.Slice(ws.Metadata, func(i, j int) bool {
			return string(ws.Metadata[i].Message) < string(ws.Metadata[j].Message)
		})
		snapshot.Wallets = append(snapshot.Wallets, ws)
	}
	sort.Slice(snapshot.Wallets, func(i, j int) bool {
		return snapshot.Wallets[i].ID < snapshot.Wallets[j].ID
	})

	return snapshot
}

// Restore replaces the registry content with snapshot. Proposals dumped in
// flight come back signable, their signing attempt never completed.
func (r *Registry) Restore(snapshot Snapshot) error {
	wallets := make(map[string]*Wallet, len(snapshot.Wallets))

	for _, ws := range snapshot.Wallets {
		if _, ok := wallets[ws.ID]; ok {
			return fmt.Errorf("%w: %q", ErrWalletAlreadyExists, ws.ID)
		}

		w := &Wallet{
			id:        ws.ID,
			signers:   make(map[Identity]struct{}, len(ws.Signers)),
			threshold: ws.Threshold,
			messages:  newMessageLedger(),
			metadata:  make(metadataStore),
		}
		for _, signer := range ws.Signers {
			w.signers[signer] = struct{}{}
		}
		if w.threshold < 1 {
			return fmt.Errorf("wallet %q: %w: threshold %d", ws.ID, ErrThresholdInvalid, ws.Threshold)
		}

		for _, ps := range ws.Proposals {
			state := ps.State
			switch state {
			case proposal_fsm.StateProposalSigning:
				state = proposal_fsm.StateProposalSignable
			case proposal_fsm.StateProposalProposed, proposal_fsm.StateProposalSignable:
			default:
				return fmt.Errorf("wallet %q: unexpected proposal state %q", ws.ID, ps.State)
			}
			w.messages.restore(ps.Message, state, ps.Payload)
		}

		for _, ms := range ws.Metadata {
			w.metadata.put(ms.Message, ms.Metadata)
		}

		wallets[ws.ID] = w
	}

	book := NewAddressBook()
	for id, walletIDs := range snapshot.AddressBook {
		for _, walletID := range walletIDs {
			book.register(id, walletID)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.wallets = wallets
	r.book = book

	return nil
}
