package wallet

// AddressBook maps an identity to the wallets it signs for, in insertion order
type AddressBook struct {
	entries map[Identity][]string
}

func NewAddressBook() *AddressBook {
	return &AddressBook{entries: make(map[Identity][]string)}
}

func (b *AddressBook) register(id Identity, walletID string) {
	for _, existing := range b.entries[id] {
		if existing == walletID {
			return
		}
	}
	b.entries[id] = append(b.entries[id], walletID)
}

func (b *AddressBook) unregister(id Identity, walletID string) {
	wallets, ok := b.entries[id]
	if !ok {
		return
	}

	kept := wallets[:0]
	for _, existing := range wallets {
		if existing != walletID {
			kept = append(kept, existing)
		}
	}

	if len(kept) == 0 {
		delete(b.entries, id)
		return
	}
	b.entries[id] = kept
}

// WalletsFor returns a copy of the entry of id, empty when unknown
func (b *AddressBook) WalletsFor(id Identity) []string {
	out := make([]string, len(b.entries[id]))
	copy(out, b.entries[id])
	return out
}
