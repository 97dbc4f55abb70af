package wallet

import "time"

// Metadata is a free text annotation bound to a pending message
type Metadata struct {
	Text      string    `json:"text"`
	Author    Identity  `json:"author"`
	UpdatedAt time.Time `json:"updated_at"`
}

type metadataStore map[string]Metadata

func (s metadataStore) put(msg []byte, md Metadata) {
	s[string(msg)] = md
}

func (s metadataStore) get(msg []byte) (Metadata, bool) {
	md, ok := s[string(msg)]
	return md, ok
}

func (s metadataStore) drop(msg []byte) {
	delete(s, string(msg))
}
