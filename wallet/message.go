package wallet

import (
	"encoding/hex"
	"fmt"
)

// DecodeMessage decodes a hex message received at the boundary
func DecodeMessage(s string) ([]byte, error) {
	msg, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return msg, nil
}

func EncodeMessage(msg []byte) string {
	return hex.EncodeToString(msg)
}
