package wallet

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	prefixAddSigner    = "ADD_SIGNER::"
	prefixRemoveSigner = "REMOVE_SIGNER::"
	prefixSetThreshold = "SET_THRESHOLD::"
	prefixTransfer     = "TRANSFER::"

	commandSeparator = "::"

	// MaxThreshold is the largest threshold a SET_THRESHOLD message can carry
	MaxThreshold = math.MaxUint8
)

type CommandKind uint8

const (
	CommandOpaque CommandKind = iota
	CommandAddSigner
	CommandRemoveSigner
	CommandSetThreshold
	CommandTransfer
)

func (k CommandKind) String() string {
	switch k {
	case CommandOpaque:
		return "opaque"
	case CommandAddSigner:
		return "add_signer"
	case CommandRemoveSigner:
		return "remove_signer"
	case CommandSetThreshold:
		return "set_threshold"
	case CommandTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

func (k CommandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *CommandKind) UnmarshalText(text []byte) error {
	for kind := CommandOpaque; kind <= CommandTransfer; kind++ {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown command kind %q", string(text))
}

// Command is the decoded form of a proposed message. A special command whose
// payload failed to parse is Malformed: it executes as a no-op on signing.
type Command struct {
	Kind      CommandKind `json:"kind"`
	Malformed bool        `json:"malformed,omitempty"`

	Signer       Identity    `json:"signer,omitempty"`
	Threshold    int         `json:"threshold,omitempty"`
	Amount       Tokens      `json:"amount,omitempty"`
	To           Identity    `json:"to,omitempty"`
	ToSubaccount *Subaccount `json:"to_subaccount,omitempty"`
}

func AddSignerCommand(signer Identity) Command {
	return Command{Kind: CommandAddSigner, Signer: signer}
}

func RemoveSignerCommand(signer Identity) Command {
	return Command{Kind: CommandRemoveSigner, Signer: signer}
}

func SetThresholdCommand(threshold int) Command {
	return Command{Kind: CommandSetThreshold, Threshold: threshold}
}

func TransferCommand(amount Tokens, to Identity, toSubaccount *Subaccount) Command {
	return Command{Kind: CommandTransfer, Amount: amount, To: to, ToSubaccount: toSubaccount}
}

func (c Command) IsSpecial() bool {
	return c.Kind != CommandOpaque
}

// Encode renders the command as message bytes, opaque commands have no encoding.
// The result always decodes back to c.
func (c Command) Encode() ([]byte, error) {
	switch c.Kind {
	case CommandAddSigner:
		if err := checkCanonical(c.Signer); err != nil {
			return nil, err
		}
		return []byte(prefixAddSigner + c.Signer.String()), nil
	case CommandRemoveSigner:
		if err := checkCanonical(c.Signer); err != nil {
			return nil, err
		}
		return []byte(prefixRemoveSigner + c.Signer.String()), nil
	case CommandSetThreshold:
		if c.Threshold < 1 || c.Threshold > MaxThreshold {
			return nil, fmt.Errorf("%w: %d is out of 1..%d", ErrThresholdInvalid, c.Threshold, MaxThreshold)
		}
		return []byte(prefixSetThreshold + strconv.Itoa(c.Threshold)), nil
	case CommandTransfer:
		if err := checkCanonical(c.To); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		buf.WriteString(prefixTransfer)
		buf.WriteString(strconv.FormatUint(c.Amount.E8s(), 10))
		buf.WriteString(commandSeparator)
		buf.WriteString(c.To.String())
		if c.ToSubaccount != nil {
			buf.WriteString(commandSeparator)
			buf.WriteString(c.ToSubaccount.String())
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("cannot encode %s command", c.Kind)
	}
}

func checkCanonical(id Identity) error {
	parsed, err := ParseIdentity(id.String())
	if err != nil {
		return err
	}
	if parsed != id {
		return fmt.Errorf("%w: %q is not in canonical form", ErrInvalidIdentity, id.String())
	}
	return nil
}

// DecodeCommand classifies msg. Non UTF-8 payloads and unknown prefixes are opaque.
func DecodeCommand(msg []byte) Command {
	if !utf8.Valid(msg) {
		return Command{Kind: CommandOpaque}
	}
	text := string(msg)

	switch {
	case strings.HasPrefix(text, prefixAddSigner):
		signer, err := ParseIdentity(strings.TrimPrefix(text, prefixAddSigner))
		if err != nil {
			return Command{Kind: CommandAddSigner, Malformed: true}
		}
		return AddSignerCommand(signer)

	case strings.HasPrefix(text, prefixRemoveSigner):
		signer, err := ParseIdentity(strings.TrimPrefix(text, prefixRemoveSigner))
		if err != nil {
			return Command{Kind: CommandRemoveSigner, Malformed: true}
		}
		return RemoveSignerCommand(signer)

	case strings.HasPrefix(text, prefixSetThreshold):
		threshold, err := strconv.ParseUint(strings.TrimPrefix(text, prefixSetThreshold), 10, 8)
		if err != nil {
			return Command{Kind: CommandSetThreshold, Malformed: true}
		}
		return SetThresholdCommand(int(threshold))

	case strings.HasPrefix(text, prefixTransfer):
		cmd, err := decodeTransfer(strings.TrimPrefix(text, prefixTransfer))
		if err != nil {
			return Command{Kind: CommandTransfer, Malformed: true}
		}
		return cmd
	}

	return Command{Kind: CommandOpaque}
}

// <amount e8s>::<destination>[::<destination subaccount>]
func decodeTransfer(payload string) (Command, error) {
	parts := strings.Split(payload, commandSeparator)
	if len(parts) != 2 && len(parts) != 3 {
		return Command{}, fmt.Errorf("unexpected transfer payload %q", payload)
	}

	amount, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Command{}, fmt.Errorf("failed to parse amount: %w", err)
	}

	to, err := ParseIdentity(parts[1])
	if err != nil {
		return Command{}, err
	}

	var toSubaccount *Subaccount
	if len(parts) == 3 {
		if toSubaccount, err = ParseSubaccount(parts[2]); err != nil {
			return Command{}, err
		}
	}

	return TransferCommand(Tokens(amount), to, toSubaccount), nil
}
