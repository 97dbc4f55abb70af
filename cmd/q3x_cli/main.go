package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/q3xlabs/q3x/client/api/http_api/requests"
)

const (
	flagListenAddr = "listen_addr"
	flagCaller     = "caller"
	flagText       = "text"
	flagSigners    = "signers"
	flagThreshold  = "threshold"
	flagMetadata   = "metadata"
	flagSubaccount = "subaccount"
	flagOffset     = "offset"
	flagWallet     = "wallet"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

func init() {
	rootCmd.PersistentFlags().String(flagListenAddr, "localhost:8080", "Listen Address")
	rootCmd.PersistentFlags().String(flagCaller, "", "Caller identity, hex encoded ed25519 public key")
	rootCmd.PersistentFlags().Bool(flagText, false, "Treat message arguments as plain text instead of hex")
}

var rootCmd = &cobra.Command{
	Use:   "q3x_cli",
	Short: "q3x node cli utilities implementation",
}

func main() {
	rootCmd.AddCommand(
		getUsernameCommand(),
		getPubKeyCommand(),
		createWalletCommand(),
		getWalletCommand(),
		getWalletsCommand(),
		getPublicKeyCommand(),
		proposeCommand(),
		approveCommand(),
		canSignCommand(),
		signCommand(),
		verifySignatureCommand(),
		getMessagesToSignCommand(),
		getProposedMessagesCommand(),
		getMessagesWithSignersCommand(),
		addSignerCommand(),
		removeSignerCommand(),
		setThresholdCommand(),
		transferCommand(),
		addMetadataCommand(),
		getMetadataCommand(),
		getJournalCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute root command: %v", err)
	}
}

func rawGetRequest(url string) (*Response, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	return readResponse(resp)
}

func rawPostRequest(url string, data interface{}) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()
	responseBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var response Response
	if err = json.Unmarshal(responseBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	return &response, nil
}

func endpoint(host, path string, query url.Values) string {
	u := url.URL{Scheme: "http", Host: host, Path: path}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func getRequest(cmd *cobra.Command, path string, query url.Values, result interface{}) error {
	listenAddr, err := cmd.Flags().GetString(flagListenAddr)
	if err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	resp, err := rawGetRequest(endpoint(listenAddr, path, query))
	if err != nil {
		return err
	}
	return resp.Decode(result)
}

func postRequest(cmd *cobra.Command, path string, data interface{}, result interface{}) error {
	listenAddr, err := cmd.Flags().GetString(flagListenAddr)
	if err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	resp, err := rawPostRequest(endpoint(listenAddr, path, nil), data)
	if err != nil {
		return err
	}
	return resp.Decode(result)
}

func getCaller(cmd *cobra.Command) (string, error) {
	caller, err := cmd.Flags().GetString(flagCaller)
	if err != nil {
		return "", fmt.Errorf("failed to read configuration: %w", err)
	}
	if caller == "" {
		return "", fmt.Errorf("--%s is required", flagCaller)
	}
	return caller, nil
}

// messageArg returns the hex form of a message argument
func messageArg(cmd *cobra.Command, arg string) (string, error) {
	isText, err := cmd.Flags().GetBool(flagText)
	if err != nil {
		return "", fmt.Errorf("failed to read configuration: %w", err)
	}
	if isText {
		return hex.EncodeToString([]byte(arg)), nil
	}
	if _, err = hex.DecodeString(arg); err != nil {
		return "", fmt.Errorf("message is not hex encoded, use --%s for plain text: %w", flagText, err)
	}
	return strings.ToLower(arg), nil
}

func walletMessageQuery(walletID, message string) url.Values {
	return url.Values{"walletID": {walletID}, "message": {message}}
}

func printMessages(title string, messages []string) {
	titleColor.Println(title)
	if len(messages) == 0 {
		warnColor.Println("no messages")
		return
	}
	for _, msg := range messages {
		fmt.Println(describeMessage(msg))
	}
}

// describeMessage appends the printable text of a hex message, if any
func describeMessage(msg string) string {
	bz, err := hex.DecodeString(msg)
	if err != nil || !isPrintable(bz) {
		return msg
	}
	return fmt.Sprintf("%s (%q)", msg, string(bz))
}

func isPrintable(bz []byte) bool {
	if len(bz) == 0 {
		return false
	}
	for _, b := range bz {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}

func printProposal(p ProposalResponse) {
	titleColor.Printf("Message: %s\n", describeMessage(p.Message))
	fmt.Printf("Command: %s", p.Command.Kind)
	if p.Command.Malformed {
		warnColor.Print(" (malformed)")
	}
	fmt.Println()
	fmt.Printf("State: %s\n", p.State)
	fmt.Printf("Proposer: %s\n", p.Proposer)
	fmt.Printf("Approvals: %d/%d\n", len(p.Signers), p.Threshold)
	for _, s := range p.Signers {
		fmt.Printf("  %s\n", s)
	}
	if p.CanSign {
		successColor.Println("Ready to sign")
	}
	fmt.Println("-----------------------------------------------------")
}

func getUsernameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_username",
		Short: "returns username of the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			var username string
			if err := getRequest(cmd, "/getUsername", nil, &username); err != nil {
				return fmt.Errorf("failed to get username: %w", err)
			}
			fmt.Println(username)
			return nil
		},
	}
}

func getPubKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_pubkey",
		Short: "returns node identity, the hex encoded ed25519 public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pubKey string
			if err := getRequest(cmd, "/getPubKey", nil, &pubKey); err != nil {
				return fmt.Errorf("failed to get pubkey: %w", err)
			}
			fmt.Println(pubKey)
			return nil
		},
	}
}

func createWalletCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create_wallet [walletID]",
		Args:  cobra.ExactArgs(1),
		Short: "creates a wallet with the given signers and threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			signers, err := cmd.Flags().GetStringSlice(flagSigners)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}
			threshold, err := cmd.Flags().GetInt(flagThreshold)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}

			req := requests.CreateWalletForm{
				WalletID:  args[0],
				Signers:   signers,
				Threshold: threshold,
			}
			if err = postRequest(cmd, "/createWallet", req, nil); err != nil {
				return fmt.Errorf("failed to create wallet: %w", err)
			}
			successColor.Printf("wallet %s created\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringSlice(flagSigners, nil, "Comma separated signer identities")
	cmd.Flags().Int(flagThreshold, 1, "Number of approvals required to sign")
	return cmd
}

func getWalletCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_wallet [walletID]",
		Args:  cobra.ExactArgs(1),
		Short: "returns signers, threshold and the number of pending messages of a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var w WalletResponse
			if err := getRequest(cmd, "/getWallet", url.Values{"walletID": {args[0]}}, &w); err != nil {
				return fmt.Errorf("failed to get wallet: %w", err)
			}
			titleColor.Printf("Wallet: %s\n", w.ID)
			fmt.Printf("Threshold: %d of %d\n", w.Threshold, len(w.Signers))
			fmt.Printf("Pending messages: %d\n", w.Pending)
			fmt.Println("Signers:")
			for _, s := range w.Signers {
				fmt.Printf("  %s\n", s)
			}
			return nil
		},
	}
}

func getWalletsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_wallets [principal]",
		Args:  cobra.ExactArgs(1),
		Short: "returns wallets the principal was registered in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var wallets []string
			if err := getRequest(cmd, "/getWalletsForPrincipal", url.Values{"principal": {args[0]}}, &wallets); err != nil {
				return fmt.Errorf("failed to get wallets: %w", err)
			}
			if len(wallets) == 0 {
				warnColor.Println("no wallets")
				return nil
			}
			for _, w := range wallets {
				fmt.Println(w)
			}
			return nil
		},
	}
}

func getPublicKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_public_key [walletID]",
		Args:  cobra.ExactArgs(1),
		Short: "returns the public key signatures of the wallet verify against",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pubKey string
			if err := getRequest(cmd, "/getPublicKey", url.Values{"walletID": {args[0]}}, &pubKey); err != nil {
				return fmt.Errorf("failed to get public key: %w", err)
			}
			fmt.Println(pubKey)
			return nil
		},
	}
}

func proposeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propose [walletID] [message]",
		Args:  cobra.ExactArgs(2),
		Short: "proposes a message to sign, the proposer approval is recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			message, err := messageArg(cmd, args[1])
			if err != nil {
				return err
			}
			metadata, err := cmd.Flags().GetString(flagMetadata)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}

			var proposal ProposalResponse
			if metadata != "" {
				req := requests.MessageMetadataForm{Caller: caller, WalletID: args[0], Message: message, Metadata: metadata}
				err = postRequest(cmd, "/proposeWithMetadata", req, &proposal)
			} else {
				req := requests.CallerMessageForm{Caller: caller, WalletID: args[0], Message: message}
				err = postRequest(cmd, "/propose", req, &proposal)
			}
			if err != nil {
				return fmt.Errorf("failed to propose message: %w", err)
			}
			printProposal(proposal)
			return nil
		},
	}
	cmd.Flags().String(flagMetadata, "", "Metadata text to attach to the message")
	return cmd
}

func approveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [walletID] [message]",
		Args:  cobra.ExactArgs(2),
		Short: "approves a proposed message",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			message, err := messageArg(cmd, args[1])
			if err != nil {
				return err
			}

			var approvals int
			req := requests.CallerMessageForm{Caller: caller, WalletID: args[0], Message: message}
			if err = postRequest(cmd, "/approve", req, &approvals); err != nil {
				return fmt.Errorf("failed to approve message: %w", err)
			}
			successColor.Printf("message approved, %d approvals\n", approvals)
			return nil
		},
	}
}

func canSignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "can_sign [walletID] [message]",
		Args:  cobra.ExactArgs(2),
		Short: "checks whether a message collected enough approvals",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := messageArg(cmd, args[1])
			if err != nil {
				return err
			}
			var canSign bool
			if err = getRequest(cmd, "/canSign", walletMessageQuery(args[0], message), &canSign); err != nil {
				return fmt.Errorf("failed to check message: %w", err)
			}
			fmt.Println(canSign)
			return nil
		},
	}
}

func signCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sign [walletID] [message]",
		Args:  cobra.ExactArgs(2),
		Short: "signs or executes an approved message, the message is retired afterwards",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			message, err := messageArg(cmd, args[1])
			if err != nil {
				return err
			}

			var resp SignResponse
			req := requests.CallerMessageForm{Caller: caller, WalletID: args[0], Message: message}
			if err = postRequest(cmd, "/sign", req, &resp); err != nil {
				return fmt.Errorf("failed to sign message: %w", err)
			}
			if resp.Command.IsSpecial() {
				successColor.Printf("command %s executed\n", resp.Command.Kind)
				if resp.Command.Malformed {
					warnColor.Println("command payload was malformed, nothing changed")
				}
				if resp.Receipt != nil {
					fmt.Printf("Block index: %d\n", resp.Receipt.BlockIndex)
				}
				return nil
			}
			successColor.Println("message signed")
			fmt.Printf("Signature: %s\n", resp.Signature)
			return nil
		},
	}
}

func verifySignatureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify_signature [walletID] [message] [signature]",
		Args:  cobra.ExactArgs(3),
		Short: "verifies a signature against the wallet public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := messageArg(cmd, args[1])
			if err != nil {
				return err
			}
			var ok bool
			req := requests.VerifySignatureForm{WalletID: args[0], Message: message, Signature: args[2]}
			if err = postRequest(cmd, "/verifySignature", req, &ok); err != nil {
				return fmt.Errorf("failed to verify signature: %w", err)
			}
			if ok {
				successColor.Println("signature is valid")
			} else {
				warnColor.Println("signature is invalid")
			}
			return nil
		},
	}
}

func getMessagesToSignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_messages_to_sign [walletID]",
		Args:  cobra.ExactArgs(1),
		Short: "returns messages that collected enough approvals",
		RunE: func(cmd *cobra.Command, args []string) error {
			var messages []string
			if err := getRequest(cmd, "/getMessagesToSign", url.Values{"walletID": {args[0]}}, &messages); err != nil {
				return fmt.Errorf("failed to get messages: %w", err)
			}
			printMessages("Messages to sign:", messages)
			return nil
		},
	}
}

func getProposedMessagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_proposed_messages [walletID]",
		Args:  cobra.ExactArgs(1),
		Short: "returns all pending messages of a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var messages []string
			if err := getRequest(cmd, "/getProposedMessages", url.Values{"walletID": {args[0]}}, &messages); err != nil {
				return fmt.Errorf("failed to get messages: %w", err)
			}
			printMessages("Proposed messages:", messages)
			return nil
		},
	}
}

func getMessagesWithSignersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_messages_with_signers [walletID]",
		Args:  cobra.ExactArgs(1),
		Short: "returns pending messages with their approvals",
		RunE: func(cmd *cobra.Command, args []string) error {
			var proposals ProposalsResponse
			if err := getRequest(cmd, "/getMessagesWithSigners", url.Values{"walletID": {args[0]}}, &proposals); err != nil {
				return fmt.Errorf("failed to get messages: %w", err)
			}
			if len(proposals) == 0 {
				warnColor.Println("no messages")
				return nil
			}
			for _, p := range proposals {
				printProposal(p)
			}
			return nil
		},
	}
}

func printCommandMessage(message string) {
	successColor.Println("command proposed")
	fmt.Printf("Message: %s\n", describeMessage(message))
}

func addSignerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add_signer [walletID] [signer]",
		Args:  cobra.ExactArgs(2),
		Short: "proposes adding a signer to the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			var message string
			req := requests.SignerForm{Caller: caller, WalletID: args[0], Signer: args[1]}
			if err = postRequest(cmd, "/addSigner", req, &message); err != nil {
				return fmt.Errorf("failed to propose signer: %w", err)
			}
			printCommandMessage(message)
			return nil
		},
	}
}

func removeSignerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove_signer [walletID] [signer]",
		Args:  cobra.ExactArgs(2),
		Short: "proposes removing a signer from the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			var message string
			req := requests.SignerForm{Caller: caller, WalletID: args[0], Signer: args[1]}
			if err = postRequest(cmd, "/removeSigner", req, &message); err != nil {
				return fmt.Errorf("failed to propose signer removal: %w", err)
			}
			printCommandMessage(message)
			return nil
		},
	}
}

func setThresholdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set_threshold [walletID] [threshold]",
		Args:  cobra.ExactArgs(2),
		Short: "proposes a new approval threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			threshold, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid threshold: %w", err)
			}
			var message string
			req := requests.ThresholdForm{Caller: caller, WalletID: args[0], Threshold: threshold}
			if err = postRequest(cmd, "/setThreshold", req, &message); err != nil {
				return fmt.Errorf("failed to propose threshold: %w", err)
			}
			printCommandMessage(message)
			return nil
		},
	}
}

func transferCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer [walletID] [amount] [to]",
		Args:  cobra.ExactArgs(3),
		Short: "proposes a transfer from the wallet account, amount in tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			subaccount, err := cmd.Flags().GetString(flagSubaccount)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}
			var message string
			req := requests.TransferForm{
				Caller:       caller,
				WalletID:     args[0],
				Amount:       args[1],
				To:           args[2],
				ToSubaccount: subaccount,
			}
			if err = postRequest(cmd, "/transfer", req, &message); err != nil {
				return fmt.Errorf("failed to propose transfer: %w", err)
			}
			printCommandMessage(message)
			return nil
		},
	}
	cmd.Flags().String(flagSubaccount, "", "Hex encoded destination subaccount")
	return cmd
}

func addMetadataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add_metadata [walletID] [message] [metadata]",
		Args:  cobra.ExactArgs(3),
		Short: "attaches metadata text to a pending message",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			message, err := messageArg(cmd, args[1])
			if err != nil {
				return err
			}
			req := requests.MessageMetadataForm{Caller: caller, WalletID: args[0], Message: message, Metadata: args[2]}
			if err = postRequest(cmd, "/addMetadata", req, nil); err != nil {
				return fmt.Errorf("failed to add metadata: %w", err)
			}
			successColor.Println("metadata saved")
			return nil
		},
	}
}

func getMetadataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_metadata [walletID] [message]",
		Args:  cobra.ExactArgs(2),
		Short: "returns metadata of a pending message",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := getCaller(cmd)
			if err != nil {
				return err
			}
			message, err := messageArg(cmd, args[1])
			if err != nil {
				return err
			}
			query := walletMessageQuery(args[0], message)
			query.Set("caller", caller)

			var metadata MetadataResponse
			if err = getRequest(cmd, "/getMetadata", query, &metadata); err != nil {
				return fmt.Errorf("failed to get metadata: %w", err)
			}
			fmt.Println(metadata.Text)
			fmt.Printf("Author: %s, updated at %s\n", metadata.Author, metadata.UpdatedAt)
			return nil
		},
	}
}

func getJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get_journal",
		Short: "returns journal entries of the node starting from the offset, optionally of one wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := cmd.Flags().GetUint64(flagOffset)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}
			walletID, err := cmd.Flags().GetString(flagWallet)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}
			var journal JournalResponse
			query := url.Values{"offset": {strconv.FormatUint(offset, 10)}}
			if walletID != "" {
				query.Set("walletID", walletID)
			}
			if err = getRequest(cmd, "/getJournal", query, &journal); err != nil {
				return fmt.Errorf("failed to get journal: %w", err)
			}
			for _, msg := range journal {
				titleColor.Printf("#%d %s\n", msg.Offset, msg.Event)
				fmt.Printf("Wallet: %s\n", msg.WalletID)
				fmt.Printf("Sender: %s\n", msg.SenderAddr)
				fmt.Printf("Data: %s\n", string(msg.Data))
			}
			return nil
		},
	}
	cmd.Flags().Uint64(flagOffset, 0, "Journal offset to read from")
	cmd.Flags().String(flagWallet, "", "Only show entries of this wallet")
	return cmd
}
