package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/q3xlabs/q3x/client/api/http_api"
	"github.com/q3xlabs/q3x/client/config"
	"github.com/q3xlabs/q3x/client/modules/keystore"
	"github.com/q3xlabs/q3x/client/modules/state"
	"github.com/q3xlabs/q3x/client/services"
	"github.com/q3xlabs/q3x/client/services/node"
	"github.com/q3xlabs/q3x/fsm/fsm"
	"github.com/q3xlabs/q3x/fsm/state_machines/proposal_fsm"
	"github.com/q3xlabs/q3x/ledger"
	"github.com/q3xlabs/q3x/signer"
	"github.com/q3xlabs/q3x/wallet"
)

const (
	flagConfigPath               = "config"
	flagUserName                 = "username"
	flagLogLevel                 = "log_level"
	flagListenAddr               = "listen_addr"
	flagStateDBDSN               = "state_dbdsn"
	flagStoreDBDSN               = "key_store_dbdsn"
	flagStorageType              = "storage_type"
	flagStorageDBDSN             = "storage_dbdsn"
	flagStorageTopic             = "storage_topic"
	flagKafkaDBDSN               = "kafka_dbdsn"
	flagKafkaProducerCredentials = "producer_credentials"
	flagKafkaConsumerCredentials = "consumer_credentials"
	flagKafkaTrustStorePath      = "kafka_truststore_path"
	flagKafkaTimeout             = "kafka_timeout"
	flagSignerEnv                = "signer_env"
	flagLedgerOwner              = "ledger_owner"
	flagLedgerFee                = "ledger_fee"

	flagFundWallet = "wallet"
	flagFundAmount = "amount"

	shutdownTimeout = 5 * time.Second
)

// config keys of the persistent flags
var flagKeys = map[string]string{
	flagUserName:                 "username",
	flagLogLevel:                 "log_level",
	flagListenAddr:               "http_api.listen_addr",
	flagStateDBDSN:               "state_dbdsn",
	flagStoreDBDSN:               "key_store_dbdsn",
	flagStorageType:              "storage.type",
	flagStorageDBDSN:             "storage.file_path",
	flagStorageTopic:             "storage.kafka.topic",
	flagKafkaDBDSN:               "storage.kafka.dbdsn",
	flagKafkaProducerCredentials: "storage.kafka.producer_credentials",
	flagKafkaConsumerCredentials: "storage.kafka.consumer_credentials",
	flagKafkaTrustStorePath:      "storage.kafka.truststore_path",
	flagKafkaTimeout:             "storage.kafka.timeout",
	flagSignerEnv:                "signer.env",
	flagLedgerOwner:              "ledger.owner",
	flagLedgerFee:                "ledger.fee",
}

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "q3x_d",
	Short: "q3x multi-signature wallet node",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String(flagConfigPath, "", "Path to a config file")
	rootCmd.PersistentFlags().String(flagUserName, "testUser", "Username")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "Log level")
	rootCmd.PersistentFlags().String(flagListenAddr, "localhost:8080", "Listen Address")
	rootCmd.PersistentFlags().String(flagStateDBDSN, "./q3x_state", "State DBDSN")
	rootCmd.PersistentFlags().String(flagStoreDBDSN, "./q3x_keystore", "Key Store DBDSN")
	rootCmd.PersistentFlags().String(flagStorageType, config.StorageTypeFile, "Journal storage type: file or kafka")
	rootCmd.PersistentFlags().String(flagStorageDBDSN, "./q3x_journal", "Journal file path")
	rootCmd.PersistentFlags().String(flagKafkaDBDSN, "", "Kafka broker endpoint")
	rootCmd.PersistentFlags().String(flagStorageTopic, "q3x_journal", "Storage Topic (Kafka)")
	rootCmd.PersistentFlags().String(flagKafkaProducerCredentials, "", "Producer credentials for Kafka: username:password")
	rootCmd.PersistentFlags().String(flagKafkaConsumerCredentials, "", "Consumer credentials for Kafka: username:password")
	rootCmd.PersistentFlags().String(flagKafkaTrustStorePath, "", "Path to kafka truststore")
	rootCmd.PersistentFlags().Duration(flagKafkaTimeout, 10*time.Second, "Kafka dial and write timeout")
	rootCmd.PersistentFlags().String(flagSignerEnv, signer.EnvLocal, "Signing key environment: local, test or production")
	rootCmd.PersistentFlags().String(flagLedgerOwner, "q3x", "Owner of the wallet ledger accounts")
	rootCmd.PersistentFlags().Uint64(flagLedgerFee, uint64(wallet.DefaultTransferFee), "Ledger transfer fee in e8s")
}

func bindFlags(cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	configPath, err := cmd.Flags().GetString(flagConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err = v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(v)
}

func genKeyPairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gen_keys",
		Short: "generates a keypair to sign journal messages, its public key is the node identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			keyStore, err := keystore.NewLevelDBKeyStore(cfg.KeyStoreDBDSN)
			if err != nil {
				return fmt.Errorf("failed to init key store: %w", err)
			}
			defer keyStore.Close()

			keyPair := keystore.NewKeyPair()
			if err = keyStore.PutKeys(cfg.Username, keyPair); err != nil {
				return fmt.Errorf("failed to save keypair: %w", err)
			}
			fmt.Printf("keypair generated for user %s and saved to %s\n", cfg.Username, cfg.KeyStoreDBDSN)
			fmt.Printf("identity: %s\n", keyPair.GetAddr())
			return nil
		},
	}
}

func genMnemonicCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gen_mnemonic",
		Short: "generates a mnemonic for the signer seed, pass it with Q3X_SIGNER_MNEMONIC to restore the seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic, err := signer.GenerateMnemonic()
			if err != nil {
				return err
			}
			fmt.Println(mnemonic)
			return nil
		},
	}
}

func fundCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "credits a wallet ledger account, for local setups only",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			walletID, err := cmd.Flags().GetString(flagFundWallet)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}
			amountStr, err := cmd.Flags().GetString(flagFundAmount)
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}
			amount, err := wallet.ParseTokens(amountStr)
			if err != nil {
				return err
			}

			ledgerState, err := state.NewLevelDBState(cfg.LedgerDBDSN(), "")
			if err != nil {
				return fmt.Errorf("failed to open ledger state: %w", err)
			}
			defer ledgerState.Close()

			l := ledger.NewLedger(ledgerState, cfg.Ledger.Owner, wallet.Tokens(cfg.Ledger.Fee))
			account := l.WalletAccount(walletID)
			receipt, err := l.Mint(account, amount)
			if err != nil {
				return fmt.Errorf("failed to fund wallet: %w", err)
			}
			balance, err := l.Balance(account)
			if err != nil {
				return err
			}

			fmt.Printf("wallet %s funded with %s tokens at block %d, balance %s\n",
				walletID, amount, receipt.BlockIndex, balance)
			return nil
		},
	}
	cmd.Flags().String(flagFundWallet, "", "Wallet ID")
	cmd.Flags().String(flagFundAmount, "0", "Amount in tokens, e.g. 1.5")
	return cmd
}

func proposalFSMCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal_fsm",
		Short: "prints the proposal state machine in graphviz dot format",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(fsm.Visualize(proposal_fsm.New().FSM))
		},
	}
}

func startClientCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "starts q3x node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			sp, err := services.CreateServiceProvider(cfg)
			if err != nil {
				return fmt.Errorf("failed to init services: %w", err)
			}
			defer sp.Close()

			n, err := node.NewNode(cfg, sp)
			if err != nil {
				return fmt.Errorf("failed to init node: %w", err)
			}

			api, err := http_api.NewRESTApi(cfg, n)
			if err != nil {
				return fmt.Errorf("failed to init http api: %w", err)
			}

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigs

				n.GetLogger().Log("Received signal, stopping node...")
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := api.Stop(ctx); err != nil {
					n.GetLogger().Error("Failed to stop HTTP server: %v", err)
				}
			}()

			n.GetLogger().Log("Node %s is listening on %s, identity %s",
				cfg.Username, cfg.HttpApiConfig.ListenAddr, hex.EncodeToString(n.GetPubKey()))
			if err = api.Start(); err != nil {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			n.GetLogger().Log("Node stopped")
			return nil
		},
	}
}

func main() {
	rootCmd.AddCommand(
		startClientCommand(),
		genKeyPairCommand(),
		genMnemonicCommand(),
		fundCommand(),
		proposalFSMCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute root command: %v", err)
	}
}
