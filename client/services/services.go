package services

import (
	"fmt"
	"io"
	"os"

	"github.com/q3xlabs/q3x/client/config"
	"github.com/q3xlabs/q3x/client/modules/keystore"
	"github.com/q3xlabs/q3x/client/modules/logger"
	"github.com/q3xlabs/q3x/client/modules/state"
	walletrepo "github.com/q3xlabs/q3x/client/repositories/wallet"
	"github.com/q3xlabs/q3x/ledger"
	"github.com/q3xlabs/q3x/signer"
	"github.com/q3xlabs/q3x/storage"
	"github.com/q3xlabs/q3x/storage/file_storage"
	"github.com/q3xlabs/q3x/storage/kafka_storage"
	"github.com/q3xlabs/q3x/wallet"
)

const (
	walletTopic = "wallets"
)

// CreateServiceProvider opens the node databases and the journal and wires the wallet engine
func CreateServiceProvider(cfg *config.Config) (*ServiceProvider, error) {
	sp := &ServiceProvider{}

	log, err := logger.NewLogger(cfg.Username).WithLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	sp.SetLogger(log)

	if err = sp.init(cfg); err != nil {
		sp.Close()
		return nil, err
	}

	return sp, nil
}

func (sp *ServiceProvider) init(cfg *config.Config) error {
	keyStore, err := keystore.NewLevelDBKeyStore(cfg.KeyStoreDBDSN)
	if err != nil {
		return fmt.Errorf("failed to init key store: %w", err)
	}
	sp.closers = append(sp.closers, keyStore.Close)
	sp.SetKeyStore(keyStore)

	nodeState, err := state.NewLevelDBState(cfg.NodeStateDBDSN(), cfg.Username)
	if err != nil {
		return fmt.Errorf("failed to init state: %w", err)
	}
	sp.closers = append(sp.closers, nodeState.Close)
	sp.SetState(nodeState)
	sp.SetWalletRepo(walletrepo.NewWalletRepo(nodeState, walletTopic))

	stg, err := newStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	sp.closers = append(sp.closers, stg.Close)
	sp.SetStorage(stg)

	signerState, err := state.NewLevelDBState(cfg.SignerDBDSN(), "")
	if err != nil {
		return fmt.Errorf("failed to init signer state: %w", err)
	}
	sp.closers = append(sp.closers, signerState.Close)

	seed, err := loadSeed(signerState, cfg.Signer, sp.GetLogger(), os.Stdout)
	if err != nil {
		return err
	}
	ecdsaSigner, err := signer.NewECDSASigner(seed)
	if err != nil {
		return fmt.Errorf("failed to init signer: %w", err)
	}
	sp.SetPublicKeyProvider(ecdsaSigner)

	keyID, err := signer.KeyIDFromEnv(cfg.Signer.Env)
	if err != nil {
		return err
	}

	ledgerState, err := state.NewLevelDBState(cfg.LedgerDBDSN(), "")
	if err != nil {
		return fmt.Errorf("failed to init ledger state: %w", err)
	}
	sp.closers = append(sp.closers, ledgerState.Close)

	l := ledger.NewLedger(ledgerState, cfg.Ledger.Owner, wallet.Tokens(cfg.Ledger.Fee))
	sp.SetLedger(l)

	sp.SetEngine(wallet.NewEngine(wallet.NewRegistry(), ecdsaSigner, ecdsaSigner, l, keyID))

	return nil
}

func newStorage(cfg *config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case config.StorageTypeKafka:
		tlsConfig, err := kafka_storage.GetTLSConfig(cfg.Kafka.TruststorePath)
		if err != nil {
			return nil, err
		}
		return kafka_storage.NewKafkaStorage(
			cfg.Kafka.DBDSN,
			cfg.Kafka.Topic,
			tlsConfig,
			cfg.Kafka.ProducerCredentials,
			cfg.Kafka.ConsumerCredentials,
			cfg.Kafka.Timeout,
		)
	case config.StorageTypeFile:
		return file_storage.NewFileStorage(cfg.FilePath, cfg.LockPath)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// loadSeed restores or creates the signer seed. A new mnemonic goes to out
// only, it never reaches the logger.
func loadSeed(s state.State, cfg *config.SignerConfig, l logger.Logger, out io.Writer) ([]byte, error) {
	if cfg.Mnemonic != "" {
		seed, err := signer.RestoreSeed(s, cfg.Mnemonic)
		if err != nil {
			return nil, fmt.Errorf("failed to restore signer seed: %w", err)
		}
		l.Log("Signer seed restored from mnemonic")
		return seed, nil
	}

	seed, mnemonic, err := signer.LoadOrCreateSeed(s)
	if err != nil {
		return nil, err
	}
	if mnemonic != "" {
		l.Warn("Generated a new signer seed, its mnemonic is printed once to the console")
		if _, err = fmt.Fprintf(out, "Signer seed mnemonic, write it down: %s\n", mnemonic); err != nil {
			return nil, fmt.Errorf("failed to print signer mnemonic: %w", err)
		}
	}
	return seed, nil
}
