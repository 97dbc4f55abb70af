package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/spf13/viper"
)

const (
	StorageTypeFile  = "file"
	StorageTypeKafka = "kafka"
)

type HttpApiConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Debug      bool   `mapstructure:"debug"`
}

type KafkaStorageConfig struct {
	DBDSN          string        `mapstructure:"dbdsn"`
	Topic          string        `mapstructure:"topic"`
	TruststorePath string        `mapstructure:"truststore_path"`
	ProducerCreds  string        `mapstructure:"producer_credentials"`
	ConsumerCreds  string        `mapstructure:"consumer_credentials"`
	Timeout        time.Duration `mapstructure:"timeout"`

	TlsConfig           *tls.Config      `mapstructure:"-"`
	ProducerCredentials *plain.Mechanism `mapstructure:"-"`
	ConsumerCredentials *plain.Mechanism `mapstructure:"-"`
}

type StorageConfig struct {
	Type     string              `mapstructure:"type"`
	FilePath string              `mapstructure:"file_path"`
	LockPath string              `mapstructure:"lock_path"`
	Kafka    *KafkaStorageConfig `mapstructure:"kafka"`
}

type SignerConfig struct {
	Env      string `mapstructure:"env"`
	Mnemonic string `mapstructure:"mnemonic"`
}

type LedgerConfig struct {
	Owner string `mapstructure:"owner"`
	Fee   uint64 `mapstructure:"fee"`
}

type Config struct {
	Username      string `mapstructure:"username"`
	LogLevel      string `mapstructure:"log_level"`
	StateDBDSN    string `mapstructure:"state_dbdsn"`
	KeyStoreDBDSN string `mapstructure:"key_store_dbdsn"`

	HttpApiConfig *HttpApiConfig `mapstructure:"http_api"`
	Storage       *StorageConfig `mapstructure:"storage"`
	Signer        *SignerConfig  `mapstructure:"signer"`
	Ledger        *LedgerConfig  `mapstructure:"ledger"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("state_dbdsn", "./q3x_state")
	v.SetDefault("key_store_dbdsn", "./q3x_keystore")
	v.SetDefault("http_api.listen_addr", "localhost:8080")
	v.SetDefault("storage.type", StorageTypeFile)
	v.SetDefault("storage.file_path", "./q3x_journal")
	v.SetDefault("storage.kafka.timeout", 10*time.Second)
	v.SetDefault("signer.env", "local")
	v.SetDefault("ledger.owner", "q3x")
	v.SetDefault("ledger.fee", 10_000)
}

// Load reads the config from v. Environment variables use the Q3X_ prefix,
// e.g. Q3X_STORAGE_TYPE for storage.type.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("q3x")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Username == "" {
		return errors.New("username cannot be empty")
	}
	if c.StateDBDSN == "" {
		return errors.New("state_dbdsn cannot be empty")
	}
	if c.KeyStoreDBDSN == "" {
		return errors.New("key_store_dbdsn cannot be empty")
	}
	if c.HttpApiConfig == nil || c.HttpApiConfig.ListenAddr == "" {
		return errors.New("http_api.listen_addr cannot be empty")
	}
	if c.Signer == nil {
		return errors.New("signer config is required")
	}
	if c.Ledger == nil {
		return errors.New("ledger config is required")
	}
	if c.Storage == nil {
		return errors.New("storage config is required")
	}

	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.FilePath == "" {
			return errors.New("storage.file_path cannot be empty")
		}
	case StorageTypeKafka:
		if c.Storage.Kafka == nil || c.Storage.Kafka.DBDSN == "" || c.Storage.Kafka.Topic == "" {
			return errors.New("storage.kafka.dbdsn and storage.kafka.topic are required")
		}
		var err error
		if c.Storage.Kafka.ProducerCredentials, err = ParseCredentials(c.Storage.Kafka.ProducerCreds); err != nil {
			return fmt.Errorf("failed to parse producer credentials: %w", err)
		}
		if c.Storage.Kafka.ConsumerCredentials, err = ParseCredentials(c.Storage.Kafka.ConsumerCreds); err != nil {
			return fmt.Errorf("failed to parse consumer credentials: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	return nil
}

// NodeStateDBDSN, LedgerDBDSN and SignerDBDSN are separate LevelDB databases under StateDBDSN
func (c *Config) NodeStateDBDSN() string {
	return filepath.Join(c.StateDBDSN, "node")
}

func (c *Config) LedgerDBDSN() string {
	return filepath.Join(c.StateDBDSN, "ledger")
}

func (c *Config) SignerDBDSN() string {
	return filepath.Join(c.StateDBDSN, "signer")
}

// ParseCredentials parses "username:password", an empty string means no authentication
func ParseCredentials(creds string) (*plain.Mechanism, error) {
	if creds == "" {
		return nil, nil
	}

	parts := strings.SplitN(creds, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, errors.New("credentials must be in the username:password format")
	}

	return &plain.Mechanism{
		Username: parts[0],
		Password: parts[1],
	}, nil
}
