package services

import (
	"github.com/q3xlabs/q3x/client/modules/keystore"
	"github.com/q3xlabs/q3x/client/modules/logger"
	"github.com/q3xlabs/q3x/client/modules/state"
	walletrepo "github.com/q3xlabs/q3x/client/repositories/wallet"
	"github.com/q3xlabs/q3x/ledger"
	"github.com/q3xlabs/q3x/storage"
	"github.com/q3xlabs/q3x/wallet"
)

// PublicKeyProvider exposes the signing public key of a wallet
type PublicKeyProvider interface {
	PublicKey(walletID string, keyID wallet.KeyID) ([]byte, error)
}

type ServiceProvider struct {
	l          logger.Logger
	s          state.State
	ks         keystore.KeyStore
	stg        storage.Storage
	walletRepo walletrepo.WalletRepo
	engine     *wallet.Engine
	pubKeys    PublicKeyProvider
	ledger     *ledger.Ledger

	closers []func() error
}

func (sp *ServiceProvider) SetLogger(l logger.Logger) {
	sp.l = l
}

func (sp *ServiceProvider) GetLogger() logger.Logger {
	return sp.l
}

func (sp *ServiceProvider) SetState(s state.State) {
	sp.s = s
}

func (sp *ServiceProvider) GetState() state.State {
	return sp.s
}

func (sp *ServiceProvider) SetKeyStore(ks keystore.KeyStore) {
	sp.ks = ks
}

func (sp *ServiceProvider) GetKeyStore() keystore.KeyStore {
	return sp.ks
}

func (sp *ServiceProvider) SetStorage(stg storage.Storage) {
	sp.stg = stg
}

func (sp *ServiceProvider) GetStorage() storage.Storage {
	return sp.stg
}

func (sp *ServiceProvider) SetWalletRepo(repo walletrepo.WalletRepo) {
	sp.walletRepo = repo
}

func (sp *ServiceProvider) GetWalletRepo() walletrepo.WalletRepo {
	return sp.walletRepo
}

func (sp *ServiceProvider) SetEngine(engine *wallet.Engine) {
	sp.engine = engine
}

func (sp *ServiceProvider) GetEngine() *wallet.Engine {
	return sp.engine
}

func (sp *ServiceProvider) SetPublicKeyProvider(p PublicKeyProvider) {
	sp.pubKeys = p
}

func (sp *ServiceProvider) GetPublicKeyProvider() PublicKeyProvider {
	return sp.pubKeys
}

func (sp *ServiceProvider) SetLedger(l *ledger.Ledger) {
	sp.ledger = l
}

func (sp *ServiceProvider) GetLedger() *ledger.Ledger {
	return sp.ledger
}

// Close releases the databases and the journal opened by CreateServiceProvider
func (sp *ServiceProvider) Close() error {
	var firstErr error
	for i := len(sp.closers) - 1; i >= 0; i-- {
		if err := sp.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	sp.closers = nil
	return firstErr
}
