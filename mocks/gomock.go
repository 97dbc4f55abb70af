package mocks

//go:generate mockgen -source=./../client/modules/state/state.go -destination=./clientMocks/state_mock.go -package=clientMocks
//go:generate mockgen -source=./../client/modules/keystore/keystore.go -destination=./clientMocks/keystore_mock.go -package=clientMocks
//go:generate mockgen -source=./../storage/types.go -destination=./storageMocks/storage_mock.go -package=storageMocks
//go:generate mockgen -source=./../client/repositories/wallet/wallet.go -destination=./repoMocks/wallet_mock.go -package=repoMocks
//go:generate mockgen -source=./../wallet/capabilities.go -destination=./walletMocks/capabilities_mock.go -package=walletMocks
