package main

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swaplock/htlcd/asset"
	jsonrpc "github.com/swaplock/htlcd/daemon/rpc"
	"github.com/swaplock/htlcd/daemon/rpc/handlers"
	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/htlc"
	"github.com/swaplock/htlcd/store"
	"github.com/swaplock/htlcd/utils"
)

func main() {
	envConfig, err := utils.LoadConfig(utils.DefaultConfigPath())
	if err != nil {
		panic(err)
	}

	logger, err := utils.NewLogger(utils.DefaultLogPath())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	keys, err := utils.NewKeys(envConfig.Mnemonic)
	if err != nil {
		panic(err)
	}
	operator, err := keys.OperatorKey()
	if err != nil {
		panic(err)
	}
	operatorAddr, err := operator.Address()
	if err != nil {
		panic(err)
	}

	admin := operatorAddr
	if envConfig.Admin != "" {
		admin = common.HexToAddress(envConfig.Admin)
	}

	dbPath := envConfig.DB
	if dbPath == "" {
		dbPath = utils.DefaultStorePath()
	}
	str, err := store.NewStore(sqlite.Open(dbPath), admin, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		panic(err)
	}

	opts := []htlc.EngineOption{}
	if envConfig.EthURL != "" {
		operatorKey, err := operator.ECDSA()
		if err != nil {
			panic(err)
		}
		wallet, err := asset.Dial(context.Background(), envConfig.EthURL, operatorKey, logger)
		if err != nil {
			panic(err)
		}
		opts = append(opts, htlc.WithTokenWallet(wallet))
	}
	engine := htlc.NewEngine(str, operatorAddr, logger, opts...)

	var secrets types.SecretStore
	if envConfig.RedisURL != "" {
		secrets, err = handlers.NewRedisSecretStore(envConfig.RedisURL)
		if err != nil {
			panic(err)
		}
	}

	rpcServer := jsonrpc.NewRpcServer(types.CoreConfig{
		Engine:    engine,
		Storage:   str,
		Secrets:   secrets,
		EnvConfig: envConfig,
		Logger:    logger,
	})
	if err := rpcServer.Run(); err != nil {
		panic(err)
	}
}
