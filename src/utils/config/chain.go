package config

import (
	"time"

	"github.com/spf13/viper"
)

type Chain struct {
	// Name of the network preset, e.g. avaxtest
	Network string

	// Overrides of the preset's values, empty means the preset is used
	RpcUrl            string
	ChainId           int64
	RandomizerAddress string
	MulticallAddress  string

	// Gas limit set in every transaction
	DefaultGasLimit uint64

	// Max time spent waiting for a transaction to be mined
	TxMiningTimeout time.Duration

	// Max number of read requests per second sent to the RPC node, 0 means no limit
	RequestsPerSecond float64

	// Max number of transactions waiting for the signer
	WriteQueueSize int

	// How long a hash known to be revealed is remembered
	RevealedCacheTTL time.Duration
}

func setChainDefaults() {
	viper.SetDefault("Chain.Network", "avaxtest")
	viper.SetDefault("Chain.RpcUrl", "")
	viper.SetDefault("Chain.ChainId", "0")
	viper.SetDefault("Chain.RandomizerAddress", "")
	viper.SetDefault("Chain.MulticallAddress", "")
	viper.SetDefault("Chain.DefaultGasLimit", "1000000")
	viper.SetDefault("Chain.TxMiningTimeout", "2m")
	viper.SetDefault("Chain.RequestsPerSecond", "0")
	viper.SetDefault("Chain.WriteQueueSize", "100")
	viper.SetDefault("Chain.RevealedCacheTTL", "1h")
}
