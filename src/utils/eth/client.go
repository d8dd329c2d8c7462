package eth

import (
	"context"
	"errors"
	"math/big"

	"github.com/warp-contracts/dealer/src/utils/config"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrUnknownNetwork = errors.New("ETH network unknown")

// Everything needed to talk to the randomizer on one chain
type Network struct {
	Name              string
	ChainId           int64
	RpcProviderUrl    string
	Symbol            string
	ExplorerUrl       string
	RandomizerAddress common.Address
	MulticallAddress  common.Address
}

var networks = map[string]Network{
	"avaxmain": {
		Name:           "avaxmain",
		ChainId:        43114,
		RpcProviderUrl: "https://api.avax.network/ext/bc/C/rpc",
		Symbol:         "AVAX",
		ExplorerUrl:    "https://cchain.explorer.avax.network",
	},
	"avaxtest": {
		Name:              "avaxtest",
		ChainId:           43113,
		RpcProviderUrl:    "https://api.avax-test.network/ext/bc/C/rpc",
		Symbol:            "AVAX",
		ExplorerUrl:       "https://cchain.explorer.avax-test.network",
		RandomizerAddress: common.HexToAddress("0x023A6146119DF61E60893821Eba4082812FfA9fE"),
		MulticallAddress:  common.HexToAddress("0x1536F4f9D78cAfB9dB4C3261CFeAa73eAAC40428"),
	},
	"polygontest": {
		Name:              "polygontest",
		ChainId:           80001,
		RpcProviderUrl:    "https://rpc-mumbai.maticvigil.com",
		Symbol:            "MATIC",
		ExplorerUrl:       "https://mumbai.polygonscan.com",
		RandomizerAddress: common.HexToAddress("0xEc2F7347221eeFFE55561D50651638fCEFFee083"),
		MulticallAddress:  common.HexToAddress("0x9b26610dCf636C5E8094724ae7B0BB069491BeF7"),
	},
}

// Names of all known networks, sorted
func NetworkNames() []string {
	names := maps.Keys(networks)
	slices.Sort(names)
	return names
}

// Picks the network preset and applies overrides from the configuration
func GetNetwork(config *config.Chain) (network Network, err error) {
	network, ok := networks[config.Network]
	if !ok {
		err = ErrUnknownNetwork
		return
	}

	if config.RpcUrl != "" {
		network.RpcProviderUrl = config.RpcUrl
	}
	if config.ChainId != 0 {
		network.ChainId = config.ChainId
	}
	if config.RandomizerAddress != "" {
		network.RandomizerAddress = common.HexToAddress(config.RandomizerAddress)
	}
	if config.MulticallAddress != "" {
		network.MulticallAddress = common.HexToAddress(config.MulticallAddress)
	}

	if (network.RandomizerAddress == common.Address{}) || (network.MulticallAddress == common.Address{}) {
		err = errors.New("contract addresses not set for network " + network.Name)
		return
	}

	return
}

func (self Network) ChainIdBig() *big.Int {
	return big.NewInt(self.ChainId)
}

// Methods of the RPC node used by the dealer. Satisfied by *ethclient.Client.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BlockNumber(ctx context.Context) (uint64, error)
}

func GetEthClient(log *logrus.Entry, network Network) (client *ethclient.Client, err error) {
	client, err = ethclient.Dial(network.RpcProviderUrl)
	if err != nil {
		log.WithError(err).WithField("network", network.Name).Error("Cannot get ETH client")
		return
	}

	return
}
