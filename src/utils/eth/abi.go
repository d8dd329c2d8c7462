package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	EventSecretHashAssigned  = "SecretHashAssigned"
	EventSecretHashCommitted = "SecretHashCommitted"
)

const randomizerAbiJson = `[
	{"type":"function","name":"requestCounter","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalUsableHashes","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"revealedSecrets","stateMutability":"view","inputs":[{"name":"","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"commit","stateMutability":"nonpayable","inputs":[{"name":"secretHashes","type":"bytes32[]"}],"outputs":[]},
	{"type":"function","name":"reveal","stateMutability":"nonpayable","inputs":[{"name":"secretHash","type":"bytes32"},{"name":"secret","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"SecretHashCommitted","anonymous":false,"inputs":[{"name":"secretHash","type":"bytes32","indexed":false}]},
	{"type":"event","name":"SecretHashAssigned","anonymous":false,"inputs":[{"name":"secretHash","type":"bytes32","indexed":false},{"name":"secretIndex","type":"uint256","indexed":false}]}
]`

const multicallAbiJson = `[
	{"type":"function","name":"aggregate","stateMutability":"nonpayable",
	 "inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"callData","type":"bytes"}]}],
	 "outputs":[{"name":"blockNumber","type":"uint256"},{"name":"returnData","type":"bytes[]"}]}
]`

var (
	RandomizerABI = mustParseABI(randomizerAbiJson)
	MulticallABI  = mustParseABI(multicallAbiJson)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
