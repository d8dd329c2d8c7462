package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/warp-contracts/dealer/src/utils/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Values read from the randomizer in one batch
type ControlState struct {
	RequestCounter    uint64
	TotalUsableHashes uint64
	Block             uint64
}

// Randomizer bound a committed hash to a sequential index
type SecretHashAssigned struct {
	SecretHash  common.Hash
	SecretIndex uint64
	Block       uint64
}

// Binding of the randomizer contract
type Randomizer struct {
	address   common.Address
	backend   Backend
	contract  *bind.BoundContract
	multicall *Multicall

	limiter  *rate.Limiter
	revealed *cache.Cache
}

func NewRandomizer(config *config.Chain, network Network, backend Backend) (self *Randomizer) {
	self = new(Randomizer)
	self.address = network.RandomizerAddress
	self.backend = backend
	self.contract = bind.NewBoundContract(network.RandomizerAddress, RandomizerABI, backend, backend, backend)
	self.multicall = NewMulticall(network.MulticallAddress, backend)

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	self.limiter = rate.NewLimiter(limit, 1)

	// Revealing is permanent, so only positive answers are cached
	self.revealed = cache.New(config.RevealedCacheTTL, 2*config.RevealedCacheTTL)
	return
}

func (self *Randomizer) Address() common.Address {
	return self.address
}

func (self *Randomizer) LatestBlock(ctx context.Context) (uint64, error) {
	err := self.limiter.Wait(ctx)
	if err != nil {
		return 0, err
	}
	return self.backend.BlockNumber(ctx)
}

// Reads requestCounter and totalUsableHashes in one call
func (self *Randomizer) ControlState(ctx context.Context) (state *ControlState, err error) {
	err = self.limiter.Wait(ctx)
	if err != nil {
		return
	}

	requestCounterData, err := RandomizerABI.Pack("requestCounter")
	if err != nil {
		return
	}
	totalUsableHashesData, err := RandomizerABI.Pack("totalUsableHashes")
	if err != nil {
		return
	}

	block, returnData, err := self.multicall.Aggregate(ctx, []Call{
		{Target: self.address, CallData: requestCounterData},
		{Target: self.address, CallData: totalUsableHashesData},
	})
	if err != nil {
		return
	}

	requestCounter, err := unpackUint64("requestCounter", returnData[0])
	if err != nil {
		return
	}
	totalUsableHashes, err := unpackUint64("totalUsableHashes", returnData[1])
	if err != nil {
		return
	}

	state = &ControlState{
		RequestCounter:    requestCounter,
		TotalUsableHashes: totalUsableHashes,
		Block:             block,
	}
	return
}

// Zero stored under the hash means it wasn't revealed yet
func (self *Randomizer) IsHashRevealed(ctx context.Context, hash common.Hash) (revealed bool, err error) {
	if _, ok := self.revealed.Get(hash.Hex()); ok {
		return true, nil
	}

	err = self.limiter.Wait(ctx)
	if err != nil {
		return
	}

	var out []interface{}
	err = self.contract.Call(&bind.CallOpts{Context: ctx}, &out, "revealedSecrets", hash)
	if err != nil {
		return
	}
	if len(out) != 1 {
		err = errors.New("unexpected revealedSecrets output")
		return
	}

	secret := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	revealed = secret.Sign() != 0
	if revealed {
		self.revealed.Set(hash.Hex(), struct{}{}, cache.DefaultExpiration)
	}
	return
}

// Fetches SecretHashAssigned events emitted in [fromBlock, toBlock]
func (self *Randomizer) SecretHashAssigned(ctx context.Context, fromBlock, toBlock uint64) (events []*SecretHashAssigned, err error) {
	err = self.limiter.Wait(ctx)
	if err != nil {
		return
	}

	event := RandomizerABI.Events[EventSecretHashAssigned]
	logs, err := self.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{self.address},
		Topics:    [][]common.Hash{{event.ID}},
	})
	if err != nil {
		return
	}

	events = make([]*SecretHashAssigned, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}

		decoded, err := self.decodeSecretHashAssigned(log)
		if err != nil {
			return nil, err
		}
		events = append(events, decoded)
	}
	return
}

func (self *Randomizer) decodeSecretHashAssigned(log types.Log) (out *SecretHashAssigned, err error) {
	if len(log.Topics) == 0 || log.Topics[0] != RandomizerABI.Events[EventSecretHashAssigned].ID {
		err = fmt.Errorf("unexpected event signature in tx %s", log.TxHash.Hex())
		return
	}

	var raw struct {
		SecretHash  [32]byte
		SecretIndex *big.Int
	}
	err = self.contract.UnpackLog(&raw, EventSecretHashAssigned, log)
	if err != nil {
		err = fmt.Errorf("failed to decode %s in tx %s: %w", EventSecretHashAssigned, log.TxHash.Hex(), err)
		return
	}
	if raw.SecretIndex == nil || !raw.SecretIndex.IsUint64() {
		err = fmt.Errorf("secret index out of range in tx %s", log.TxHash.Hex())
		return
	}

	out = &SecretHashAssigned{
		SecretHash:  common.Hash(raw.SecretHash),
		SecretIndex: raw.SecretIndex.Uint64(),
		Block:       log.BlockNumber,
	}
	return
}

// Counts SecretHashCommitted events in a commit receipt
func (self *Randomizer) CountCommitted(receipt *types.Receipt) (count int) {
	id := RandomizerABI.Events[EventSecretHashCommitted].ID
	for _, log := range receipt.Logs {
		if log.Address == self.address && len(log.Topics) > 0 && log.Topics[0] == id {
			count++
		}
	}
	return
}

func (self *Randomizer) CommitTx(hashes []common.Hash) TxBuilder {
	args := make([][32]byte, len(hashes))
	for i, hash := range hashes {
		args[i] = hash
	}
	return func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return self.contract.Transact(opts, "commit", args)
	}
}

func (self *Randomizer) RevealTx(hash common.Hash, secret *uint256.Int) TxBuilder {
	return func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return self.contract.Transact(opts, "reveal", [32]byte(hash), secret.ToBig())
	}
}

func unpackUint64(method string, data []byte) (value uint64, err error) {
	out, err := RandomizerABI.Unpack(method, data)
	if err != nil {
		return
	}
	if len(out) != 1 {
		err = fmt.Errorf("unexpected %s output", method)
		return
	}
	v := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if !v.IsUint64() {
		err = fmt.Errorf("%s out of range", method)
		return
	}
	value = v.Uint64()
	return
}

