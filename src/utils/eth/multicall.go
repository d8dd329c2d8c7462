package eth

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type Call struct {
	Target   common.Address
	CallData []byte
}

// Batches read calls into one eth_call
type Multicall struct {
	contract *bind.BoundContract
}

func NewMulticall(address common.Address, backend bind.ContractBackend) *Multicall {
	return &Multicall{
		contract: bind.NewBoundContract(address, MulticallABI, backend, backend, backend),
	}
}

// Returns the block the calls were executed in and raw return data of each call, in order
func (self *Multicall) Aggregate(ctx context.Context, calls []Call) (blockNumber uint64, returnData [][]byte, err error) {
	var out []interface{}
	err = self.contract.Call(&bind.CallOpts{Context: ctx}, &out, "aggregate", calls)
	if err != nil {
		return
	}

	if len(out) != 2 {
		err = errors.New("unexpected multicall output")
		return
	}

	block := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	returnData = *abi.ConvertType(out[1], new([][]byte)).(*[][]byte)
	if len(returnData) != len(calls) {
		err = errors.New("multicall returned wrong number of results")
		return
	}

	blockNumber = block.Uint64()
	return
}
