package dealer

import (
	"context"
	"math/big"
	"sync"

	"github.com/warp-contracts/dealer/src/utils/eth"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

type revealCall struct {
	Hash   common.Hash
	Secret *uint256.Int
}

// In-memory chain
type fakeChain struct {
	mtx sync.Mutex

	latestBlock uint64
	latestErr   error

	state    eth.ControlState
	stateErr error

	revealed    map[common.Hash]bool
	revealedErr error

	assigned    []*eth.SecretHashAssigned
	fetchErr    error
	fetchRanges [][2]uint64

	commits      [][]common.Hash
	commitResult *eth.TxResult
	onCommit     func(hashes []common.Hash)

	// Replaces commitResult when set
	commitFunc func(ctx context.Context, hashes []common.Hash) *eth.TxResult

	reveals      []revealCall
	revealResult *eth.TxResult
	onReveal     func(hash common.Hash)
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		revealed:     make(map[common.Hash]bool),
		commitResult: eth.NewTxSuccess(&types.Receipt{Status: types.ReceiptStatusSuccessful}),
		revealResult: eth.NewTxSuccess(&types.Receipt{Status: types.ReceiptStatusSuccessful}),
	}
}

func (self *fakeChain) LatestBlock(ctx context.Context) (uint64, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.latestBlock, self.latestErr
}

func (self *fakeChain) ControlState(ctx context.Context) (*eth.ControlState, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.stateErr != nil {
		return nil, self.stateErr
	}
	state := self.state
	return &state, nil
}

func (self *fakeChain) IsHashRevealed(ctx context.Context, hash common.Hash) (bool, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.revealedErr != nil {
		return false, self.revealedErr
	}
	return self.revealed[hash], nil
}

func (self *fakeChain) SecretHashAssigned(ctx context.Context, fromBlock, toBlock uint64) ([]*eth.SecretHashAssigned, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.fetchRanges = append(self.fetchRanges, [2]uint64{fromBlock, toBlock})
	if self.fetchErr != nil {
		return nil, self.fetchErr
	}

	var out []*eth.SecretHashAssigned
	for _, event := range self.assigned {
		if event.Block >= fromBlock && event.Block <= toBlock {
			out = append(out, event)
		}
	}
	return out, nil
}

func (self *fakeChain) Commit(ctx context.Context, hashes []common.Hash) *eth.TxResult {
	if self.onCommit != nil {
		self.onCommit(hashes)
	}

	self.mtx.Lock()
	self.commits = append(self.commits, hashes)
	result, commitFunc := self.commitResult, self.commitFunc
	self.mtx.Unlock()

	if commitFunc != nil {
		return commitFunc(ctx, hashes)
	}
	return result
}

func (self *fakeChain) Reveal(ctx context.Context, hash common.Hash, secret *uint256.Int) *eth.TxResult {
	if self.onReveal != nil {
		self.onReveal(hash)
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.reveals = append(self.reveals, revealCall{Hash: hash, Secret: secret})
	return self.revealResult
}

func (self *fakeChain) revealCalls() []revealCall {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return append([]revealCall(nil), self.reveals...)
}

// Node that accepts transactions but never returns a receipt
type pendingBackend struct {
	mtx  sync.Mutex
	sent []common.Hash
}

func (self *pendingBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (self *pendingBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

// Signs a dummy transaction and records it as broadcast
func (self *pendingBackend) send(opts *bind.TransactOpts) (*types.Transaction, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	tx, err := opts.Signer(opts.From, types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(self.sent)),
		GasPrice: big.NewInt(1),
		Gas:      opts.GasLimit,
	}))
	if err != nil {
		return nil, err
	}
	self.sent = append(self.sent, tx.Hash())
	return tx, nil
}

func (self *pendingBackend) broadcast() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return len(self.sent)
}
