package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/task"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/teivah/onecontext"
	"go.uber.org/atomic"
)

var errQueueStopped = errors.New("write queue stopped")

// Single consumer queue for all transactions sent from one account.
// A transaction is built and sent only after the previous one got mined (or failed),
// so nonces never collide. There's no retrying here, callers decide what to do with failures.
// A transaction still pending when mining times out or the queue stops is reported as TxUnconfirmed.
type WriteQueue struct {
	*task.Task

	backend bind.DeployBackend
	opts    *bind.TransactOpts

	// Number of transactions submitted so far
	sequence atomic.Uint64
}

func NewWriteQueue(config *config.Config) (self *WriteQueue) {
	self = new(WriteQueue)

	self.Task = task.NewTask(config, "write-queue").
		WithWorkerPool(1, config.Chain.WriteQueueSize).
		WithOnBeforeStart(func() error {
			if self.opts == nil || self.backend == nil {
				return errors.New("write queue needs a signer and a backend")
			}
			return nil
		})

	return
}

func (self *WriteQueue) WithBackend(backend bind.DeployBackend) *WriteQueue {
	self.backend = backend
	return self
}

func (self *WriteQueue) WithSigner(key *ecdsa.PrivateKey, chainId *big.Int) (*WriteQueue, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainId)
	if err != nil {
		return self, err
	}
	self.opts = opts
	return self, nil
}

func (self *WriteQueue) From() common.Address {
	if self.opts == nil {
		return common.Address{}
	}
	return self.opts.From
}

// Job states, a job is either started by the worker or given up by the caller, never both
const (
	jobPending int32 = iota
	jobRunning
	jobAbandoned
)

// Enqueues the transaction and blocks until its outcome is known.
// Once the transaction got broadcast the result is never a TxSendingFailure.
func (self *WriteQueue) Submit(ctx context.Context, name string, build TxBuilder) *TxResult {
	seq := self.sequence.Inc()
	out := make(chan *TxResult, 1)

	var state atomic.Int32
	ok := self.SubmitToWorker(func() {
		if !state.CompareAndSwap(jobPending, jobRunning) {
			return
		}
		out <- self.execute(ctx, seq, name, build)
	})
	if !ok {
		return NewTxSendingFailure(errQueueStopped)
	}

	select {
	case result := <-out:
		return result
	case <-ctx.Done():
	case <-self.Ctx.Done():
	}

	if state.CompareAndSwap(jobPending, jobAbandoned) {
		// Not started, the worker will skip it
		if ctx.Err() != nil {
			return NewTxSendingFailure(ctx.Err())
		}
		return NewTxSendingFailure(errQueueStopped)
	}

	// Already running with a cancelled context, finishes without waiting for the receipt
	return <-out
}

func (self *WriteQueue) execute(callerCtx context.Context, seq uint64, name string, build TxBuilder) *TxResult {
	log := self.Log.WithField("seq", seq).WithField("tx_name", name)

	ctx, cancel := onecontext.Merge(self.Ctx, callerCtx)
	defer cancel()

	if ctx.Err() != nil {
		log.Warn("Transaction cancelled before sending")
		return NewTxSendingFailure(ctx.Err())
	}

	opts := *self.opts
	opts.Context = ctx
	opts.GasLimit = self.Config.Chain.DefaultGasLimit

	tx, err := build(&opts)
	if err != nil {
		log.WithError(err).Error("Failed to send transaction")
		return NewTxSendingFailure(err)
	}

	log = log.WithField("tx", tx.Hash().Hex())
	log.Debug("Transaction sent, waiting for receipt")

	waitCtx, waitCancel := context.WithTimeout(ctx, self.Config.Chain.TxMiningTimeout)
	defer waitCancel()

	receipt, err := bind.WaitMined(waitCtx, self.backend, tx)
	if err != nil {
		log.WithError(err).Warn("Transaction sent but receipt unknown")
		return NewTxUnconfirmed(tx.Hash(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		log.WithField("block", receipt.BlockNumber).Error("Transaction reverted")
		return NewTxProcessingFailure(receipt)
	}

	log.WithField("block", receipt.BlockNumber).Debug("Transaction mined")
	return NewTxSuccess(receipt)
}
