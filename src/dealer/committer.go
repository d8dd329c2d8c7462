package dealer

import (
	"context"
	"fmt"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/eth"
	"github.com/warp-contracts/dealer/src/utils/monitoring"
	"github.com/warp-contracts/dealer/src/utils/task"
)

// Keeps enough committed, unused secret hashes on chain
type Committer struct {
	*task.Task

	chain   Chain
	store   *SecretStore
	monitor monitoring.Monitor
}

func NewCommitter(config *config.Config) (self *Committer) {
	self = new(Committer)

	self.Task = task.NewTask(config, "committer").
		WithOnBeforeStart(func() error {
			if self.chain == nil || self.store == nil {
				return fmt.Errorf("%w: committer", ErrNotConfigured)
			}
			return nil
		}).
		WithPeriodicSubtaskFunc(config.Dealer.CommitInterval, self.tick)

	return
}

func (self *Committer) WithChain(chain Chain) *Committer {
	self.chain = chain
	return self
}

func (self *Committer) WithStore(store *SecretStore) *Committer {
	self.store = store
	return self
}

func (self *Committer) WithMonitor(monitor monitoring.Monitor) *Committer {
	self.monitor = monitor
	return self
}

func (self *Committer) tick() error {
	_, err := self.Commit(self.Ctx)
	if err != nil && self.Ctx.Err() == nil {
		self.Log.WithError(err).Error("Commit failed")
	}
	return nil
}

// Number of hashes to commit so there's at least HashesCommitAhead usable
func (self *Committer) needed(totalUsableHashes uint64) uint64 {
	ahead := self.Config.Dealer.HashesCommitAhead
	if totalUsableHashes >= ahead {
		return 0
	}
	return max(ahead-totalUsableHashes, self.Config.Dealer.MinimalHashesPerCommit)
}

// Tops up the pool of committed hashes, returns the number of committed hashes
func (self *Committer) Commit(ctx context.Context) (committed uint64, err error) {
	state, err := self.chain.ControlState(ctx)
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.ControlStateFailures.Inc()
		return
	}
	self.monitor.GetReport().Dealer.State.TotalUsableHashes.Store(state.TotalUsableHashes)
	self.monitor.GetReport().Dealer.State.RequestCounter.Store(state.RequestCounter)

	n := self.needed(state.TotalUsableHashes)
	if n == 0 {
		return
	}

	log := self.Log.WithField("usable", state.TotalUsableHashes).WithField("count", n)

	secrets, err := GenerateSecrets(n)
	if err != nil {
		return
	}

	// Secrets need to be stored before the chain refers to them
	err = self.store.SaveSubmittedSecrets(ctx, secrets)
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.CommitSaveFailures.Inc()
		return 0, fmt.Errorf("%w: %w", ErrSaveSecretsFailed, err)
	}

	result := self.chain.Commit(ctx, hashes(secrets))
	if result.Status == eth.TxUnconfirmed {
		// May still get mined and bind the hashes, so the pre-images stay
		self.monitor.GetReport().Dealer.Errors.CommitTxUnconfirmed.Inc()
		log.WithField("tx", result.TxHash()).WithError(result.Cause).Warn("Commit transaction unconfirmed, keeping secrets")
		return 0, fmt.Errorf("%w: %w", ErrCommitSecretsTxFailed, result.Err())
	}
	if !result.IsSuccess() {
		self.monitor.GetReport().Dealer.Errors.CommitTxFailures.Inc()

		// Leftovers never get assigned
		removeErr := self.store.RemoveSecrets(context.WithoutCancel(ctx), hashes(secrets)...)
		if removeErr != nil {
			log.WithError(removeErr).Warn("Failed to remove secrets of a failed commit")
		}

		return 0, fmt.Errorf("%w: %w", ErrCommitSecretsTxFailed, result.Err())
	}

	self.monitor.GetReport().Dealer.State.SecretsCommitted.Add(n)
	self.monitor.GetReport().Dealer.State.CommitTransactions.Inc()
	log.WithField("tx", result.TxHash()).Info("Committed secrets")

	return n, nil
}
