package dealer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/eth"
	"github.com/warp-contracts/dealer/src/utils/model"
	"github.com/warp-contracts/dealer/src/utils/monitoring"
	"github.com/warp-contracts/dealer/src/utils/task"
)

// Reveals waiting secrets, one per tick, lowest index first
type Revealer struct {
	*task.Task

	chain   Chain
	store   *SecretStore
	guard   *ProcessingGuard
	journal *Journal
	monitor monitoring.Monitor
}

func NewRevealer(config *config.Config) (self *Revealer) {
	self = new(Revealer)
	self.guard = NewProcessingGuard()

	self.Task = task.NewTask(config, "revealer").
		WithOnBeforeStart(func() error {
			if self.chain == nil || self.store == nil {
				return fmt.Errorf("%w: revealer", ErrNotConfigured)
			}
			return nil
		}).
		WithPeriodicSubtaskFunc(config.Dealer.RevealInterval, self.tick)

	return
}

func (self *Revealer) WithChain(chain Chain) *Revealer {
	self.chain = chain
	return self
}

func (self *Revealer) WithStore(store *SecretStore) *Revealer {
	self.store = store
	return self
}

func (self *Revealer) WithJournal(journal *Journal) *Revealer {
	self.journal = journal
	return self
}

func (self *Revealer) WithMonitor(monitor monitoring.Monitor) *Revealer {
	self.monitor = monitor
	return self
}

func (self *Revealer) tick() error {
	_, err := self.Reveal(self.Ctx)
	if err != nil && self.Ctx.Err() == nil {
		self.Log.WithError(err).Error("Reveal failed")
	}
	return nil
}

// Picks the first waiting secret that isn't being revealed already and isn't revealed on chain.
// Waiting entries found revealed on chain are removed on the way.
func (self *Revealer) selectSecret(ctx context.Context, candidates []WaitingSecret) (selected *WaitingSecret, err error) {
	var alreadyRevealed []WaitingSecret

	for i := range candidates {
		candidate := candidates[i]
		if self.guard.IsMarked(candidate.Hash) {
			continue
		}

		var revealed bool
		revealed, err = self.chain.IsHashRevealed(ctx, candidate.Hash)
		if err != nil {
			self.monitor.GetReport().Dealer.Errors.ChainReadFailures.Inc()
			break
		}

		if revealed {
			alreadyRevealed = append(alreadyRevealed, candidate)
			continue
		}

		if self.guard.TryMark(candidate.Hash, candidate.Index) {
			selected = &candidate
			break
		}
	}

	for _, secret := range alreadyRevealed {
		self.monitor.GetReport().Dealer.State.SecretsAlreadyRevealed.Inc()
		self.removeWaiting(ctx, secret)
	}

	return
}

func (self *Revealer) removeWaiting(ctx context.Context, secret WaitingSecret) {
	err := self.store.RemoveWaitingSecret(context.WithoutCancel(ctx), secret)
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.StorageFailures.Inc()
		self.Log.WithError(err).WithField("hash", secret.Hash.Hex()).Warn("Failed to remove waiting secret")
	}
}

func (self *Revealer) abandon(ctx context.Context, secret WaitingSecret, reason, txHash string, cause error) {
	self.removeWaiting(ctx, secret)
	self.monitor.GetReport().Dealer.State.SecretsAbandoned.Inc()
	if self.journal != nil {
		self.journal.Abandoned(context.WithoutCancel(ctx), secret, reason, txHash, cause)
	}
}

// Reveals at most one secret. Returns the selected secret, nil if there was nothing to reveal.
func (self *Revealer) Reveal(ctx context.Context) (selected *WaitingSecret, err error) {
	currentBlock, err := self.chain.LatestBlock(ctx)
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.ChainReadFailures.Inc()
		return
	}

	depth := self.Config.Dealer.ConfirmationDepth
	if currentBlock < depth {
		return
	}

	candidates, err := self.store.GetWaitingSecretsInRange(ctx, 0, currentBlock-depth)
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.StorageFailures.Inc()
		return
	}
	if len(candidates) == 0 {
		return
	}

	selected, err = self.selectSecret(ctx, candidates)
	if err != nil || selected == nil {
		return nil, err
	}

	secret := *selected
	defer self.guard.Release(secret.Hash)

	self.monitor.GetReport().Dealer.State.RevealsInFlight.Inc()
	defer self.monitor.GetReport().Dealer.State.RevealsInFlight.Dec()

	log := self.Log.WithField("hash", secret.Hash.Hex()).WithField("index", secret.Index).WithField("block", secret.Block)
	log.Debug("Revealing secret")

	value, err := self.store.GetSecret(ctx, secret.Hash)
	if errors.Is(err, ErrSecretNotFound) {
		self.monitor.GetReport().Dealer.Errors.SecretsNotFound.Inc()
		self.abandon(ctx, secret, model.OutcomeReasonSecretNotFound, "", err)
		return
	}
	if err != nil {
		// Picked again next time
		self.monitor.GetReport().Dealer.Errors.StorageFailures.Inc()
		return
	}

	result := self.chain.Reveal(ctx, secret.Hash, value)
	switch result.Status {
	case eth.TxSuccess:
		self.removeWaiting(ctx, secret)

		// The value is public from now on
		err = self.store.RemoveSecrets(context.WithoutCancel(ctx), secret.Hash)
		if err != nil {
			log.WithError(err).Warn("Failed to remove revealed secret value")
			err = nil
		}

		self.monitor.GetReport().Dealer.State.SecretsRevealed.Inc()
		self.monitor.GetReport().Dealer.State.LastRevealTimestamp.Store(time.Now().Unix())
		if self.journal != nil {
			self.journal.Revealed(context.WithoutCancel(ctx), secret, result.TxHash())
		}

	case eth.TxSendingFailure:
		// Stays waiting, picked again next time
		self.monitor.GetReport().Dealer.Errors.RevealSendingFailures.Inc()
		self.monitor.GetReport().Dealer.State.LastRevealFailureTimestamp.Store(time.Now().Unix())
		err = result.Err()

	case eth.TxUnconfirmed:
		// Stays waiting, next time it's skipped if the pending transaction got mined
		self.monitor.GetReport().Dealer.Errors.RevealTxUnconfirmed.Inc()
		self.monitor.GetReport().Dealer.State.LastRevealFailureTimestamp.Store(time.Now().Unix())
		err = result.Err()

	case eth.TxProcessingFailure:
		self.monitor.GetReport().Dealer.Errors.RevealProcessingFailures.Inc()
		err = result.Err()

		// An earlier unconfirmed reveal may have been mined in the meantime
		revealed, checkErr := self.chain.IsHashRevealed(context.WithoutCancel(ctx), secret.Hash)
		if checkErr == nil && revealed {
			log.WithField("tx", result.TxHash()).Info("Reveal reverted, secret already revealed")
			self.monitor.GetReport().Dealer.State.SecretsAlreadyRevealed.Inc()
			self.removeWaiting(ctx, secret)
			return selected, nil
		}

		// Reverted, revealing this secret again won't help
		self.abandon(ctx, secret, model.OutcomeReasonTxProcessingFailed, result.TxHash(), err)
	}

	return
}
