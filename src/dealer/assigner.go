package dealer

import (
	"context"

	"github.com/warp-contracts/dealer/src/utils/eth"
	"github.com/warp-contracts/dealer/src/utils/logger"
	"github.com/warp-contracts/dealer/src/utils/monitoring"

	"github.com/sirupsen/logrus"
)

// Turns SecretHashAssigned events into waiting secrets
type Assigner struct {
	log     *logrus.Entry
	chain   Chain
	store   *SecretStore
	monitor monitoring.Monitor
}

func NewAssigner() (self *Assigner) {
	self = new(Assigner)
	self.log = logger.NewSublogger("assigner")
	return
}

func (self *Assigner) WithChain(chain Chain) *Assigner {
	self.chain = chain
	return self
}

func (self *Assigner) WithStore(store *SecretStore) *Assigner {
	self.store = store
	return self
}

func (self *Assigner) WithMonitor(monitor monitoring.Monitor) *Assigner {
	self.monitor = monitor
	return self
}

func (self *Assigner) Fetch(ctx context.Context, fromBlock, toBlock uint64) ([]*eth.SecretHashAssigned, error) {
	return self.chain.SecretHashAssigned(ctx, fromBlock, toBlock)
}

// Saves assignments of our own, not yet revealed secrets.
// Any failure fails the whole batch, saving is idempotent so the batch can be retried.
func (self *Assigner) Process(ctx context.Context, events []*eth.SecretHashAssigned) error {
	saved := 0
	for _, event := range events {
		log := self.log.WithField("hash", event.SecretHash.Hex()).WithField("index", event.SecretIndex)

		exists, err := self.store.ExistsSecret(ctx, event.SecretHash)
		if err != nil {
			self.monitor.GetReport().Dealer.Errors.StorageFailures.Inc()
			return err
		}
		if !exists {
			// Not committed by this dealer
			self.monitor.GetReport().Dealer.State.AssignmentsSkipped.Inc()
			continue
		}

		revealed, err := self.chain.IsHashRevealed(ctx, event.SecretHash)
		if err != nil {
			self.monitor.GetReport().Dealer.Errors.ChainReadFailures.Inc()
			return err
		}
		if revealed {
			log.Info("Assigned secret already revealed, skipping")
			self.monitor.GetReport().Dealer.State.AssignmentsSkipped.Inc()
			continue
		}

		err = self.store.SaveWaitingSecret(ctx, WaitingSecret{
			Index: event.SecretIndex,
			Hash:  event.SecretHash,
			Block: event.Block,
		})
		if err != nil {
			log.WithError(err).Error("Failed to save waiting secret")
			self.monitor.GetReport().Dealer.Errors.StorageFailures.Inc()
			return err
		}

		log.WithField("block", event.Block).Info("Secret waiting for reveal")
		self.monitor.GetReport().Dealer.State.AssignmentsSaved.Inc()
		saved++
	}

	if saved > 0 {
		self.log.WithField("count", saved).Debug("Saved waiting secrets")
	}
	return nil
}
