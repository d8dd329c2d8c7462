package eth

import (
	"context"

	"github.com/warp-contracts/dealer/src/utils/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Everything the dealer needs from the chain: randomizer reads and writes serialized through one queue
type Bot struct {
	*Randomizer

	log   *logrus.Entry
	queue *WriteQueue
}

func NewBot(randomizer *Randomizer, queue *WriteQueue) (self *Bot) {
	self = new(Bot)
	self.log = logger.NewSublogger("bot")
	self.Randomizer = randomizer
	self.queue = queue
	return
}

func (self *Bot) Commit(ctx context.Context, hashes []common.Hash) *TxResult {
	result := self.queue.Submit(ctx, "commit", self.CommitTx(hashes))
	if result.IsSuccess() {
		self.log.WithField("tx", result.TxHash()).
			WithField("sent", len(hashes)).
			WithField("committed", self.CountCommitted(result.Receipt)).
			Info("Secret hashes committed")
	}
	return result
}

func (self *Bot) Reveal(ctx context.Context, hash common.Hash, secret *uint256.Int) *TxResult {
	return self.queue.Submit(ctx, "reveal", self.RevealTx(hash, secret))
}
