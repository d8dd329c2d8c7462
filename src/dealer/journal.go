package dealer

import (
	"context"
	"encoding/json"

	"github.com/warp-contracts/dealer/src/utils/logger"
	"github.com/warp-contracts/dealer/src/utils/model"
	"github.com/warp-contracts/dealer/src/utils/monitoring"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgtype"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Records terminal outcomes that may need manual follow-up.
// Always logs, saves to the database only if one is set.
type Journal struct {
	log      *logrus.Entry
	db       *gorm.DB
	contract common.Address
	monitor  monitoring.Monitor
}

func NewJournal() (self *Journal) {
	self = new(Journal)
	self.log = logger.NewSublogger("journal")
	return
}

func (self *Journal) WithDB(db *gorm.DB) *Journal {
	self.db = db
	return self
}

func (self *Journal) WithAddress(address common.Address) *Journal {
	self.contract = address
	return self
}

func (self *Journal) WithMonitor(monitor monitoring.Monitor) *Journal {
	self.monitor = monitor
	return self
}

func (self *Journal) Revealed(ctx context.Context, secret WaitingSecret, txHash string) {
	self.record(ctx, &model.Outcome{
		Kind:        model.OutcomeKindRevealed,
		SecretHash:  secret.Hash.Hex(),
		SecretIndex: secret.Index,
		BlockHeight: secret.Block,
		TxHash:      txHash,
	})
}

func (self *Journal) Abandoned(ctx context.Context, secret WaitingSecret, reason, txHash string, cause error) {
	outcome := &model.Outcome{
		Kind:        model.OutcomeKindAbandoned,
		Reason:      reason,
		SecretHash:  secret.Hash.Hex(),
		SecretIndex: secret.Index,
		BlockHeight: secret.Block,
		TxHash:      txHash,
	}
	if cause != nil {
		outcome.Error = cause.Error()
	}
	self.record(ctx, outcome)
}

// Events fetched for the range that couldn't be processed
func (self *Journal) DroppedRange(ctx context.Context, event string, fromBlock, toBlock uint64, events any, cause error) {
	self.record(ctx, self.droppedRange(event, fromBlock, toBlock, events, cause))
}

func (self *Journal) droppedRange(event string, fromBlock, toBlock uint64, events any, cause error) (outcome *model.Outcome) {
	outcome = &model.Outcome{
		Kind:      model.OutcomeKindDroppedRange,
		Reason:    event,
		FromBlock: fromBlock,
		ToBlock:   toBlock,
	}
	if cause != nil {
		outcome.Error = cause.Error()
	}

	buf, err := json.Marshal(events)
	if err != nil {
		self.log.WithError(err).Warn("Failed to encode dropped events")
	} else {
		outcome.Details = pgtype.JSONB{Bytes: buf, Status: pgtype.Present}
	}
	return
}

func (self *Journal) record(ctx context.Context, outcome *model.Outcome) {
	outcome.Contract = self.contract.Hex()
	if outcome.Details.Status == pgtype.Undefined {
		outcome.Details.Status = pgtype.Null
	}

	log := self.log.WithField("kind", outcome.Kind).
		WithField("reason", outcome.Reason).
		WithField("hash", outcome.SecretHash).
		WithField("index", outcome.SecretIndex).
		WithField("tx", outcome.TxHash)

	switch outcome.Kind {
	case model.OutcomeKindRevealed:
		log.Info("Secret revealed")
	case model.OutcomeKindDroppedRange:
		log.WithField("from", outcome.FromBlock).
			WithField("to", outcome.ToBlock).
			WithField("err", outcome.Error).
			Error("Events dropped after retries, needs manual investigation")
	default:
		log.WithField("err", outcome.Error).Error("Secret abandoned, needs manual investigation")
	}

	if self.db == nil {
		return
	}

	err := self.db.WithContext(ctx).Create(outcome).Error
	if err != nil {
		self.log.WithError(err).Error("Failed to save outcome")
		if self.monitor != nil {
			self.monitor.GetReport().Dealer.Errors.JournalFailures.Inc()
		}
	}
}
