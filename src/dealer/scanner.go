package dealer

import (
	"context"
	"fmt"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/monitoring"
	"github.com/warp-contracts/dealer/src/utils/task"
)

// Reads contract events in the block range [fromBlock, toBlock]
type FetchFunc[D any] func(ctx context.Context, fromBlock, toBlock uint64) ([]D, error)

// Handles one batch of fetched events
type ProcessFunc[D any] func(ctx context.Context, events []D) error

// Periodically fetches events emitted after the last scanned block and passes them to the processing function.
// Progress is checkpointed per event in the SecretStore.
type EventScanner[D any] struct {
	*task.Task

	event   string
	chain   Chain
	store   *SecretStore
	journal *Journal
	monitor monitoring.Monitor

	fetch   FetchFunc[D]
	process ProcessFunc[D]
}

func NewEventScanner[D any](config *config.Config, event string) (self *EventScanner[D]) {
	self = new(EventScanner[D])
	self.event = event

	self.Task = task.NewTask(config, "scanner-"+event).
		WithOnBeforeStart(func() error {
			if self.chain == nil || self.store == nil || self.fetch == nil || self.process == nil {
				return fmt.Errorf("%w: scanner %s", ErrNotConfigured, event)
			}
			return nil
		}).
		WithPeriodicSubtaskFunc(config.Dealer.ScanInterval, self.tick)

	return
}

func (self *EventScanner[D]) WithChain(chain Chain) *EventScanner[D] {
	self.chain = chain
	return self
}

func (self *EventScanner[D]) WithStore(store *SecretStore) *EventScanner[D] {
	self.store = store
	return self
}

func (self *EventScanner[D]) WithJournal(journal *Journal) *EventScanner[D] {
	self.journal = journal
	return self
}

func (self *EventScanner[D]) WithMonitor(monitor monitoring.Monitor) *EventScanner[D] {
	self.monitor = monitor
	return self
}

func (self *EventScanner[D]) WithFetch(fetch FetchFunc[D]) *EventScanner[D] {
	self.fetch = fetch
	return self
}

func (self *EventScanner[D]) WithProcess(process ProcessFunc[D]) *EventScanner[D] {
	self.process = process
	return self
}

func (self *EventScanner[D]) tick() error {
	_, err := self.Scan(self.Ctx)
	if err != nil && self.Ctx.Err() == nil {
		self.Log.WithError(err).Error("Scan failed")
	}
	return nil
}

func (self *EventScanner[D]) retry(ctx context.Context) *task.Retry {
	return task.NewRetry().
		WithContext(ctx).
		WithConstantInterval(self.Config.Dealer.SleepTimeUntilNextTry).
		WithMaxTries(self.Config.Dealer.ProcessTryTimes)
}

// Scans the next range of blocks. Returns the last scanned block, or 0 if there was nothing to scan.
func (self *EventScanner[D]) Scan(ctx context.Context) (scanned uint64, err error) {
	last, ok, err := self.store.GetCursor(ctx, self.event)
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.StorageFailures.Inc()
		return
	}
	if !ok {
		last = self.Config.Dealer.SystemDeployedBlock
	}

	latest, err := self.chain.LatestBlock(ctx)
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.ChainReadFailures.Inc()
		return
	}
	self.monitor.GetReport().Dealer.State.LatestBlock.Store(latest)

	fromBlock := last + 1
	toBlock := min(fromBlock+self.Config.Dealer.MaxBlocksPerScan-1, latest)
	if fromBlock > toBlock {
		return
	}

	log := self.Log.WithField("from", fromBlock).WithField("to", toBlock)
	log.Debug("Scanning for events")

	events, err := self.fetch(ctx, fromBlock, toBlock)
	if err != nil {
		// Cursor stays, the same range is fetched next time
		self.monitor.GetReport().Dealer.Errors.EventFetchFailures.Inc()
		return 0, fmt.Errorf("%w: %s [%d, %d]: %w", ErrEventFetch, self.event, fromBlock, toBlock, err)
	}

	attempt := 0
	err = self.retry(ctx).
		WithOnError(func(err error) error {
			self.monitor.GetReport().Dealer.Errors.EventProcessFailures.Inc()
			log.WithError(err).WithField("attempt", attempt).Warn("Failed to process events")
			return err
		}).
		Run(func() error {
			attempt++
			return self.process(ctx, events)
		})
	if err != nil {
		if ctx.Err() != nil {
			// Stopping, the range will be processed again after restart
			return 0, ctx.Err()
		}

		// Range is dropped and recorded for manual follow-up
		self.monitor.GetReport().Dealer.Errors.EventRetriesExhausted.Inc()
		if self.journal != nil {
			self.journal.DroppedRange(ctx, self.event, fromBlock, toBlock, events, err)
		}
	}

	err = self.retry(ctx).
		WithOnError(func(err error) error {
			log.WithError(err).Warn("Failed to save scan cursor")
			return err
		}).
		Run(func() error {
			return self.store.SetCursor(ctx, self.event, toBlock)
		})
	if err != nil {
		self.monitor.GetReport().Dealer.Errors.CursorSaveFailures.Inc()
		return 0, err
	}

	self.monitor.GetReport().Dealer.State.ScannerHeight.Store(toBlock)
	log.WithField("events", len(events)).Debug("Scanned")

	return toBlock, nil
}

