package monitor_dealer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Dealer
	TotalUsableHashes       *prometheus.Desc
	RequestCounter          *prometheus.Desc
	SecretsCommitted        *prometheus.Desc
	CommitTransactions      *prometheus.Desc
	LatestBlock             *prometheus.Desc
	ScannerHeight           *prometheus.Desc
	AssignmentsSaved        *prometheus.Desc
	AssignmentsSkipped      *prometheus.Desc
	SecretsRevealed         *prometheus.Desc
	SecretsAlreadyRevealed  *prometheus.Desc
	SecretsAbandoned        *prometheus.Desc
	RevealsInFlight         *prometheus.Desc
	AverageRevealsPerMinute *prometheus.Desc
	AverageCommitsPerMinute *prometheus.Desc

	// Errors
	CommitSaveFailures       *prometheus.Desc
	CommitTxFailures         *prometheus.Desc
	CommitTxUnconfirmed      *prometheus.Desc
	ControlStateFailures     *prometheus.Desc
	EventFetchFailures       *prometheus.Desc
	EventProcessFailures     *prometheus.Desc
	EventRetriesExhausted    *prometheus.Desc
	CursorSaveFailures       *prometheus.Desc
	StorageFailures          *prometheus.Desc
	ChainReadFailures        *prometheus.Desc
	RevealSendingFailures    *prometheus.Desc
	RevealTxUnconfirmed      *prometheus.Desc
	RevealProcessingFailures *prometheus.Desc
	SecretsNotFound          *prometheus.Desc
	JournalFailures          *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		// Run
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Dealer
		TotalUsableHashes:       prometheus.NewDesc("total_usable_hashes", "", nil, nil),
		RequestCounter:          prometheus.NewDesc("request_counter", "", nil, nil),
		SecretsCommitted:        prometheus.NewDesc("secrets_committed", "", nil, nil),
		CommitTransactions:      prometheus.NewDesc("commit_transactions", "", nil, nil),
		LatestBlock:             prometheus.NewDesc("latest_block", "", nil, nil),
		ScannerHeight:           prometheus.NewDesc("scanner_height", "", nil, nil),
		AssignmentsSaved:        prometheus.NewDesc("assignments_saved", "", nil, nil),
		AssignmentsSkipped:      prometheus.NewDesc("assignments_skipped", "", nil, nil),
		SecretsRevealed:         prometheus.NewDesc("secrets_revealed", "", nil, nil),
		SecretsAlreadyRevealed:  prometheus.NewDesc("secrets_already_revealed", "", nil, nil),
		SecretsAbandoned:        prometheus.NewDesc("secrets_abandoned", "", nil, nil),
		RevealsInFlight:         prometheus.NewDesc("reveals_in_flight", "", nil, nil),
		AverageRevealsPerMinute: prometheus.NewDesc("average_reveals_per_minute", "", nil, nil),
		AverageCommitsPerMinute: prometheus.NewDesc("average_commits_per_minute", "", nil, nil),

		// Errors
		CommitSaveFailures:       prometheus.NewDesc("error_commit_save_failures", "", nil, nil),
		CommitTxFailures:         prometheus.NewDesc("error_commit_tx_failures", "", nil, nil),
		CommitTxUnconfirmed:      prometheus.NewDesc("error_commit_tx_unconfirmed", "", nil, nil),
		ControlStateFailures:     prometheus.NewDesc("error_control_state_failures", "", nil, nil),
		EventFetchFailures:       prometheus.NewDesc("error_event_fetch_failures", "", nil, nil),
		EventProcessFailures:     prometheus.NewDesc("error_event_process_failures", "", nil, nil),
		EventRetriesExhausted:    prometheus.NewDesc("error_event_retries_exhausted", "", nil, nil),
		CursorSaveFailures:       prometheus.NewDesc("error_cursor_save_failures", "", nil, nil),
		StorageFailures:          prometheus.NewDesc("error_storage_failures", "", nil, nil),
		ChainReadFailures:        prometheus.NewDesc("error_chain_read_failures", "", nil, nil),
		RevealSendingFailures:    prometheus.NewDesc("error_reveal_sending_failures", "", nil, nil),
		RevealTxUnconfirmed:      prometheus.NewDesc("error_reveal_tx_unconfirmed", "", nil, nil),
		RevealProcessingFailures: prometheus.NewDesc("error_reveal_processing_failures", "", nil, nil),
		SecretsNotFound:          prometheus.NewDesc("error_secrets_not_found", "", nil, nil),
		JournalFailures:          prometheus.NewDesc("error_journal_failures", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Dealer
	ch <- self.TotalUsableHashes
	ch <- self.RequestCounter
	ch <- self.SecretsCommitted
	ch <- self.CommitTransactions
	ch <- self.LatestBlock
	ch <- self.ScannerHeight
	ch <- self.AssignmentsSaved
	ch <- self.AssignmentsSkipped
	ch <- self.SecretsRevealed
	ch <- self.SecretsAlreadyRevealed
	ch <- self.SecretsAbandoned
	ch <- self.RevealsInFlight
	ch <- self.AverageRevealsPerMinute
	ch <- self.AverageCommitsPerMinute

	// Errors
	ch <- self.CommitSaveFailures
	ch <- self.CommitTxFailures
	ch <- self.CommitTxUnconfirmed
	ch <- self.ControlStateFailures
	ch <- self.EventFetchFailures
	ch <- self.EventProcessFailures
	ch <- self.EventRetriesExhausted
	ch <- self.CursorSaveFailures
	ch <- self.StorageFailures
	ch <- self.ChainReadFailures
	ch <- self.RevealSendingFailures
	ch <- self.RevealTxUnconfirmed
	ch <- self.RevealProcessingFailures
	ch <- self.SecretsNotFound
	ch <- self.JournalFailures
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	report := self.monitor.GetReport()

	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(report.Run.State.UpForSeconds.Load()))

	// Dealer
	ch <- prometheus.MustNewConstMetric(self.TotalUsableHashes, prometheus.GaugeValue, float64(report.Dealer.State.TotalUsableHashes.Load()))
	ch <- prometheus.MustNewConstMetric(self.RequestCounter, prometheus.GaugeValue, float64(report.Dealer.State.RequestCounter.Load()))
	ch <- prometheus.MustNewConstMetric(self.SecretsCommitted, prometheus.CounterValue, float64(report.Dealer.State.SecretsCommitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.CommitTransactions, prometheus.CounterValue, float64(report.Dealer.State.CommitTransactions.Load()))
	ch <- prometheus.MustNewConstMetric(self.LatestBlock, prometheus.GaugeValue, float64(report.Dealer.State.LatestBlock.Load()))
	ch <- prometheus.MustNewConstMetric(self.ScannerHeight, prometheus.GaugeValue, float64(report.Dealer.State.ScannerHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.AssignmentsSaved, prometheus.CounterValue, float64(report.Dealer.State.AssignmentsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.AssignmentsSkipped, prometheus.CounterValue, float64(report.Dealer.State.AssignmentsSkipped.Load()))
	ch <- prometheus.MustNewConstMetric(self.SecretsRevealed, prometheus.CounterValue, float64(report.Dealer.State.SecretsRevealed.Load()))
	ch <- prometheus.MustNewConstMetric(self.SecretsAlreadyRevealed, prometheus.CounterValue, float64(report.Dealer.State.SecretsAlreadyRevealed.Load()))
	ch <- prometheus.MustNewConstMetric(self.SecretsAbandoned, prometheus.CounterValue, float64(report.Dealer.State.SecretsAbandoned.Load()))
	ch <- prometheus.MustNewConstMetric(self.RevealsInFlight, prometheus.GaugeValue, float64(report.Dealer.State.RevealsInFlight.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageRevealsPerMinute, prometheus.GaugeValue, float64(report.Dealer.State.AverageRevealsPerMinute.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageCommitsPerMinute, prometheus.GaugeValue, float64(report.Dealer.State.AverageCommitsPerMinute.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.CommitSaveFailures, prometheus.CounterValue, float64(report.Dealer.Errors.CommitSaveFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.CommitTxFailures, prometheus.CounterValue, float64(report.Dealer.Errors.CommitTxFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.CommitTxUnconfirmed, prometheus.CounterValue, float64(report.Dealer.Errors.CommitTxUnconfirmed.Load()))
	ch <- prometheus.MustNewConstMetric(self.ControlStateFailures, prometheus.CounterValue, float64(report.Dealer.Errors.ControlStateFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventFetchFailures, prometheus.CounterValue, float64(report.Dealer.Errors.EventFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventProcessFailures, prometheus.CounterValue, float64(report.Dealer.Errors.EventProcessFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventRetriesExhausted, prometheus.CounterValue, float64(report.Dealer.Errors.EventRetriesExhausted.Load()))
	ch <- prometheus.MustNewConstMetric(self.CursorSaveFailures, prometheus.CounterValue, float64(report.Dealer.Errors.CursorSaveFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.StorageFailures, prometheus.CounterValue, float64(report.Dealer.Errors.StorageFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainReadFailures, prometheus.CounterValue, float64(report.Dealer.Errors.ChainReadFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.RevealSendingFailures, prometheus.CounterValue, float64(report.Dealer.Errors.RevealSendingFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.RevealTxUnconfirmed, prometheus.CounterValue, float64(report.Dealer.Errors.RevealTxUnconfirmed.Load()))
	ch <- prometheus.MustNewConstMetric(self.RevealProcessingFailures, prometheus.CounterValue, float64(report.Dealer.Errors.RevealProcessingFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SecretsNotFound, prometheus.CounterValue, float64(report.Dealer.Errors.SecretsNotFound.Load()))
	ch <- prometheus.MustNewConstMetric(self.JournalFailures, prometheus.CounterValue, float64(report.Dealer.Errors.JournalFailures.Load()))
}
