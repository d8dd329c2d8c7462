package report

import (
	"go.uber.org/atomic"
)

type DealerErrors struct {
	CommitSaveFailures       atomic.Uint64 `json:"commit_save_failures"`
	CommitTxFailures         atomic.Uint64 `json:"commit_tx_failures"`
	CommitTxUnconfirmed      atomic.Uint64 `json:"commit_tx_unconfirmed"`
	ControlStateFailures     atomic.Uint64 `json:"control_state_failures"`
	EventFetchFailures       atomic.Uint64 `json:"event_fetch_failures"`
	EventProcessFailures     atomic.Uint64 `json:"event_process_failures"`
	EventRetriesExhausted    atomic.Uint64 `json:"event_retries_exhausted"`
	CursorSaveFailures       atomic.Uint64 `json:"cursor_save_failures"`
	StorageFailures          atomic.Uint64 `json:"storage_failures"`
	ChainReadFailures        atomic.Uint64 `json:"chain_read_failures"`
	RevealSendingFailures    atomic.Uint64 `json:"reveal_sending_failures"`
	RevealTxUnconfirmed      atomic.Uint64 `json:"reveal_tx_unconfirmed"`
	RevealProcessingFailures atomic.Uint64 `json:"reveal_processing_failures"`
	SecretsNotFound          atomic.Uint64 `json:"secrets_not_found"`
	JournalFailures          atomic.Uint64 `json:"journal_failures"`
}

type DealerState struct {
	// Commit
	TotalUsableHashes  atomic.Uint64 `json:"total_usable_hashes"`
	RequestCounter     atomic.Uint64 `json:"request_counter"`
	SecretsCommitted   atomic.Uint64 `json:"secrets_committed"`
	CommitTransactions atomic.Uint64 `json:"commit_transactions"`

	// Scanning
	LatestBlock        atomic.Uint64 `json:"latest_block"`
	ScannerHeight      atomic.Uint64 `json:"scanner_height"`
	AssignmentsSaved   atomic.Uint64 `json:"assignments_saved"`
	AssignmentsSkipped atomic.Uint64 `json:"assignments_skipped"`

	// Reveal
	SecretsRevealed            atomic.Uint64  `json:"secrets_revealed"`
	SecretsAlreadyRevealed     atomic.Uint64  `json:"secrets_already_revealed"`
	SecretsAbandoned           atomic.Uint64  `json:"secrets_abandoned"`
	RevealsInFlight            atomic.Int64   `json:"reveals_in_flight"`
	LastRevealTimestamp        atomic.Int64   `json:"last_reveal_timestamp"`
	LastRevealFailureTimestamp atomic.Int64   `json:"last_reveal_failure_timestamp"`
	AverageRevealsPerMinute    atomic.Float64 `json:"average_reveals_per_minute"`
	AverageCommitsPerMinute    atomic.Float64 `json:"average_commits_per_minute"`
}

type DealerReport struct {
	State  DealerState  `json:"state"`
	Errors DealerErrors `json:"errors"`
}
