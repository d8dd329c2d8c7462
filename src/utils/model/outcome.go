package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableDealerOutcomes = "dealer_outcomes"

type OutcomeKind string

const (
	OutcomeKindRevealed     OutcomeKind = "revealed"
	OutcomeKindAbandoned    OutcomeKind = "abandoned"
	OutcomeKindDroppedRange OutcomeKind = "dropped_range"
)

// Reasons a secret got abandoned
const (
	OutcomeReasonSecretNotFound     = "secret_not_found"
	OutcomeReasonTxProcessingFailed = "tx_processing_failed"
)

// Terminal state of a secret, or a batch of events that couldn't be processed.
// Kept for manual follow-up.
type Outcome struct {
	ID          int64        `gorm:"primaryKey" json:"id"`
	Kind        OutcomeKind  `json:"kind"`
	Reason      string       `json:"reason"`
	Contract    string       `json:"contract"`
	SecretHash  string       `json:"secret_hash"`
	SecretIndex uint64       `json:"secret_index"`
	BlockHeight uint64       `json:"block_height"`
	FromBlock   uint64       `json:"from_block"`
	ToBlock     uint64       `json:"to_block"`
	TxHash      string       `json:"tx_hash"`
	Error       string       `json:"error"`
	Details     pgtype.JSONB `json:"details"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (Outcome) TableName() string {
	return TableDealerOutcomes
}
