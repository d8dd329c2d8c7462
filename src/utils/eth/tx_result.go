package eth

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// Transaction never made it to the chain (or its fate is unknown). Safe to retry later.
	ErrTxSending = errors.New("tx sending failed")

	// Transaction was mined and reverted. Permanent for this attempt.
	ErrTxProcessing = errors.New("tx processing failed")

	// Transaction was broadcast but its receipt wasn't obtained. It may still get mined.
	ErrTxUnconfirmed = errors.New("tx unconfirmed")
)

// Builds and sends a transaction with the given options
type TxBuilder func(opts *bind.TransactOpts) (*types.Transaction, error)

type TxStatus int

const (
	TxSuccess TxStatus = iota
	TxProcessingFailure
	TxSendingFailure
	TxUnconfirmed
)

func (self TxStatus) String() string {
	switch self {
	case TxSuccess:
		return "success"
	case TxProcessingFailure:
		return "processing_failure"
	case TxSendingFailure:
		return "sending_failure"
	case TxUnconfirmed:
		return "unconfirmed"
	}
	return ""
}

// Outcome of a transaction passed through the WriteQueue.
// Receipt is set for TxSuccess and TxProcessingFailure, Cause for TxSendingFailure and TxUnconfirmed.
// Hash is set whenever the transaction was broadcast.
type TxResult struct {
	Status  TxStatus
	Receipt *types.Receipt
	Hash    common.Hash
	Cause   error
}

func NewTxSuccess(receipt *types.Receipt) *TxResult {
	return &TxResult{Status: TxSuccess, Receipt: receipt, Hash: receipt.TxHash}
}

func NewTxProcessingFailure(receipt *types.Receipt) *TxResult {
	return &TxResult{Status: TxProcessingFailure, Receipt: receipt, Hash: receipt.TxHash}
}

func NewTxUnconfirmed(hash common.Hash, cause error) *TxResult {
	return &TxResult{Status: TxUnconfirmed, Hash: hash, Cause: cause}
}

func NewTxSendingFailure(cause error) *TxResult {
	return &TxResult{Status: TxSendingFailure, Cause: cause}
}

func (self *TxResult) IsSuccess() bool {
	return self.Status == TxSuccess
}

// Nil on success, otherwise wraps ErrTxSending, ErrTxProcessing or ErrTxUnconfirmed
func (self *TxResult) Err() error {
	switch self.Status {
	case TxSuccess:
		return nil
	case TxProcessingFailure:
		return fmt.Errorf("%w: tx %s reverted", ErrTxProcessing, self.Hash.Hex())
	case TxUnconfirmed:
		return fmt.Errorf("%w: tx %s: %w", ErrTxUnconfirmed, self.Hash.Hex(), self.Cause)
	default:
		return fmt.Errorf("%w: %w", ErrTxSending, self.Cause)
	}
}

// Empty if the transaction was never broadcast
func (self *TxResult) TxHash() string {
	if (self.Hash == common.Hash{}) {
		return ""
	}
	return self.Hash.Hex()
}
