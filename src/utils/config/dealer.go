package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Dealer struct {
	// How often the pool of committed hashes is checked and topped up
	CommitInterval time.Duration

	// How often a waiting secret is picked for revealing
	RevealInterval time.Duration

	// How often contract events are scanned
	ScanInterval time.Duration

	// Max number of blocks fetched in one scan
	MaxBlocksPerScan uint64

	// Number of attempts to process a batch of fetched events (and to persist the scan cursor)
	ProcessTryTimes uint64

	// Delay between consecutive processing attempts
	SleepTimeUntilNextTry time.Duration

	// Block the randomizer was deployed in. Scanning starts right after it.
	SystemDeployedBlock uint64

	// Minimal number of committed, not yet used hashes kept on chain
	HashesCommitAhead uint64

	// Minimal number of hashes sent in one commit transaction
	MinimalHashesPerCommit uint64

	// Number of blocks that need to pass after assignment before the secret gets revealed
	ConfirmationDepth uint64

	// Timeout for a single key-value store operation
	StorageTimeout time.Duration

	// Are terminal outcomes of secrets saved to the database
	JournalEnabled bool

	// Health check fails when reveals keep failing for longer than this, 0 disables the check
	MaxRevealDelay time.Duration
}

func setDealerDefaults() {
	viper.SetDefault("Dealer.CommitInterval", "2s")
	viper.SetDefault("Dealer.RevealInterval", "500ms")
	viper.SetDefault("Dealer.ScanInterval", "1s")
	viper.SetDefault("Dealer.MaxBlocksPerScan", "100")
	viper.SetDefault("Dealer.ProcessTryTimes", "3")
	viper.SetDefault("Dealer.SleepTimeUntilNextTry", "1s")
	viper.SetDefault("Dealer.SystemDeployedBlock", "21607532")
	viper.SetDefault("Dealer.HashesCommitAhead", "4")
	viper.SetDefault("Dealer.MinimalHashesPerCommit", "3")
	viper.SetDefault("Dealer.ConfirmationDepth", "2")
	viper.SetDefault("Dealer.StorageTimeout", "5s")
	viper.SetDefault("Dealer.JournalEnabled", "false")
	viper.SetDefault("Dealer.MaxRevealDelay", "10m")
}

// Zero would disable the bound on retries or stop scanning altogether
func (self *Dealer) validate() error {
	if self.ProcessTryTimes == 0 {
		return fmt.Errorf("%w: Dealer.ProcessTryTimes must be at least 1", ErrInvalidConfig)
	}
	if self.MaxBlocksPerScan == 0 {
		return fmt.Errorf("%w: Dealer.MaxBlocksPerScan must be at least 1", ErrInvalidConfig)
	}
	return nil
}
