package dealer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/warp-contracts/dealer/src/utils/eth"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Chain operations used by the dealer. Implemented by eth.Bot.
type Chain interface {
	LatestBlock(ctx context.Context) (uint64, error)
	ControlState(ctx context.Context) (*eth.ControlState, error)
	IsHashRevealed(ctx context.Context, hash common.Hash) (bool, error)
	SecretHashAssigned(ctx context.Context, fromBlock, toBlock uint64) ([]*eth.SecretHashAssigned, error)

	// Writes go through a single queue, calls block until the outcome is known
	Commit(ctx context.Context, hashes []common.Hash) *eth.TxResult
	Reveal(ctx context.Context, hash common.Hash, secret *uint256.Int) *eth.TxResult
}

// Secret hash assigned to an index, waiting to be revealed
type WaitingSecret struct {
	Index uint64
	Hash  common.Hash
	Block uint64
}

// Sorted set member, unique per secret
func (self WaitingSecret) member() string {
	return fmt.Sprintf("%d:%s", self.Index, self.Hash.Hex())
}

func parseWaitingMember(member string, block uint64) (out WaitingSecret, err error) {
	index, hash, ok := strings.Cut(member, ":")
	if !ok {
		err = fmt.Errorf("malformed waiting secret %q", member)
		return
	}

	out.Index, err = strconv.ParseUint(index, 10, 64)
	if err != nil {
		err = fmt.Errorf("malformed waiting secret index %q: %w", member, err)
		return
	}

	if !isHexHash(hash) {
		err = fmt.Errorf("malformed waiting secret hash %q", member)
		return
	}

	out.Hash = common.HexToHash(hash)
	out.Block = block
	return
}

func isHexHash(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*common.HashLength {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
