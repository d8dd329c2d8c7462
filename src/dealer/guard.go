package dealer

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Secrets with a reveal in flight. Lives only in memory, a restart makes them selectable again.
type ProcessingGuard struct {
	mtx        sync.Mutex
	processing map[common.Hash]uint64
}

func NewProcessingGuard() *ProcessingGuard {
	return &ProcessingGuard{
		processing: make(map[common.Hash]uint64),
	}
}

// Marks the hash, returns false if it was already marked
func (self *ProcessingGuard) TryMark(hash common.Hash, index uint64) bool {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.processing[hash]; ok {
		return false
	}
	self.processing[hash] = index
	return true
}

func (self *ProcessingGuard) IsMarked(hash common.Hash) bool {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	_, ok := self.processing[hash]
	return ok
}

func (self *ProcessingGuard) Release(hash common.Hash) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	delete(self.processing, hash)
}

func (self *ProcessingGuard) Len() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	return len(self.processing)
}
