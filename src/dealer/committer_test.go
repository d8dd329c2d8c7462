package dealer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/eth"
	monitor_dealer "github.com/warp-contracts/dealer/src/utils/monitoring/dealer"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestCommitterTestSuite(t *testing.T) {
	suite.Run(t, new(CommitterTestSuite))
}

type CommitterTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	config    *config.Config
	redis     *miniredis.Miniredis
	client    *redis.Client
	store     *SecretStore
	chain     *fakeChain
	monitor   *monitor_dealer.Monitor
	committer *Committer
}

func (s *CommitterTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
	s.config.Dealer.HashesCommitAhead = 4
	s.config.Dealer.MinimalHashesPerCommit = 3

	s.redis = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.store = NewSecretStore(s.config).WithClient(s.client).WithAddress(testRandomizer)
	s.chain = newFakeChain()
	s.monitor = monitor_dealer.NewMonitor()

	s.committer = NewCommitter(s.config).
		WithChain(s.chain).
		WithStore(s.store).
		WithMonitor(s.monitor)
}

func (s *CommitterTestSuite) TearDownTest() {
	s.client.Close()
	s.cancel()
}

func (s *CommitterTestSuite) TestCommitsMinimalBatch() {
	s.chain.state.TotalUsableHashes = 1

	// Secrets have to be in the store before the transaction is sent
	var storedBeforeCommit []bool
	s.chain.onCommit = func(hashes []common.Hash) {
		for _, hash := range hashes {
			exists, err := s.store.ExistsSecret(s.ctx, hash)
			s.NoError(err)
			storedBeforeCommit = append(storedBeforeCommit, exists)
		}
	}

	committed, err := s.committer.Commit(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), uint64(3), committed)

	require.Len(s.T(), s.chain.commits, 1)
	require.Len(s.T(), s.chain.commits[0], 3)
	require.Equal(s.T(), []bool{true, true, true}, storedBeforeCommit)

	for _, hash := range s.chain.commits[0] {
		value, err := s.store.GetSecret(s.ctx, hash)
		require.NoError(s.T(), err)
		require.Equal(s.T(), hash, HashSecret(value))
	}

	require.Equal(s.T(), uint64(3), s.monitor.Report.Dealer.State.SecretsCommitted.Load())
}

func (s *CommitterTestSuite) TestCommitsMissingHashes() {
	s.chain.state.TotalUsableHashes = 0

	committed, err := s.committer.Commit(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), uint64(4), committed)
	require.Len(s.T(), s.chain.commits[0], 4)
}

func (s *CommitterTestSuite) TestEnoughHashes() {
	for _, usable := range []uint64{4, 5, 100} {
		s.chain.state.TotalUsableHashes = usable

		committed, err := s.committer.Commit(s.ctx)
		require.NoError(s.T(), err)
		require.Zero(s.T(), committed)
	}
	require.Empty(s.T(), s.chain.commits)
}

func (s *CommitterTestSuite) TestNeeded() {
	for usable, expected := range map[uint64]uint64{0: 4, 1: 3, 2: 3, 3: 3, 4: 0, 10: 0} {
		require.Equal(s.T(), expected, s.committer.needed(usable), "usable=%d", usable)
	}
}

func (s *CommitterTestSuite) TestCommitTxFailureRemovesSecrets() {
	for _, result := range []*eth.TxResult{
		eth.NewTxSendingFailure(errors.New("connection reset")),
		eth.NewTxProcessingFailure(&types.Receipt{Status: types.ReceiptStatusFailed}),
	} {
		s.chain.commitResult = result

		committed, err := s.committer.Commit(s.ctx)
		require.ErrorIs(s.T(), err, ErrCommitSecretsTxFailed)
		require.Zero(s.T(), committed)

		hashes := s.chain.commits[len(s.chain.commits)-1]
		for _, hash := range hashes {
			exists, err := s.store.ExistsSecret(s.ctx, hash)
			require.NoError(s.T(), err)
			require.False(s.T(), exists)
		}
	}
	require.Equal(s.T(), uint64(2), s.monitor.Report.Dealer.Errors.CommitTxFailures.Load())
}

func (s *CommitterTestSuite) startQueue(backend *pendingBackend) *eth.WriteQueue {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)

	queue, err := eth.NewWriteQueue(s.config).
		WithBackend(backend).
		WithSigner(key, big.NewInt(1337))
	s.Require().NoError(err)
	s.Require().NoError(queue.Start())
	s.T().Cleanup(queue.StopWait)

	s.chain.commitFunc = func(ctx context.Context, hashes []common.Hash) *eth.TxResult {
		return queue.Submit(ctx, "commit", backend.send)
	}
	return queue
}

func (s *CommitterTestSuite) requireStored(hashes []common.Hash) {
	for _, hash := range hashes {
		value, err := s.store.GetSecret(s.ctx, hash)
		require.NoError(s.T(), err)
		require.Equal(s.T(), hash, HashSecret(value))
	}
}

func (s *CommitterTestSuite) TestUnconfirmedCommitKeepsSecrets() {
	s.chain.state.TotalUsableHashes = 1
	s.chain.commitResult = eth.NewTxUnconfirmed(common.Hash{9}, context.DeadlineExceeded)

	committed, err := s.committer.Commit(s.ctx)
	require.ErrorIs(s.T(), err, ErrCommitSecretsTxFailed)
	require.ErrorIs(s.T(), err, eth.ErrTxUnconfirmed)
	require.Zero(s.T(), committed)

	require.Len(s.T(), s.chain.commits, 1)
	s.requireStored(s.chain.commits[0])
	require.Equal(s.T(), uint64(1), s.monitor.Report.Dealer.Errors.CommitTxUnconfirmed.Load())
	require.Zero(s.T(), s.monitor.Report.Dealer.Errors.CommitTxFailures.Load())
}

func (s *CommitterTestSuite) TestMiningTimeoutKeepsSecrets() {
	s.config.Chain.TxMiningTimeout = 300 * time.Millisecond
	s.chain.state.TotalUsableHashes = 1

	backend := new(pendingBackend)
	s.startQueue(backend)

	committed, err := s.committer.Commit(s.ctx)
	require.ErrorIs(s.T(), err, eth.ErrTxUnconfirmed)
	require.ErrorIs(s.T(), err, context.DeadlineExceeded)
	require.Zero(s.T(), committed)

	require.Equal(s.T(), 1, backend.broadcast())
	require.Len(s.T(), s.chain.commits[0], 3)
	s.requireStored(s.chain.commits[0])
}

func (s *CommitterTestSuite) TestShutdownAfterBroadcastKeepsSecrets() {
	s.config.Chain.TxMiningTimeout = time.Minute
	s.chain.state.TotalUsableHashes = 1

	backend := new(pendingBackend)
	queue := s.startQueue(backend)

	done := make(chan error, 1)
	go func() {
		_, err := s.committer.Commit(s.ctx)
		done <- err
	}()

	require.Eventually(s.T(), func() bool { return backend.broadcast() == 1 }, 5*time.Second, 10*time.Millisecond)
	queue.StopWait()

	select {
	case err := <-done:
		require.ErrorIs(s.T(), err, eth.ErrTxUnconfirmed)
	case <-time.After(5 * time.Second):
		s.T().Fatal("commit didn't return after the queue stopped")
	}

	s.requireStored(s.chain.commits[0])
}

func (s *CommitterTestSuite) TestSaveFailureSkipsCommit() {
	s.redis.Close()

	_, err := s.committer.Commit(s.ctx)
	require.ErrorIs(s.T(), err, ErrSaveSecretsFailed)
	require.Empty(s.T(), s.chain.commits)
}

func (s *CommitterTestSuite) TestControlStateFailure() {
	s.chain.stateErr = errors.New("rpc down")

	_, err := s.committer.Commit(s.ctx)
	require.Error(s.T(), err)
	require.Empty(s.T(), s.chain.commits)
	require.Equal(s.T(), uint64(1), s.monitor.Report.Dealer.Errors.ControlStateFailures.Load())
}

func (s *CommitterTestSuite) TestNotConfigured() {
	err := NewCommitter(s.config).Start()
	require.ErrorIs(s.T(), err, ErrNotConfigured)
}
