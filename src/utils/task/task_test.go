package task

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warp-contracts/dealer/src/utils/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestTaskTestSuite(t *testing.T) {
	suite.Run(t, new(TaskTestSuite))
}

type TaskTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *TaskTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.StopTimeout = 5 * time.Second
}

func (s *TaskTestSuite) TestPeriodicRunsNeverOverlap() {
	var (
		running    atomic.Int32
		maxRunning atomic.Int32
		runs       atomic.Int32
	)

	task := NewTask(s.config, "periodic").
		WithPeriodicSubtaskFunc(time.Millisecond, func() error {
			n := running.Inc()
			defer running.Dec()
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			runs.Inc()
			return nil
		})

	require.NoError(s.T(), task.Start())
	require.Eventually(s.T(), func() bool { return runs.Load() >= 5 }, 5*time.Second, time.Millisecond)
	task.StopWait()

	require.Equal(s.T(), int32(1), maxRunning.Load())

	select {
	case <-task.CtxRunning.Done():
	default:
		s.Fail("task still running")
	}
}

func (s *TaskTestSuite) TestWorkerPoolRunsJobsInOrder() {
	task := NewTask(s.config, "pool").
		WithWorkerPool(1, 10)
	require.NoError(s.T(), task.Start())

	var (
		mtx   sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		require.True(s.T(), task.SubmitToWorker(func() {
			defer wg.Done()
			mtx.Lock()
			order = append(order, i)
			mtx.Unlock()
		}))
	}
	wg.Wait()

	require.Equal(s.T(), []int{0, 1, 2, 3, 4}, order)

	// Pool lives until stop
	select {
	case <-task.CtxRunning.Done():
		s.Fail("task finished too early")
	default:
	}

	task.StopWait()
	require.False(s.T(), task.SubmitToWorker(func() {}))
}

func (s *TaskTestSuite) TestStartFailsOnHook() {
	hookErr := errors.New("not ready")
	task := NewTask(s.config, "hook").
		WithOnBeforeStart(func() error { return hookErr })

	require.ErrorIs(s.T(), task.Start(), hookErr)
}

func (s *TaskTestSuite) TestRetryMaxTries() {
	attempts := 0
	err := NewRetry().
		WithConstantInterval(time.Millisecond).
		WithMaxTries(3).
		Run(func() error {
			attempts++
			return errors.New("fail")
		})

	require.Error(s.T(), err)
	require.Equal(s.T(), 3, attempts)
}

func (s *TaskTestSuite) TestRetryStopsOnSuccess() {
	attempts := 0
	err := NewRetry().
		WithConstantInterval(time.Millisecond).
		WithMaxTries(5).
		Run(func() error {
			attempts++
			if attempts == 2 {
				return nil
			}
			return errors.New("fail")
		})

	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, attempts)
}

func (s *TaskTestSuite) TestRetryPermanent() {
	attempts := 0
	err := NewRetry().
		WithConstantInterval(time.Millisecond).
		WithMaxTries(5).
		WithOnError(func(err error) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return errors.New("fail")
		})

	require.Error(s.T(), err)
	require.Equal(s.T(), 1, attempts)
}
