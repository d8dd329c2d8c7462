package monitor_dealer

import (
	"math"
	"net/http"
	"time"

	"github.com/warp-contracts/dealer/src/utils/monitoring/report"
	"github.com/warp-contracts/dealer/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	// Max time reveals may keep failing, 0 disables the check
	maxRevealDelay time.Duration

	collector *Collector

	// Samples taken every minute
	SecretsRevealed  *deque.Deque[uint64]
	SecretsCommitted *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:    &report.RunReport{},
		Dealer: &report.DealerReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorReveals).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorCommits)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.SecretsRevealed = deque.New[uint64](self.historySize)
	self.SecretsCommitted = deque.New[uint64](self.historySize)

	return self
}

func (self *Monitor) WithMaxRevealDelay(v time.Duration) *Monitor {
	self.maxRevealDelay = v
	return self
}

func (self *Monitor) Clear() {
	self.SecretsRevealed.Clear()
	self.SecretsCommitted.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Average increase of a counter per sample
func push(history *deque.Deque[uint64], historySize int, value uint64) float64 {
	history.PushBack(value)
	if history.Len() > historySize {
		history.PopFront()
	}
	return round(float64(history.Back()-history.Front()) / float64(history.Len()))
}

func (self *Monitor) monitorReveals() (err error) {
	value := push(self.SecretsRevealed, self.historySize, self.Report.Dealer.State.SecretsRevealed.Load())
	self.Report.Dealer.State.AverageRevealsPerMinute.Store(value)
	return
}

func (self *Monitor) monitorCommits() (err error) {
	value := push(self.SecretsCommitted, self.historySize, self.Report.Dealer.State.SecretsCommitted.Load())
	self.Report.Dealer.State.AverageCommitsPerMinute.Store(value)
	return
}

// Unhealthy when reveal transactions keep failing to send for longer than maxRevealDelay
func (self *Monitor) IsOK() bool {
	if self.maxRevealDelay <= 0 {
		return true
	}

	lastFailure := self.Report.Dealer.State.LastRevealFailureTimestamp.Load()
	if lastFailure == 0 {
		return true
	}

	lastSuccess := self.Report.Dealer.State.LastRevealTimestamp.Load()
	if lastSuccess == 0 {
		lastSuccess = self.Report.Run.State.StartTimestamp.Load()
	}

	return time.Duration(lastFailure-lastSuccess)*time.Second < self.maxRevealDelay
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	} else {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "UNHEALTHY"})
	}
}
