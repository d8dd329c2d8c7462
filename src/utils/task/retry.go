package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Implement operation retrying
type Retry struct {
	ctx              context.Context
	maxElapsedTime   time.Duration
	maxInterval      time.Duration
	constantInterval time.Duration
	maxTries         uint64
	onError          func(error) error
}

func NewRetry() *Retry {
	return new(Retry)
}

// Max time spent retrying, 0 means no limit. Used by the exponential policy.
func (self *Retry) WithMaxElapsedTime(maxElapsedTime time.Duration) *Retry {
	self.maxElapsedTime = maxElapsedTime
	return self
}

func (self *Retry) WithMaxInterval(maxInterval time.Duration) *Retry {
	self.maxInterval = maxInterval
	return self
}

// Switches to a fixed delay between attempts
func (self *Retry) WithConstantInterval(interval time.Duration) *Retry {
	self.constantInterval = interval
	return self
}

// Max number of attempts (not retries), 0 means no limit
func (self *Retry) WithMaxTries(maxTries uint64) *Retry {
	self.maxTries = maxTries
	return self
}

func (self *Retry) WithContext(ctx context.Context) *Retry {
	self.ctx = ctx
	return self
}

// Called after each failed attempt. Returning backoff.Permanent stops retrying.
func (self *Retry) WithOnError(v func(error) error) *Retry {
	self.onError = v
	return self
}

func (self *Retry) backOff() (b backoff.BackOff) {
	if self.constantInterval > 0 {
		b = backoff.NewConstantBackOff(self.constantInterval)
	} else {
		exp := backoff.NewExponentialBackOff()
		exp.MaxElapsedTime = self.maxElapsedTime
		if self.maxInterval > 0 {
			exp.MaxInterval = self.maxInterval
		}
		b = exp
	}

	if self.maxTries > 0 {
		b = backoff.WithMaxRetries(b, self.maxTries-1)
	}

	ctx := self.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return backoff.WithContext(b, ctx)
}

func (self *Retry) Run(f func() error) error {
	return backoff.Retry(func() error {
		err := f()
		if err == nil || self.onError == nil {
			return err
		}
		return self.onError(err)
	}, self.backOff())
}
