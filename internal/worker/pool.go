package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPoolStopped = errors.New("worker pool stopped")
	ErrMismatch    = errors.New("password mismatch")
)

type job struct {
	run  func() error
	done chan error
}

// Pool runs bcrypt work on a fixed number of goroutines. Callers block only on
// their own job and may give up through ctx; the pool width bounds CPU spent hashing.
type Pool struct {
	logger *zap.Logger
	count  int
	cost   int
	jobs   chan job
	wg     sync.WaitGroup
	stop   chan struct{}
	once   sync.Once
}

func NewPool(logger *zap.Logger, count, cost int) *Pool {
	if count < 1 {
		count = 1
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Pool{
		logger: logger,
		count:  count,
		cost:   cost,
		jobs:   make(chan job),
		stop:   make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting hashing pool", zap.Int("workers", p.count), zap.Int("cost", p.cost))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.once.Do(func() {
		p.logger.Info("Stopping hashing pool...")
		close(p.stop)
		p.wg.Wait()
		p.logger.Info("Hashing pool stopped")
	})
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			err := j.run()
			if err != nil && !errors.Is(err, ErrMismatch) {
				p.logger.Error("hashing job failed", zap.Int("worker", id), zap.Error(err))
			}
			j.done <- err
		}
	}
}

// Hash returns the bcrypt hash of password.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	var hash []byte
	err := p.submit(ctx, func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), p.cost)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare returns ErrMismatch when password does not match hash.
func (p *Pool) Compare(ctx context.Context, hash, password string) error {
	return p.submit(ctx, func() error {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	})
}

func (p *Pool) submit(ctx context.Context, run func() error) error {
	// done is buffered so a worker never blocks on a caller that already left.
	j := job{run: run, done: make(chan error, 1)}

	select {
	case p.jobs <- j:
	case <-p.stop:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
