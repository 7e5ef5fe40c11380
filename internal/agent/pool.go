package agent

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hadesai/hades/internal/models"
)

var (
	// ErrQueueFull is returned by Submit when the session's worker queue is full
	ErrQueueFull = errors.New("agent: queue full")
	// ErrPoolClosed is returned by Submit after Shutdown
	ErrPoolClosed = errors.New("agent: pool closed")
)

// TurnRequest is one input for one session
type TurnRequest struct {
	SessionID string
	Input     string
	Context   context.Context
	Callback  func(TurnResult) // called when completed
}

// TurnResult is the outcome of a TurnRequest
type TurnResult struct {
	SessionID string
	Input     string
	Response  *models.Response
	Latency   time.Duration
	Err       error
}

// Pool runs turns for many sessions concurrently. Requests for the same
// session always go to the same worker, so they complete in submission order.
type Pool struct {
	sessions *Sessions
	queues   []chan *TurnRequest
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	metrics  *PoolMetrics

	mu     sync.RWMutex
	closed bool
}

// PoolMetrics tracks pool performance
type PoolMetrics struct {
	TotalRequests   int64
	CompletedOK     int64
	CompletedError  int64
	AverageLatency  time.Duration
	TotalLatency    time.Duration
	CurrentInflight int
	mu              sync.RWMutex
}

// PoolConfig holds pool configuration
type PoolConfig struct {
	Workers   int // Number of worker goroutines
	QueueSize int // Total queued requests across workers
}

// DefaultPoolConfig returns default pool configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers:   runtime.NumCPU() * 2,
		QueueSize: 1000,
	}
}

// NewPool creates a pool over sessions and starts its workers
func NewPool(sessions *Sessions, config *PoolConfig) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	perWorker := config.QueueSize / workers
	if perWorker < 1 {
		perWorker = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &Pool{
		sessions: sessions,
		queues:   make([]chan *TurnRequest, workers),
		ctx:      ctx,
		cancel:   cancel,
		metrics:  &PoolMetrics{},
	}

	for i := range pool.queues {
		pool.queues[i] = make(chan *TurnRequest, perWorker)
		pool.wg.Add(1)
		go pool.worker(pool.queues[i])
	}
	return pool
}

func (p *Pool) worker(queue <-chan *TurnRequest) {
	defer p.wg.Done()
	for req := range queue {
		p.process(req)
	}
}

func (p *Pool) process(req *TurnRequest) {
	result := TurnResult{SessionID: req.SessionID, Input: req.Input}

	if err := req.Context.Err(); err != nil {
		result.Err = err
		p.finish(req, result)
		return
	}

	p.metrics.mu.Lock()
	p.metrics.CurrentInflight++
	p.metrics.mu.Unlock()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.CurrentInflight--
		p.metrics.mu.Unlock()
	}()

	start := time.Now()
	a, err := p.sessions.Open(req.Context, req.SessionID)
	if err != nil {
		result.Err = err
	} else {
		result.Response = a.ProcessInput(req.Context, req.Input)
	}
	result.Latency = time.Since(start)

	p.updateMetrics(result.Latency, result.Err == nil)
	p.finish(req, result)
}

func (p *Pool) finish(req *TurnRequest, result TurnResult) {
	if req.Callback != nil {
		req.Callback(result)
	}
}

func (p *Pool) updateMetrics(latency time.Duration, success bool) {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	p.metrics.TotalRequests++
	if success {
		p.metrics.CompletedOK++
	} else {
		p.metrics.CompletedError++
	}

	p.metrics.TotalLatency += latency
	if p.metrics.CompletedOK > 0 {
		p.metrics.AverageLatency = p.metrics.TotalLatency / time.Duration(p.metrics.CompletedOK)
	}
}

func (p *Pool) queueFor(sessionID string) chan *TurnRequest {
	return p.queues[xxhash.Sum64String(sessionID)%uint64(len(p.queues))]
}

// Submit queues a request without blocking
func (p *Pool) Submit(req *TurnRequest) error {
	if req.Context == nil {
		req.Context = p.ctx
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queueFor(req.SessionID) <- req:
		return nil
	case <-req.Context.Done():
		return req.Context.Err()
	default:
		return ErrQueueFull
	}
}

// SubmitSync runs one turn through the pool and waits for its response
func (p *Pool) SubmitSync(ctx context.Context, sessionID, input string) (*models.Response, error) {
	resultChan := make(chan TurnResult, 1)

	req := &TurnRequest{
		SessionID: sessionID,
		Input:     input,
		Context:   ctx,
		Callback: func(result TurnResult) {
			resultChan <- result
		},
	}
	if err := p.Submit(req); err != nil {
		return nil, err
	}

	select {
	case result := <-resultChan:
		return result.Response, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Metrics returns a copy of the current pool metrics
func (p *Pool) Metrics() PoolMetrics {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	return PoolMetrics{
		TotalRequests:   p.metrics.TotalRequests,
		CompletedOK:     p.metrics.CompletedOK,
		CompletedError:  p.metrics.CompletedError,
		AverageLatency:  p.metrics.AverageLatency,
		TotalLatency:    p.metrics.TotalLatency,
		CurrentInflight: p.metrics.CurrentInflight,
	}
}

// QueueLength returns the number of queued requests
func (p *Pool) QueueLength() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

// Shutdown stops accepting requests and waits for queued ones to finish
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-time.After(timeout):
		p.cancel()
		return errors.New("agent: shutdown timeout exceeded")
	}
}
