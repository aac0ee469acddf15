package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
)

// ResultOK is the result reported to observers for delivered calls. Failed
// calls report their error kind (timeout, dns, http_4xx, ...).
const ResultOK = "ok"

// Observer receives one record per finished call.
type Observer interface {
	ObserveSend(endpoint, result string, attempts int, took time.Duration)
}

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize  int
	Workers    int
	MaxRetries int
	// RetryBackoff grows linearly with the attempt number. Flood errors wait
	// for the interval Telegram asks for instead.
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	Observer    Observer
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

func (j job) attrs(ctx context.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	if rid := logger.RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	if chatID := logger.ChatIDFrom(ctx); chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	return attrs
}

// Dispatcher executes outbound Telegram calls with retries, either queued on
// its workers (Enqueue) or inline on the caller goroutine (Do).
type Dispatcher struct {
	opts Options
	jobs chan job
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		stop: make(chan struct{}),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.worker()
	}
	return d
}

// Enqueue schedules run on a worker. run must be idempotent if retries are
// enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}

	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do runs the call on the caller goroutine with the same retry policy as queued jobs.
// Callers that need delivery order within a chat use Do instead of Enqueue.
func (d *Dispatcher) Do(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	return d.execute(job{ctx: ctx, action: action, endpoint: endpoint, run: run})
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops workers and waits for them to finish processing queued jobs.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
		close(d.jobs)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		_ = d.execute(j)
	}
}

func (d *Dispatcher) execute(j job) error {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	logger.Debug(ctx, logger.CompSender, "send.start", j.attrs(ctx)...)

	attempts, err := d.attempt(deadlineCtx, j)
	took := time.Since(start)

	result := ResultOK
	if err != nil {
		result = classifyError(err)
	}
	if d.opts.Observer != nil {
		d.opts.Observer.ObserveSend(j.endpoint, result, attempts, took)
	}

	if err != nil {
		d.errs.Add(1)
		logger.Error(ctx, logger.CompSender, "send.fail", append(j.attrs(ctx),
			slog.String("error", sanitizeErrorMessage(err)),
			slog.String("error_kind", result),
			slog.Int("attempts", attempts),
			slog.Int("elapsed_ms", durationToMS(took)),
		)...)
		return err
	}

	event := "send.success"
	level := logger.Debug
	if attempts > 1 {
		event, level = "send.retry.success", logger.Info
	}
	level(ctx, logger.CompSender, event, append(j.attrs(ctx),
		slog.Int("attempts", attempts),
		slog.Int("elapsed_ms", durationToMS(took)),
	)...)
	return nil
}

// attempt runs j until it succeeds, fails for good or ctx ends. It reports
// how many times run was called.
func (d *Dispatcher) attempt(ctx context.Context, j job) (int, error) {
	limit := d.opts.MaxRetries + 1
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		n++
		err := j.run()
		if err == nil {
			return n, nil
		}
		delay, retry := d.backoff(err, n)
		if !retry || n >= limit {
			return n, err
		}
		logger.Debug(ctx, logger.CompSender, "send.retry.backoff", append(j.attrs(ctx),
			slog.Int("attempt", n),
			slog.Duration("delay", delay),
		)...)
		if err := netutil.Sleep(ctx, delay); err != nil {
			return n, err
		}
	}
}

// backoff decides whether err is transient and how long to wait before the
// next attempt.
func (d *Dispatcher) backoff(err error, attempt int) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	if netutil.ShouldRetry(err) {
		return d.opts.RetryBackoff * time.Duration(attempt), true
	}
	return 0, false
}
