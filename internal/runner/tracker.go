package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"stoploss_tracker/internal/models"
	"stoploss_tracker/pkg/tracing"

	"go.uber.org/zap"
)

// Notifier: куда уходят сообщения о закрытиях и переносах стопа.
type Notifier interface {
	Sendf(ctx context.Context, format string, args ...any)
}

// Observer получает итог каждого цикла (health, readiness).
type Observer interface {
	ObserveCycle(at time.Time, tracked int, err error)
}

type Tracker struct {
	gw       Gateway
	store    RatchetStore
	engine   Engine
	notifier Notifier
	observer Observer
	metrics  *Metrics
	log      *zap.Logger

	ordersLimit int
	now         func() time.Time

	// циклы не пересекаются
	mu sync.Mutex
}

type Options struct {
	Formula     RatchetFormula
	OrdersLimit int
	Notifier    Notifier
	Observer    Observer
	Metrics     *Metrics
	Now         func() time.Time
}

func NewTracker(gw Gateway, store RatchetStore, log *zap.Logger, opts Options) *Tracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		gw:          gw,
		store:       store,
		engine:      NewEngine(opts.Formula),
		notifier:    opts.Notifier,
		observer:    opts.Observer,
		metrics:     opts.Metrics,
		log:         log,
		ordersLimit: opts.OrdersLimit,
		now:         opts.Now,
	}
}

// RunCycle: один проход по всем открытым позициям и flush состояния.
func (t *Tracker) RunCycle(ctx context.Context) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, finish := tracing.StartSpan(ctx, "tracker.RunCycle")
	defer func() { finish(err) }()

	positions, err := t.gw.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("RunCycle: positions: %w", err)
	}
	// без книги ордеров можно наставить дублирующих стопов
	orders, err := t.gw.OpenOrders(ctx, t.ordersLimit)
	if err != nil {
		return fmt.Errorf("RunCycle: orders: %w", err)
	}

	correlated := slices.Collect(Correlate(positions, ActiveOrders(orders)))
	t.log.Debug("cycle snapshot",
		zap.Int("positions", len(positions)),
		zap.Int("orders", len(correlated)),
	)

	// после отмены новые позиции не трогаем, но уже сделанное на бирже сохраняем
	var cancelErr error
	for _, p := range positions {
		if cancelErr = ctx.Err(); cancelErr != nil {
			t.log.Warn("cycle cancelled, flushing processed positions", zap.Error(cancelErr))
			break
		}
		t.handle(ctx, p, correlated)
	}

	if err := t.store.Flush(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("RunCycle: flush: %w", err)
	}
	t.metrics.setTracked(t.store.Len())
	return ctx.Err()
}

func (t *Tracker) handle(ctx context.Context, p models.Position, orders []models.Order) {
	stop, takeProfit := matchOrders(p.ID, orders)

	var prior *models.RatchetEntry
	if e, ok := t.store.Get(p.ID); ok {
		prior = &e
	}

	a, err := t.engine.Decide(p, stop, takeProfit, prior)
	if err != nil {
		t.log.Error("decide", zap.String("positionId", p.ID), zap.String("symbol", p.Symbol), zap.Error(err))
		return
	}

	switch a.Kind {
	case ClosePosition:
		t.closePosition(ctx, p, a)
	case SetStopLoss:
		t.setStopLoss(ctx, p, a)
	default:
		t.log.Debug("no action",
			zap.String("positionId", p.ID),
			zap.String("symbol", p.Symbol),
			zap.String("reason", a.Reason),
		)
	}
}

// RunOnce ловит ошибку и панику цикла. Ошибка возвращается только при reRaise.
func (t *Tracker) RunOnce(ctx context.Context, reRaise bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("RunOnce: panic: %v", r)
			t.log.Error("cycle panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
		t.metrics.cycle(err)
		if t.observer != nil {
			t.observer.ObserveCycle(t.now(), t.store.Len(), err)
		}
		if !reRaise {
			err = nil
		}
	}()

	start := t.now()
	err = t.RunCycle(ctx)
	if err != nil {
		t.log.Error("cycle failed", zap.Error(err))
		return err
	}
	t.log.Info("cycle done",
		zap.Duration("took", t.now().Sub(start)),
		zap.Int("tracked", t.store.Len()),
	)
	return nil
}

// Loop крутит циклы до отмены ctx; следующий стартует только после flush предыдущего.
func (t *Tracker) Loop(ctx context.Context, interval time.Duration) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.Info("tracker loop stopped")
			return
		case <-timer.C:
			_ = t.RunOnce(ctx, false)
			timer.Reset(interval)
		}
	}
}

func (t *Tracker) notify(ctx context.Context, format string, args ...any) {
	if t.notifier == nil {
		return
	}
	t.notifier.Sendf(ctx, format, args...)
}
