// Package ledger persists economic events (cash-outs, ad payouts, pot
// exhaustion) without blocking the simulation.
package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/rigworld/server/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// Entry is one economic event to be written.
type Entry struct {
	TraceID      string
	Kind         string
	Amount       float64
	GlobalPot    float64
	OwnerBalance float64
	Details      any
}

// Service writes entries asynchronously in batches.
type Service struct {
	db       *gorm.DB
	ch       chan *model.LedgerEntry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New starts the background writer.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		db:     db,
		ch:     make(chan *model.LedgerEntry, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Record enqueues e. When the queue is full the entry is dropped and logged.
func (svc *Service) Record(e Entry) {
	var details datatypes.JSON
	if e.Details != nil {
		if b, err := json.Marshal(e.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}
	row := &model.LedgerEntry{
		TraceID:      e.TraceID,
		Kind:         e.Kind,
		Amount:       e.Amount,
		GlobalPot:    e.GlobalPot,
		OwnerBalance: e.OwnerBalance,
		Details:      details,
	}
	select {
	case <-svc.stopCh:
		svc.logger.Warn("ledger stopped, dropping entry", zap.String("kind", e.Kind))
		return
	default:
	}
	select {
	case svc.ch <- row:
	default:
		svc.logger.Warn("ledger queue full, dropping entry", zap.String("kind", e.Kind))
	}
}

// Recent returns up to limit entries, newest first. An empty kind matches
// every kind.
func (svc *Service) Recent(ctx context.Context, kind string, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := svc.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []model.LedgerEntry
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Stop flushes what is queued and waits for the writer to exit.
func (svc *Service) Stop(_ context.Context) {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.LedgerEntry, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("ledger batch write failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case row := <-svc.ch:
			batch = append(batch, row)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case row := <-svc.ch:
					batch = append(batch, row)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
