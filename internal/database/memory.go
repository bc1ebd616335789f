package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"brincafacil/entity"
)

// Memory keeps records in process; used for local runs and tests.
type Memory struct {
	mu       sync.Mutex
	access   map[string]entity.UserAccessRecord
	payments []entity.PaymentLogRecord
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		access: make(map[string]entity.UserAccessRecord),
		now:    time.Now,
	}
}

func (m *Memory) UpsertAccess(_ context.Context, rec *entity.UserAccessRecord) (*entity.UserAccessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	stored, ok := m.access[rec.Email]
	if !ok {
		stored = entity.UserAccessRecord{
			Email:     rec.Email,
			Source:    rec.Source,
			CreatedAt: now,
		}
	}
	stored.AccessGranted = rec.AccessGranted
	stored.LastStatus = rec.LastStatus
	if rec.SaleId != "" {
		stored.SaleId = rec.SaleId
	}
	stored.UpdatedAt = now
	m.access[rec.Email] = stored

	result := stored
	return &result, nil
}

func (m *Memory) GetAccess(_ context.Context, email string) (*entity.UserAccessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.access[email]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) AppendPaymentLog(_ context.Context, rec *entity.PaymentLogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, *rec)
	return nil
}

func (m *Memory) PaymentLogs(_ context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var logs []*entity.PaymentLogRecord
	for i := range m.payments {
		if m.payments[i].Email == email {
			rec := m.payments[i]
			logs = append(logs, &rec)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

// Count returns the number of access records; tests use it to check idempotency.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.access)
}

func (m *Memory) Close() {}
