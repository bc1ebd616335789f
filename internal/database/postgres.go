package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brincafacil/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres talks to the Supabase database directly.
type Postgres struct {
	pool          *pgxpool.Pool
	usersTable    string
	paymentsTable string
	now           func() time.Time
}

func NewPostgres(ctx context.Context, dsn, usersTable, paymentsTable string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: database url is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{
		pool:          pool,
		usersTable:    pgx.Identifier{usersTable}.Sanitize(),
		paymentsTable: pgx.Identifier{paymentsTable}.Sanitize(),
		now:           time.Now,
	}
	if err = p.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) createTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		email TEXT PRIMARY KEY,
		access_granted BOOLEAN NOT NULL DEFAULT FALSE,
		source TEXT NOT NULL DEFAULT '',
		last_status TEXT NOT NULL DEFAULT '',
		sale_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, p.usersTable))
	if err != nil {
		return fmt.Errorf("postgres create users: %w", err)
	}
	_, err = p.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		sale_id TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		raw_payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, p.paymentsTable))
	if err != nil {
		return fmt.Errorf("postgres create payments: %w", err)
	}
	return nil
}

const accessColumns = "email, access_granted, source, last_status, sale_id, created_at, updated_at"

func scanAccess(row pgx.Row) (*entity.UserAccessRecord, error) {
	var rec entity.UserAccessRecord
	var source string
	if err := row.Scan(&rec.Email, &rec.AccessGranted, &source, &rec.LastStatus, &rec.SaleId, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Source = entity.Source(source)
	return &rec, nil
}

// UpsertAccess is one INSERT ... ON CONFLICT statement; source and created_at keep their first values.
func (p *Postgres) UpsertAccess(ctx context.Context, rec *entity.UserAccessRecord) (*entity.UserAccessRecord, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE SET
			access_granted = EXCLUDED.access_granted,
			last_status = EXCLUDED.last_status,
			sale_id = CASE WHEN EXCLUDED.sale_id = '' THEN %s.sale_id ELSE EXCLUDED.sale_id END,
			updated_at = EXCLUDED.updated_at
		RETURNING %s`, p.usersTable, accessColumns, p.usersTable, accessColumns)
	stored, err := scanAccess(p.pool.QueryRow(ctx, query,
		rec.Email, rec.AccessGranted, string(rec.Source), rec.LastStatus, rec.SaleId, p.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("postgres upsert access: %w", err)
	}
	return stored, nil
}

func (p *Postgres) GetAccess(ctx context.Context, email string) (*entity.UserAccessRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, accessColumns, p.usersTable)
	rec, err := scanAccess(p.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres select access: %w", err)
	}
	return rec, nil
}

func (p *Postgres) AppendPaymentLog(ctx context.Context, rec *entity.PaymentLogRecord) error {
	var raw []byte
	if rec.RawPayload != nil {
		var err error
		if raw, err = json.Marshal(rec.RawPayload); err != nil {
			return fmt.Errorf("marshal raw payload: %w", err)
		}
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, sale_id, email, status, source, raw_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, p.paymentsTable)
	_, err := p.pool.Exec(ctx, query, rec.Id, rec.SaleId, rec.Email, rec.Status, string(rec.Source), raw, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("postgres insert payment: %w", err)
	}
	return nil
}

func (p *Postgres) PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id::text, sale_id, email, status, source, raw_payload, created_at
		FROM %s WHERE email = $1 ORDER BY created_at DESC LIMIT $2`, p.paymentsTable)
	rows, err := p.pool.Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres select payments: %w", err)
	}
	defer rows.Close()

	var logs []*entity.PaymentLogRecord
	for rows.Next() {
		var rec entity.PaymentLogRecord
		var source string
		var raw []byte
		if err = rows.Scan(&rec.Id, &rec.SaleId, &rec.Email, &rec.Status, &source, &raw, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Source = entity.Source(source)
		if len(raw) > 0 {
			if err = json.Unmarshal(raw, &rec.RawPayload); err != nil {
				return nil, fmt.Errorf("unmarshal raw payload: %w", err)
			}
		}
		logs = append(logs, &rec)
	}
	return logs, rows.Err()
}
