package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"brincafacil/entity"
	"brincafacil/internal/config"

	"github.com/go-sql-driver/mysql"
)

// InnoDB may pick one of two concurrent upserts on the same key as a deadlock victim.
const (
	errDeadlock    = 1213
	upsertAttempts = 3
)

type MySql struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
	now        func() time.Time
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		prefix:     conf.MySql.Prefix,
		statements: make(map[string]*sql.Stmt),
		now:        time.Now,
	}
	if err = sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) createTables() error {
	users := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %susers (
		email VARCHAR(255) NOT NULL,
		access_granted TINYINT(1) NOT NULL DEFAULT 0,
		source VARCHAR(32) NOT NULL DEFAULT '',
		last_status VARCHAR(64) NOT NULL DEFAULT '',
		sale_id VARCHAR(128) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) DEFAULT CHARSET=utf8mb4`, s.prefix)
	if _, err := s.db.Exec(users); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	payments := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %spayments (
		id CHAR(36) NOT NULL PRIMARY KEY,
		sale_id VARCHAR(128) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(64) NOT NULL DEFAULT '',
		source VARCHAR(32) NOT NULL DEFAULT '',
		raw_payload JSON NULL,
		created_at DATETIME NOT NULL,
		KEY ix_payments_email (email, created_at)
	) DEFAULT CHARSET=utf8mb4`, s.prefix)
	if _, err := s.db.Exec(payments); err != nil {
		return fmt.Errorf("create payments table: %w", err)
	}
	return nil
}

// UpsertAccess is a single INSERT ... ON DUPLICATE KEY UPDATE against the unique email key.
func (s *MySql) UpsertAccess(ctx context.Context, rec *entity.UserAccessRecord) (*entity.UserAccessRecord, error) {
	stmt, err := s.stmtUpsertAccess()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	for i := 0; i < upsertAttempts; i++ {
		_, err = stmt.ExecContext(ctx, rec.Email, rec.AccessGranted, rec.Source, rec.LastStatus, rec.SaleId, now, now)
		if !isDeadlock(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("upsert access: %w", err)
	}
	return s.GetAccess(ctx, rec.Email)
}

func isDeadlock(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDeadlock
}

func (s *MySql) GetAccess(ctx context.Context, email string) (*entity.UserAccessRecord, error) {
	stmt, err := s.stmtSelectAccess()
	if err != nil {
		return nil, err
	}
	var rec entity.UserAccessRecord
	var source string
	err = stmt.QueryRowContext(ctx, email).Scan(
		&rec.Email,
		&rec.AccessGranted,
		&source,
		&rec.LastStatus,
		&rec.SaleId,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select access: %w", err)
	}
	rec.Source = entity.Source(source)
	return &rec, nil
}

func (s *MySql) AppendPaymentLog(ctx context.Context, rec *entity.PaymentLogRecord) error {
	stmt, err := s.stmtInsertPayment()
	if err != nil {
		return err
	}
	var raw interface{}
	if rec.RawPayload != nil {
		data, err := json.Marshal(rec.RawPayload)
		if err != nil {
			return fmt.Errorf("marshal raw payload: %w", err)
		}
		raw = string(data)
	}
	_, err = stmt.ExecContext(ctx, rec.Id, rec.SaleId, rec.Email, rec.Status, rec.Source, raw, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *MySql) PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	stmt, err := s.stmtSelectPayments()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, email, limit)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var logs []*entity.PaymentLogRecord
	for rows.Next() {
		var rec entity.PaymentLogRecord
		var source string
		var raw sql.NullString
		if err = rows.Scan(&rec.Id, &rec.SaleId, &rec.Email, &rec.Status, &source, &raw, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Source = entity.Source(source)
		if raw.Valid && raw.String != "" {
			if err = json.Unmarshal([]byte(raw.String), &rec.RawPayload); err != nil {
				return nil, fmt.Errorf("unmarshal raw payload: %w", err)
			}
		}
		logs = append(logs, &rec)
	}
	return logs, rows.Err()
}
