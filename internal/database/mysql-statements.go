package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

// source and created_at keep their first values
func (s *MySql) stmtUpsertAccess() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %susers (email, access_granted, source, last_status, sale_id, created_at, updated_at)
		      VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		      access_granted = VALUES(access_granted),
		      last_status = VALUES(last_status),
		      sale_id = IF(VALUES(sale_id) = '', sale_id, VALUES(sale_id)),
		      updated_at = VALUES(updated_at)`,
		s.prefix,
	)
	return s.prepareStmt("upsertAccess", query)
}

func (s *MySql) stmtSelectAccess() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT email, access_granted, source, last_status, sale_id, created_at, updated_at
		   FROM %susers
		  WHERE email = ?`,
		s.prefix,
	)
	return s.prepareStmt("selectAccess", query)
}

func (s *MySql) stmtInsertPayment() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %spayments (id, sale_id, email, status, source, raw_payload, created_at)
		      VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.prefix,
	)
	return s.prepareStmt("insertPayment", query)
}

func (s *MySql) stmtSelectPayments() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT id, sale_id, email, status, source, raw_payload, created_at
		   FROM %spayments
		  WHERE email = ?
		  ORDER BY created_at DESC
		  LIMIT ?`,
		s.prefix,
	)
	return s.prepareStmt("selectPayments", query)
}
