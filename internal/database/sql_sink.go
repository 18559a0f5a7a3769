package database

import (
	"context"
	"database/sql"
	"fmt"

	"corretores-sync-app/internal/models"
)

// SQLSink grava corretores num banco database/sql (MySQL ou SQLite).
// Cada chamada é uma transação: o lote entra inteiro ou nada entra.
type SQLSink struct {
	db      *sql.DB
	dialeto string
}

func NewSQLSink(db *sql.DB, dialeto string) *SQLSink {
	return &SQLSink{db: db, dialeto: dialeto}
}

func (s *SQLSink) Upsert(ctx context.Context, tabela, chaveConflito string, registros []models.Corretor) (err error) {
	query, args, err := montarUpsert(s.dialeto, tabela, chaveConflito, registros)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("erro ao inserir %d registro(s) em %s: %w", len(registros), tabela, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("erro ao confirmar transação: %w", err)
	}
	return nil
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}
