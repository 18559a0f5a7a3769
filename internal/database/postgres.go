package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"corretores-sync-app/internal/models"
)

// OpenPostgres abre o pool. Atrás de PgBouncer em modo transação usa o protocolo simples.
func OpenPostgres(ctx context.Context, dsn, senha string, maxConns int, viaBouncer bool) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("erro ao interpretar DSN do Postgres: %w", err)
	}
	if senha != "" {
		cfg.ConnConfig.Password = senha
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)
	if viaBouncer {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar ao Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("erro ao conectar ao Postgres: %w", err)
	}
	return pool, nil
}

// PostgresSink grava via pgx.Batch dentro de uma transação por chamada.
type PostgresSink struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPostgresSink(pool *pgxpool.Pool, schema string) *PostgresSink {
	return &PostgresSink{pool: pool, schema: schema}
}

func (s *PostgresSink) Upsert(ctx context.Context, tabela, chaveConflito string, registros []models.Corretor) error {
	if len(registros) == 0 {
		return fmt.Errorf("nenhum registro para gravar")
	}
	query := montarUpsertPostgres(s.schema, tabela, chaveConflito)

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, r := range registros {
			b.Queue(query, argumentos(r)...)
		}
		br := tx.SendBatch(ctx, b)
		for i := range registros {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("erro ao inserir registro %s: %w", registros[i].Identificador(), err)
			}
		}
		return br.Close()
	})
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func montarUpsertPostgres(schema, tabela, chaveConflito string) string {
	nome := pgx.Identifier{tabela}
	if schema != "" {
		nome = pgx.Identifier{schema, tabela}
	}

	colunas := make([]string, 0, len(models.Colunas))
	params := make([]string, 0, len(models.Colunas))
	var sets []string
	for i, c := range models.Colunas {
		q := pgx.Identifier{c}.Sanitize()
		colunas = append(colunas, q)
		params = append(params, fmt.Sprintf("$%d", i+1))
		if c != chaveConflito {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		nome.Sanitize(), strings.Join(colunas, ", "), strings.Join(params, ", "),
		pgx.Identifier{chaveConflito}.Sanitize(), strings.Join(sets, ", "))
}
