package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migrar cria a tabela padrão d_Corretores se ainda não existir.
func Migrar(ctx context.Context, db *sql.DB, dialeto string) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	gooseDialect := dialeto
	if dialeto == DialetoSQLite {
		gooseDialect = "sqlite3"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("erro ao definir dialeto do goose: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations/"+dialeto); err != nil {
		return fmt.Errorf("erro ao migrar banco: %w", err)
	}
	return nil
}

// MigrarPostgres roda as migrações sobre o pool via database/sql.
func MigrarPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return Migrar(ctx, db, "postgres")
}
