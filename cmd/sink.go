package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"corretores-sync-app/internal/config"
	"corretores-sync-app/internal/database"
	"corretores-sync-app/internal/services"
	"corretores-sync-app/internal/supabase"
)

// abrirSink conecta ao destino escolhido em SINK_DRIVER e roda as migrações se pedido.
func abrirSink(ctx context.Context, cfg config.SinkConfig, log *slog.Logger) (services.Sink, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgREST:
		sink, err := supabase.NewSink(cfg.URL, cfg.Key, cfg.Schema)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() {}, nil

	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.URL, cfg.Key, cfg.MaxConns, cfg.ViaBouncer)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Migrate {
			if err := database.MigrarPostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			log.Info("✅ Tabela verificada/criada", "tabela", cfg.Table)
		}
		sink := database.NewPostgresSink(pool, cfg.Schema)
		return sink, func() { _ = sink.Close() }, nil

	case config.DriverMySQL, config.DriverSQLite:
		var db *sql.DB
		var err error
		if cfg.Driver == config.DriverMySQL {
			db, err = database.OpenMySQL(ctx, cfg.URL, cfg.Key, cfg.MaxConns)
		} else {
			db, err = database.OpenSQLite(cfg.URL)
		}
		if err != nil {
			return nil, nil, err
		}
		if cfg.Migrate {
			if err := database.Migrar(ctx, db, cfg.Driver); err != nil {
				db.Close()
				return nil, nil, err
			}
			log.Info("✅ Tabela verificada/criada", "tabela", cfg.Table)
		}
		sink := database.NewSQLSink(db, cfg.Driver)
		return sink, func() { _ = sink.Close() }, nil
	}
	return nil, nil, fmt.Errorf("driver desconhecido %q", cfg.Driver)
}
