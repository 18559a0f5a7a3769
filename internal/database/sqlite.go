package database

import (
	"database/sql"
	"fmt"
	"net/url"

	// driver SQLite
	_ "modernc.org/sqlite"
)

// OpenSQLite abre (ou cria) o arquivo local usado em execuções sem banco remoto.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "data/corretores.sqlite"
	}
	values := url.Values{}
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "busy_timeout(5000)")

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?%s", path, values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir SQLite: %w", err)
	}
	// um único escritor evita SQLITE_BUSY entre lotes
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao conectar ao SQLite: %w", err)
	}
	return db, nil
}
