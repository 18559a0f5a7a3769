package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"corretores-sync-app/internal/models"
)

// Sink grava corretores pela API REST do Supabase (PostgREST) com upsert em on_conflict.
type Sink struct {
	client *postgrest.Client
}

// NewSink aceita a URL do projeto (https://<ref>.supabase.co) ou já apontando para /rest/v1.
func NewSink(projectURL, key, schema string) (*Sink, error) {
	restURL := strings.TrimSuffix(projectURL, "/")
	if !strings.HasSuffix(restURL, "/rest/v1") {
		restURL += "/rest/v1"
	}
	if schema == "" {
		schema = "public"
	}

	client := postgrest.NewClient(restURL, schema, map[string]string{
		"apikey":        key,
		"Authorization": "Bearer " + key,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("erro ao criar cliente do Supabase: %w", client.ClientError)
	}
	return &Sink{client: client}, nil
}

func (s *Sink) Upsert(ctx context.Context, tabela, chaveConflito string, registros []models.Corretor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(registros) == 0 {
		return fmt.Errorf("nenhum registro para gravar")
	}

	_, _, err := s.client.From(tabela).
		Upsert(registros, chaveConflito, "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("erro no upsert em %s: %w", tabela, err)
	}
	return nil
}
