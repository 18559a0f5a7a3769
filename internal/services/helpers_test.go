package services

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"corretores-sync-app/internal/models"
)

func strp(s string) *string { return &s }

// fakeSink guarda as linhas por idcorretor, como uma tabela com chave de conflito.
type fakeSink struct {
	mu       sync.Mutex
	rows     map[string]models.Corretor
	calls    [][]string
	tabelas  []string
	chaves   []string
	rejeitar func(models.Corretor) bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{rows: map[string]models.Corretor{}}
}

func (f *fakeSink) Upsert(_ context.Context, tabela, chaveConflito string, registros []models.Corretor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(registros))
	for _, r := range registros {
		ids = append(ids, r.Identificador())
	}
	f.calls = append(f.calls, ids)
	f.tabelas = append(f.tabelas, tabela)
	f.chaves = append(f.chaves, chaveConflito)

	for _, r := range registros {
		if f.rejeitar != nil && f.rejeitar(r) {
			return errors.New("violação de restrição")
		}
	}
	for _, r := range registros {
		f.rows[r.Identificador()] = r
	}
	return nil
}

func (f *fakeSink) chamadasComTamanho(n int) int {
	count := 0
	for _, c := range f.calls {
		if len(c) == n {
			count++
		}
	}
	return count
}

type fakeDeadLetter struct {
	publicados []models.RegistroRejeitado
}

func (f *fakeDeadLetter) Publicar(_ context.Context, r models.RegistroRejeitado) error {
	f.publicados = append(f.publicados, r)
	return nil
}

func corretores(n int) []models.Corretor {
	out := make([]models.Corretor, 0, n)
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(i)
		out = append(out, models.Corretor{
			IDCorretor:    strp(id),
			AtivoLogin:    strp("S"),
			Nome:          strp("Corretor " + id),
			Documento:     strp("000.000.000-" + id),
			DataCad:       strp("2024-01-02 03:04:05"),
			IDImobiliaria: nil,
		})
	}
	return out
}
