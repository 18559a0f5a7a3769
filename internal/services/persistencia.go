package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"corretores-sync-app/internal/models"
	"corretores-sync-app/internal/telemetry"
)

// TamanhoLotePadrao é o tamanho de lote usado quando nenhum é configurado.
const TamanhoLotePadrao = 50

// Sink grava corretores via upsert na chave de conflito. A mesma chamada serve para
// lotes e para um único registro.
type Sink interface {
	Upsert(ctx context.Context, tabela, chaveConflito string, registros []models.Corretor) error
}

// DeadLetter recebe os registros que falharam mesmo individualmente.
type DeadLetter interface {
	Publicar(ctx context.Context, rejeitado models.RegistroRejeitado) error
}

// PersistenciaRecorder recebe os eventos de lote (implementado por metrics.Metrics).
type PersistenciaRecorder interface {
	RecordLote(resultado string)
	RecordRegistros(etapa string, n int)
}

// ResultadoPersistencia resume a etapa de gravação.
type ResultadoPersistencia struct {
	Lotes       int
	LotesFalhos int
	Gravados    int
	Falhas      []string
}

type Persistidor struct {
	sink          Sink
	deadLetter    DeadLetter
	recorder      PersistenciaRecorder
	log           *slog.Logger
	tabela        string
	chaveConflito string
	tamanhoLote   int
}

type PersistidorOptions struct {
	Sink          Sink
	DeadLetter    DeadLetter
	Recorder      PersistenciaRecorder
	Logger        *slog.Logger
	Tabela        string
	ChaveConflito string
	TamanhoLote   int
}

func NewPersistidor(opts PersistidorOptions) *Persistidor {
	p := &Persistidor{
		sink:          opts.Sink,
		deadLetter:    opts.DeadLetter,
		recorder:      opts.Recorder,
		log:           opts.Logger,
		tabela:        opts.Tabela,
		chaveConflito: opts.ChaveConflito,
		tamanhoLote:   opts.TamanhoLote,
	}
	if p.tamanhoLote <= 0 {
		p.tamanhoLote = TamanhoLotePadrao
	}
	if p.chaveConflito == "" {
		p.chaveConflito = models.ColunaIDCorretor
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.recorder == nil {
		p.recorder = nopPersistenciaRecorder{}
	}
	return p
}

// Persistir grava os registros em lotes. Um lote rejeitado é refeito registro a registro;
// o que falhar de novo é contado e registrado, sem interromper os lotes seguintes.
// Só retorna erro se o contexto for cancelado.
func (p *Persistidor) Persistir(ctx context.Context, registros []models.Corretor) (ResultadoPersistencia, error) {
	var res ResultadoPersistencia
	total := len(registros)

	for inicio := 0; inicio < total; inicio += p.tamanhoLote {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("persistência interrompida no registro %d: %w", inicio, err)
		}

		fim := inicio + p.tamanhoLote
		if fim > total {
			fim = total
		}
		lote := registros[inicio:fim]
		res.Lotes++
		numero := res.Lotes

		p.log.InfoContext(ctx, "⏳ Inserindo lote", "lote", numero)
		err := p.gravarLote(ctx, lote, numero)
		if err == nil {
			res.Gravados += len(lote)
			p.recorder.RecordLote("ok")
			p.recorder.RecordRegistros("gravados", len(lote))
			p.log.InfoContext(ctx, "✅ Lote inserido", "lote", numero, "de", inicio, "ate", fim)
			continue
		}

		res.LotesFalhos++
		p.recorder.RecordLote("degradado")
		p.log.WarnContext(ctx, "❌ Erro no lote, gravando registro a registro", "lote", numero, "error", err)

		for _, registro := range lote {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("persistência interrompida no lote %d: %w", numero, err)
			}
			if err := p.gravarUm(ctx, registro); err != nil {
				res.Falhas = append(res.Falhas, registro.Identificador())
				p.recorder.RecordRegistros("falhas", 1)
				p.log.ErrorContext(ctx, "❌ Registro não gravado", "lote", numero, "idcorretor", registro.Identificador(), "error", err)
				p.rejeitar(ctx, registro, err)
				continue
			}
			res.Gravados++
			p.recorder.RecordRegistros("gravados", 1)
		}
	}

	return res, nil
}

func (p *Persistidor) gravarLote(ctx context.Context, lote []models.Corretor, numero int) error {
	ctx, span := telemetry.StartSpan(ctx, "sink.upsert_lote")
	defer span.End()
	span.SetAttributes(attribute.Int("lote.numero", numero), attribute.Int("lote.registros", len(lote)))

	err := p.upsert(ctx, lote)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (p *Persistidor) gravarUm(ctx context.Context, registro models.Corretor) error {
	return p.upsert(ctx, []models.Corretor{registro})
}

func (p *Persistidor) upsert(ctx context.Context, registros []models.Corretor) error {
	if err := validarSerializacao(registros); err != nil {
		return err
	}
	if err := p.sink.Upsert(ctx, p.tabela, p.chaveConflito, registros); err != nil {
		var sinkErr *SinkWriteError
		if errors.As(err, &sinkErr) {
			return err
		}
		return &SinkWriteError{Registros: len(registros), Err: err}
	}
	return nil
}

// validarSerializacao garante que o lote é JSON válido em UTF-8 antes de chegar ao destino.
func validarSerializacao(registros []models.Corretor) error {
	for i, r := range registros {
		for j, v := range r.Valores() {
			s, ok := v.(*string)
			if ok && s != nil && !utf8.ValidString(*s) {
				return &SerializationError{Err: fmt.Errorf("registro %s coluna %s: texto não é UTF-8 válido", registros[i].Identificador(), models.Colunas[j])}
			}
		}
	}
	if _, err := json.Marshal(registros); err != nil {
		return &SerializationError{Err: err}
	}
	return nil
}

func (p *Persistidor) rejeitar(ctx context.Context, registro models.Corretor, motivo error) {
	if p.deadLetter == nil {
		return
	}
	err := p.deadLetter.Publicar(ctx, models.RegistroRejeitado{
		IDCorretor: registro.Identificador(),
		Tabela:     p.tabela,
		Payload:    registro,
		Motivo:     motivo.Error(),
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		p.log.WarnContext(ctx, "⚠️  Erro ao publicar registro rejeitado", "idcorretor", registro.Identificador(), "error", err)
	}
}

type nopPersistenciaRecorder struct{}

func (nopPersistenciaRecorder) RecordLote(string)           {}
func (nopPersistenciaRecorder) RecordRegistros(string, int) {}
