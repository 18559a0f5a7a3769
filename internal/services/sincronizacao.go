package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"corretores-sync-app/internal/models"
	"corretores-sync-app/internal/telemetry"
)

// Estado da execução da sincronização.
type Estado string

const (
	EstadoColetando    Estado = "coletando"
	EstadoNormalizando Estado = "normalizando"
	EstadoPersistindo  Estado = "persistindo"
	EstadoConcluido    Estado = "concluido"
	EstadoFalhou       Estado = "falhou"
)

// Coletor percorre a listagem paginada do CRM.
type Coletor interface {
	ColetarTodos(ctx context.Context) ([]models.RegistroBruto, int, error)
}

// SincronizacaoRecorder recebe as métricas da execução (implementado por metrics.Metrics).
type SincronizacaoRecorder interface {
	RecordRegistros(etapa string, n int)
	ObserveEtapa(etapa string, segundos float64)
	MarkSuccess()
}

// Resumo descreve uma execução.
type Resumo struct {
	Estado       Estado
	Paginas      int
	Coletados    int
	Normalizados int
	Persistencia ResultadoPersistencia
	Duracao      time.Duration
	Erro         error
}

// Log converte o resumo na linha JSON de fim de execução.
func (r Resumo) Log() models.ResumoLog {
	l := models.ResumoLog{
		Estado:        string(r.Estado),
		Paginas:       r.Paginas,
		Coletados:     r.Coletados,
		Normalizados:  r.Normalizados,
		Lotes:         r.Persistencia.Lotes,
		LotesFalhos:   r.Persistencia.LotesFalhos,
		Gravados:      r.Persistencia.Gravados,
		Falhas:        len(r.Persistencia.Falhas),
		IDsComFalha:   r.Persistencia.Falhas,
		TempoExecucao: formatarTempo(r.Duracao),
		Timestamp:     time.Now().UTC(),
	}
	if r.Erro != nil {
		l.Erro = r.Erro.Error()
	}
	return l
}

type SincronizacaoService struct {
	coletor     Coletor
	persistidor *Persistidor
	recorder    SincronizacaoRecorder
	log         *slog.Logger
}

func NewSincronizacaoService(coletor Coletor, persistidor *Persistidor, recorder SincronizacaoRecorder, log *slog.Logger) *SincronizacaoService {
	if recorder == nil {
		recorder = nopSincronizacaoRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &SincronizacaoService{coletor: coletor, persistidor: persistidor, recorder: recorder, log: log}
}

// Executar roda coleta → normalização → persistência. Falhas de coleta ou de esquema
// levam a EstadoFalhou sem gravar nada; falhas por registro só entram no resumo.
func (s *SincronizacaoService) Executar(ctx context.Context) (Resumo, error) {
	ctx, span := telemetry.StartSpan(ctx, "sincronizar_corretores")
	defer span.End()

	inicio := time.Now()
	resumo := Resumo{Estado: EstadoColetando}

	falhar := func(err error) (Resumo, error) {
		etapa := resumo.Estado
		resumo.Estado = EstadoFalhou
		resumo.Erro = err
		resumo.Duracao = time.Since(inicio)
		span.RecordError(err)
		span.SetAttributes(attribute.String("sincronizacao.estado", string(EstadoFalhou)))
		s.log.ErrorContext(ctx, "❌ Falha crítica", "etapa", etapa, "error", err)
		return resumo, fmt.Errorf("sincronização falhou em %s: %w", etapa, err)
	}

	t := time.Now()
	brutos, paginas, err := s.coletor.ColetarTodos(ctx)
	if err != nil {
		return falhar(err)
	}
	resumo.Paginas = paginas
	resumo.Coletados = len(brutos)
	s.recorder.RecordRegistros("coletados", len(brutos))
	s.recorder.ObserveEtapa(string(EstadoColetando), time.Since(t).Seconds())

	resumo.Estado = EstadoNormalizando
	t = time.Now()
	corretores, err := NormalizarCorretores(brutos)
	if err != nil {
		return falhar(err)
	}
	resumo.Normalizados = len(corretores)
	s.recorder.RecordRegistros("normalizados", len(corretores))
	s.recorder.ObserveEtapa(string(EstadoNormalizando), time.Since(t).Seconds())
	s.log.InfoContext(ctx, "🔍 Dados preparados para inserção", "registros", len(corretores))
	if len(corretores) > 0 {
		s.log.DebugContext(ctx, "amostra", "registros", corretores[:min(2, len(corretores))])
	}

	resumo.Estado = EstadoPersistindo
	t = time.Now()
	resultado, err := s.persistidor.Persistir(ctx, corretores)
	resumo.Persistencia = resultado
	if err != nil {
		return falhar(err)
	}
	s.recorder.ObserveEtapa(string(EstadoPersistindo), time.Since(t).Seconds())

	resumo.Estado = EstadoConcluido
	resumo.Duracao = time.Since(inicio)
	s.recorder.MarkSuccess()
	span.SetAttributes(
		attribute.String("sincronizacao.estado", string(EstadoConcluido)),
		attribute.Int("sincronizacao.registros", resumo.Normalizados),
		attribute.Int("sincronizacao.falhas", len(resultado.Falhas)),
	)

	if len(resultado.Falhas) > 0 {
		s.log.WarnContext(ctx, "⚠️  Concluído com falhas por registro",
			"total", resumo.Normalizados, "falhas", len(resultado.Falhas), "tempo", formatarTempo(resumo.Duracao))
	} else {
		s.log.InfoContext(ctx, "🎉 Concluído!", "total", resumo.Normalizados, "lotes", resultado.Lotes, "tempo", formatarTempo(resumo.Duracao))
	}
	return resumo, nil
}

// formatarTempo formata duração para string legível
func formatarTempo(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

type nopSincronizacaoRecorder struct{}

func (nopSincronizacaoRecorder) RecordRegistros(string, int)  {}
func (nopSincronizacaoRecorder) ObserveEtapa(string, float64) {}
func (nopSincronizacaoRecorder) MarkSuccess()                 {}
