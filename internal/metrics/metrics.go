package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Métricas da sincronização. Cada execução cria o próprio registro.
type Metrics struct {
	registry *prometheus.Registry

	Requisicoes       *prometheus.CounterVec
	RetentativasTempo prometheus.Counter
	Registros         *prometheus.CounterVec
	Lotes             *prometheus.CounterVec
	DuracaoEtapa      *prometheus.HistogramVec
	UltimoSucesso     prometheus.Gauge
}

// New cria e registra todas as métricas
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requisicoes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corretores_crm_requests_total",
				Help: "Total de requisições à API do CRM por resultado",
			},
			[]string{"status"},
		),
		RetentativasTempo: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corretores_crm_timeout_retries_total",
				Help: "Total de novas tentativas após timeout",
			},
		),
		Registros: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corretores_registros_total",
				Help: "Total de registros por etapa",
			},
			[]string{"etapa"},
		),
		Lotes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corretores_lotes_total",
				Help: "Total de lotes enviados ao destino por resultado",
			},
			[]string{"resultado"},
		),
		DuracaoEtapa: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corretores_etapa_duration_seconds",
				Help:    "Duração de cada etapa da sincronização em segundos",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"etapa"},
		),
		UltimoSucesso: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corretores_ultimo_sucesso_timestamp_seconds",
				Help: "Horário Unix da última sincronização concluída",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.Requisicoes,
		m.RetentativasTempo,
		m.Registros,
		m.Lotes,
		m.DuracaoEtapa,
		m.UltimoSucesso,
	)
	return m
}

// Registry expõe o registro para testes e para o servidor de métricas.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler retorna o handler para o endpoint /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest registra uma requisição ao CRM
func (m *Metrics) RecordRequest(status string) {
	m.Requisicoes.WithLabelValues(status).Inc()
}

// RecordTimeoutRetry registra uma nova tentativa após timeout
func (m *Metrics) RecordTimeoutRetry() {
	m.RetentativasTempo.Inc()
}

// RecordRegistros soma n registros na etapa informada
func (m *Metrics) RecordRegistros(etapa string, n int) {
	m.Registros.WithLabelValues(etapa).Add(float64(n))
}

// RecordLote registra o resultado de um lote ("ok" ou "degradado")
func (m *Metrics) RecordLote(resultado string) {
	m.Lotes.WithLabelValues(resultado).Inc()
}

// ObserveEtapa registra a duração de uma etapa
func (m *Metrics) ObserveEtapa(etapa string, segundos float64) {
	m.DuracaoEtapa.WithLabelValues(etapa).Observe(segundos)
}

// MarkSuccess marca o horário da última execução concluída
func (m *Metrics) MarkSuccess() {
	m.UltimoSucesso.SetToCurrentTime()
}

// Push envia as métricas ao Pushgateway (jobs de execução única não são coletados via scrape).
func (m *Metrics) Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("erro ao enviar métricas ao pushgateway: %w", err)
	}
	return nil
}
