package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"corretores-sync-app/internal/models"
	"corretores-sync-app/internal/telemetry"
)

// statusRetentaveis são os códigos repetidos pela camada de transporte.
var statusRetentaveis = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Recorder recebe os eventos de requisição (implementado por metrics.Metrics).
type Recorder interface {
	RecordRequest(status string)
	RecordTimeoutRetry()
}

type Options struct {
	URL         string
	Email       string
	Token       string
	PageSize    int
	PagePause   time.Duration
	MaxAttempts int
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Recorder    Recorder
	Sleep       func(ctx context.Context, d time.Duration) error
}

// Client busca a listagem de corretores do CVCRM.
type Client struct {
	url         string
	email       string
	token       string
	pageSize    int
	pagePause   time.Duration
	maxAttempts int
	http        *http.Client
	log         *slog.Logger
	recorder    Recorder
	sleep       func(ctx context.Context, d time.Duration) error
}

// TransportOptions configura o cliente HTTP compartilhado pela execução.
type TransportOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	Logger         *slog.Logger
}

// NewHTTPClient monta o cliente com retentativa de transporte (408/429/5xx e erros de rede)
// e spans do otelhttp em cada tentativa.
func NewHTTPClient(opts TransportOptions) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
	}

	rc := retryablehttp.NewClient()
	// o prazo vale por tentativa de transporte e cobre conexão, cabeçalhos e corpo
	rc.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(base), Timeout: opts.ReadTimeout}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.CheckRetry = checkRetry
	rc.Backoff = backoffLimitado
	// devolve a última resposta (503, 429...) para que o status chegue ao FetchError
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if opts.Logger != nil {
		rc.Logger = opts.Logger
	}
	return rc.StandardClient()
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		// timeouts ficam com a retentativa da aplicação (2^n segundos, CRM_MAX_ATTEMPTS)
		if isTimeout(err) {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return statusRetentaveis[resp.StatusCode], nil
}

// backoffLimitado segue o Retry-After do servidor, mas nunca espera mais que max.
func backoffLimitado(esperaMin, esperaMax time.Duration, attempt int, resp *http.Response) time.Duration {
	espera := retryablehttp.DefaultBackoff(esperaMin, esperaMax, attempt, resp)
	if espera > esperaMax {
		return esperaMax
	}
	return espera
}

// New cria o cliente da API de corretores.
func New(opts Options) *Client {
	c := &Client{
		url:         opts.URL,
		email:       opts.Email,
		token:       opts.Token,
		pageSize:    opts.PageSize,
		pagePause:   opts.PagePause,
		maxAttempts: opts.MaxAttempts,
		http:        opts.HTTPClient,
		log:         opts.Logger,
		recorder:    opts.Recorder,
		sleep:       opts.Sleep,
	}
	if c.pageSize <= 0 {
		c.pageSize = 500
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 3
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	return c
}

type requisicao struct {
	Pagina             int `json:"pagina"`
	RegistrosPorPagina int `json:"registros_por_pagina"`
}

type resposta struct {
	Dados          []models.RegistroBruto `json:"dados"`
	TotalDePaginas json.Number            `json:"total_de_paginas"`
}

// Buscar obtém uma página. Em timeout tenta de novo até maxAttempts vezes,
// aguardando 2^tentativa segundos; qualquer outro erro encerra na hora.
func (c *Client) Buscar(ctx context.Context, pagina int) (models.Pagina, error) {
	ctx, span := telemetry.StartSpan(ctx, "crm.buscar_pagina")
	defer span.End()
	span.SetAttributes(attribute.Int("crm.pagina", pagina))

	for tentativa := 1; ; tentativa++ {
		p, status, err := c.buscarUmaVez(ctx, pagina)
		if err == nil {
			c.recorder.RecordRequest("ok")
			return p, nil
		}

		if !isTimeout(err) || tentativa >= c.maxAttempts || ctx.Err() != nil {
			c.recorder.RecordRequest(resultadoErro(err))
			c.log.ErrorContext(ctx, "❌ Erro na requisição", "pagina", pagina, "tentativa", tentativa, "error", err)
			fetchErr := &FetchError{Pagina: pagina, Tentativas: tentativa, StatusCode: status, Err: err}
			span.RecordError(fetchErr)
			return models.Pagina{}, fetchErr
		}

		espera := time.Duration(math.Pow(2, float64(tentativa))) * time.Second
		c.recorder.RecordRequest("timeout")
		c.recorder.RecordTimeoutRetry()
		c.log.WarnContext(ctx, "⏳ Timeout na tentativa, aguardando",
			"pagina", pagina, "tentativa", tentativa, "espera", espera.String())
		if err := c.sleep(ctx, espera); err != nil {
			return models.Pagina{}, &FetchError{Pagina: pagina, Tentativas: tentativa, Err: err}
		}
	}
}

func resultadoErro(err error) string {
	if isTimeout(err) {
		return "timeout"
	}
	return "erro"
}

func (c *Client) buscarUmaVez(ctx context.Context, pagina int) (models.Pagina, int, error) {
	body, err := json.Marshal(requisicao{Pagina: pagina, RegistrosPorPagina: c.pageSize})
	if err != nil {
		return models.Pagina{}, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, bytes.NewReader(body))
	if err != nil {
		return models.Pagina{}, 0, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("token", c.token)
	if c.email != "" {
		req.Header.Set("email", c.email)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Pagina{}, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return models.Pagina{}, resp.StatusCode, fmt.Errorf("http status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var r resposta
	if err := dec.Decode(&r); err != nil {
		return models.Pagina{}, resp.StatusCode, fmt.Errorf("resposta inválida: %w", err)
	}

	total := 1
	if r.TotalDePaginas != "" {
		n, err := r.TotalDePaginas.Int64()
		if err != nil {
			return models.Pagina{}, resp.StatusCode, fmt.Errorf("total_de_paginas inválido %q: %w", r.TotalDePaginas, err)
		}
		total = int(n)
	}

	return models.Pagina{Numero: pagina, TotalDePaginas: total, Dados: r.Dados}, resp.StatusCode, nil
}

// Sleep bloqueia por d ou até o contexto ser cancelado.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string) {}
func (nopRecorder) RecordTimeoutRetry()  {}
