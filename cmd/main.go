package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"corretores-sync-app/internal/config"
	"corretores-sync-app/internal/crm"
	"corretores-sync-app/internal/kafka"
	"corretores-sync-app/internal/logging"
	"corretores-sync-app/internal/metrics"
	"corretores-sync-app/internal/services"
	"corretores-sync-app/internal/telemetry"
)

func main() {
	resumoJSON := flag.Bool("resumo-json", false, "imprime o resumo da execução em JSON no stdout")
	flag.Parse()

	if err := run(*resumoJSON); err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, "❌", cfgErr)
		}
		os.Exit(1)
	}
}

func run(resumoJSON bool) error {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Arquivo .env não encontrado, usando variáveis do sistema")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inicializar telemetria
	if cfg.Observability.TracingEnabled {
		cleanup, err := telemetry.InitTelemetry(ctx, log, cfg.Observability.ServiceName, cfg.Observability.TempoEndpoint)
		if err != nil {
			log.Warn("⚠️  Erro ao inicializar telemetria", "error", err)
		} else {
			defer cleanup()
		}
	}

	// Inicializar métricas
	m := metrics.New()
	if cfg.Observability.MetricsAddr != "" {
		shutdown, err := metrics.Serve(cfg.Observability.MetricsAddr, m, cfg.Observability.ServiceName, log)
		if err != nil {
			log.Warn("⚠️  Erro ao iniciar servidor de métricas", "error", err)
		} else {
			defer shutdown()
		}
	}
	defer func() {
		if err := m.Push(cfg.Observability.PushgatewayURL, "corretores_sync"); err != nil {
			log.Warn("⚠️  Erro ao enviar métricas ao Pushgateway", "error", err)
		}
	}()

	sink, closeSink, err := abrirSink(ctx, cfg.Sink, log)
	if err != nil {
		log.Error("❌ Erro ao conectar ao destino", "driver", cfg.Sink.Driver, "error", err)
		return err
	}
	defer closeSink()

	var deadLetter services.DeadLetter
	if cfg.Kafka.Broker != "" {
		producer, err := kafka.NewSyncProducer(cfg.Kafka.Broker)
		if err != nil {
			log.Warn("⚠️  Kafka indisponível, registros rejeitados só irão para o log", "error", err)
		} else {
			dl := kafka.NewDeadLetterProducer(producer, cfg.Kafka.DeadLetterTopic, log)
			defer dl.Close()
			deadLetter = dl
		}
	}

	httpClient := crm.NewHTTPClient(crm.TransportOptions{
		ConnectTimeout: cfg.CRM.ConnectTimeout,
		ReadTimeout:    cfg.CRM.ReadTimeout,
		RetryMax:       cfg.CRM.TransportRetries,
		RetryWaitMin:   cfg.CRM.RetryWaitMin,
		RetryWaitMax:   cfg.CRM.RetryWaitMax,
		Logger:         log,
	})
	coletor := crm.New(crm.Options{
		URL:         cfg.CRM.URL,
		Email:       cfg.CRM.Email,
		Token:       cfg.CRM.Token,
		PageSize:    cfg.CRM.PageSize,
		PagePause:   cfg.CRM.PagePause,
		MaxAttempts: cfg.CRM.MaxAttempts,
		HTTPClient:  httpClient,
		Logger:      log,
		Recorder:    m,
	})
	persistidor := services.NewPersistidor(services.PersistidorOptions{
		Sink:          sink,
		DeadLetter:    deadLetter,
		Recorder:      m,
		Logger:        log,
		Tabela:        cfg.Sink.Table,
		ChaveConflito: cfg.Sink.ConflictKey,
		TamanhoLote:   cfg.Sink.BatchSize,
	})
	service := services.NewSincronizacaoService(coletor, persistidor, m, log)

	log.Info("🚀 Iniciando sincronização de corretores", "driver", cfg.Sink.Driver, "tabela", cfg.Sink.Table)
	resumo, err := service.Executar(ctx)

	if resumoJSON {
		if encErr := json.NewEncoder(os.Stdout).Encode(resumo.Log()); encErr != nil {
			log.Warn("⚠️  Erro ao imprimir resumo", "error", encErr)
		}
	}
	return err
}
