package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("API_TOKEN", "token-123")
	t.Setenv("SINK_URL", "https://exemplo.supabase.co")
	t.Setenv("SINK_KEY", "chave")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 500, cfg.CRM.PageSize)
	require.Equal(t, 3, cfg.CRM.MaxAttempts)
	require.Equal(t, 3, cfg.CRM.TransportRetries)
	require.Equal(t, time.Second, cfg.CRM.PagePause)
	require.Equal(t, 10*time.Second, cfg.CRM.ConnectTimeout)
	require.Equal(t, 30*time.Second, cfg.CRM.ReadTimeout)
	require.Equal(t, DriverPostgREST, cfg.Sink.Driver)
	require.Equal(t, TabelaPadrao, cfg.Sink.Table)
	require.Equal(t, "idcorretor", cfg.Sink.ConflictKey)
	require.Equal(t, 50, cfg.Sink.BatchSize)
	require.Equal(t, "corretores_erros", cfg.Kafka.DeadLetterTopic)
}

func TestLoadRequiresEachSecret(t *testing.T) {
	for _, key := range []string{"API_TOKEN", "SINK_URL", "SINK_KEY"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "esperado ConfigError, obtido %v", err)
			require.Equal(t, key, cfgErr.Chave)
		})
	}
}

func TestLoadAcceptsSupabaseAliases(t *testing.T) {
	t.Setenv("API_TOKEN", "token-123")
	t.Setenv("SINK_URL", "")
	t.Setenv("SINK_KEY", "")
	t.Setenv("SUPABASE_URL", "https://projeto.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-role")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://projeto.supabase.co", cfg.Sink.URL)
	require.Equal(t, "service-role", cfg.Sink.Key)
}

func TestLoadClampsBatchSize(t *testing.T) {
	setRequired(t)
	t.Setenv("SINK_BATCH_SIZE", "5000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.Sink.BatchSize)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("SINK_DRIVER", "oracle")

	_, err := Load()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "SINK_DRIVER", cfgErr.Chave)
}

func TestLoadRejectsMigrationsForCustomTable(t *testing.T) {
	setRequired(t)
	t.Setenv("SINK_DRIVER", "sqlite")
	t.Setenv("SINK_MIGRATE", "true")
	t.Setenv("SINK_TABLE", "outra_tabela")

	_, err := Load()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "SINK_MIGRATE", cfgErr.Chave)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"timeout sem unidade", "CRM_READ_TIMEOUT", "30"},
		{"timeout ilegivel", "CRM_READ_TIMEOUT", "abc"},
		{"timeout zero", "CRM_READ_TIMEOUT", "0s"},
		{"connect negativo", "CRM_CONNECT_TIMEOUT", "-5s"},
		{"tentativas ilegiveis", "CRM_MAX_ATTEMPTS", "abc"},
		{"tentativas zero", "CRM_MAX_ATTEMPTS", "0"},
		{"lote ilegivel", "SINK_BATCH_SIZE", "cinquenta"},
		{"lote zero", "SINK_BATCH_SIZE", "0"},
		{"pagina ilegivel", "CRM_PAGE_SIZE", "quinhentos"},
		{"pausa negativa", "CRM_PAGE_PAUSE", "-1s"},
		{"retentativas negativas", "CRM_TRANSPORT_RETRIES", "-1"},
		{"conexoes zero", "SINK_MAX_CONNS", "0"},
		{"booleano ilegivel", "SINK_MIGRATE", "talvez"},
		{"espera minima acima da maxima", "CRM_RETRY_WAIT_MIN", "10s"},
		{"chave de conflito desconhecida", "SINK_CONFLICT_KEY", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.key, cfgErr.Chave)
		})
	}
}

func TestLoadParsesDurationsWithUnits(t *testing.T) {
	setRequired(t)
	t.Setenv("CRM_READ_TIMEOUT", "45s")
	t.Setenv("CRM_PAGE_PAUSE", "0s")
	t.Setenv("CRM_MAX_ATTEMPTS", "5")
	t.Setenv("SINK_CONFLICT_KEY", "documento")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, cfg.CRM.ReadTimeout)
	require.Zero(t, cfg.CRM.PagePause)
	require.Equal(t, 5, cfg.CRM.MaxAttempts)
	require.Equal(t, "documento", cfg.Sink.ConflictKey)
}
