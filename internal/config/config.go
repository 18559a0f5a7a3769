package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"corretores-sync-app/internal/models"
)

// Drivers de destino suportados.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite"
)

// TabelaPadrao é a tabela criada pelas migrações embutidas.
const TabelaPadrao = "d_Corretores"

// ConfigError indica configuração obrigatória ausente ou inválida.
type ConfigError struct {
	Chave  string
	Motivo string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuração inválida %s: %s", e.Chave, e.Motivo)
}

type Config struct {
	CRM           CRMConfig
	Sink          SinkConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type CRMConfig struct {
	URL              string
	Email            string
	Token            string
	PageSize         int
	PagePause        time.Duration
	MaxAttempts      int
	TransportRetries int
	RetryWaitMin     time.Duration
	RetryWaitMax     time.Duration
	ConnectTimeout   time.Duration
	ReadTimeout      time.Duration
}

type SinkConfig struct {
	Driver      string
	URL         string
	Key         string
	Table       string
	Schema      string
	ConflictKey string
	BatchSize   int
	Migrate     bool
	MaxConns    int
	ViaBouncer  bool
}

type KafkaConfig struct {
	Broker          string
	DeadLetterTopic string
}

type ObservabilityConfig struct {
	TracingEnabled bool
	TempoEndpoint  string
	ServiceName    string
	MetricsAddr    string
	PushgatewayURL string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load lê a configuração das variáveis de ambiente.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	_ = v.BindEnv("sink_url", "SINK_URL", "SUPABASE_URL")
	_ = v.BindEnv("sink_key", "SINK_KEY", "SUPABASE_KEY")

	v.SetDefault("crm_url", "https://coelho.cvcrm.com.br/api/v1/cvdw/corretores")
	v.SetDefault("crm_email", "")
	v.SetDefault("crm_page_size", "500")
	v.SetDefault("crm_page_pause", "1s")
	v.SetDefault("crm_max_attempts", "3")
	v.SetDefault("crm_transport_retries", "3")
	v.SetDefault("crm_retry_wait_min", "1s")
	v.SetDefault("crm_retry_wait_max", "8s")
	v.SetDefault("crm_connect_timeout", "10s")
	v.SetDefault("crm_read_timeout", "30s")
	v.SetDefault("sink_driver", DriverPostgREST)
	v.SetDefault("sink_table", TabelaPadrao)
	v.SetDefault("sink_schema", "public")
	v.SetDefault("sink_conflict_key", models.ColunaIDCorretor)
	v.SetDefault("sink_batch_size", "50")
	v.SetDefault("sink_migrate", "false")
	v.SetDefault("sink_max_conns", "2")
	v.SetDefault("sink_via_bouncer", "false")
	v.SetDefault("kafka_broker", "")
	v.SetDefault("kafka_dead_letter_topic", "corretores_erros")
	v.SetDefault("otel_enabled", "false")
	v.SetDefault("tempo_endpoint", "localhost:4317")
	v.SetDefault("otel_service_name", "corretores-sync-app")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("pushgateway_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	l := &leitor{v: v}
	cfg := Config{
		CRM: CRMConfig{
			URL:              l.texto("crm_url"),
			Email:            l.texto("crm_email"),
			Token:            l.texto("api_token"),
			PageSize:         l.inteiro("crm_page_size"),
			PagePause:        l.duracao("crm_page_pause"),
			MaxAttempts:      l.inteiro("crm_max_attempts"),
			TransportRetries: l.inteiro("crm_transport_retries"),
			RetryWaitMin:     l.duracao("crm_retry_wait_min"),
			RetryWaitMax:     l.duracao("crm_retry_wait_max"),
			ConnectTimeout:   l.duracao("crm_connect_timeout"),
			ReadTimeout:      l.duracao("crm_read_timeout"),
		},
		Sink: SinkConfig{
			Driver:      strings.ToLower(l.texto("sink_driver")),
			URL:         l.texto("sink_url"),
			Key:         l.texto("sink_key"),
			Table:       l.texto("sink_table"),
			Schema:      l.texto("sink_schema"),
			ConflictKey: l.texto("sink_conflict_key"),
			BatchSize:   l.inteiro("sink_batch_size"),
			Migrate:     l.booleano("sink_migrate"),
			MaxConns:    l.inteiro("sink_max_conns"),
			ViaBouncer:  l.booleano("sink_via_bouncer"),
		},
		Kafka: KafkaConfig{
			Broker:          l.texto("kafka_broker"),
			DeadLetterTopic: l.texto("kafka_dead_letter_topic"),
		},
		Observability: ObservabilityConfig{
			TracingEnabled: l.booleano("otel_enabled"),
			TempoEndpoint:  l.texto("tempo_endpoint"),
			ServiceName:    l.texto("otel_service_name"),
			MetricsAddr:    l.texto("metrics_addr"),
			PushgatewayURL: l.texto("pushgateway_url"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(l.texto("log_level")),
			Format: strings.ToLower(l.texto("log_format")),
		},
	}
	if l.err != nil {
		return Config{}, l.err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// leitor converte os valores crus do viper e guarda o primeiro erro de conversão.
type leitor struct {
	v   *viper.Viper
	err error
}

func (l *leitor) falhar(chave, motivo string) {
	if l.err == nil {
		l.err = &ConfigError{Chave: strings.ToUpper(chave), Motivo: motivo}
	}
}

func (l *leitor) texto(chave string) string {
	return strings.TrimSpace(l.v.GetString(chave))
}

func (l *leitor) inteiro(chave string) int {
	raw := l.texto(chave)
	n, err := cast.ToIntE(raw)
	if err != nil {
		l.falhar(chave, fmt.Sprintf("número inválido %q", raw))
	}
	return n
}

// duracao exige unidade explícita: "30" seria lido como 30ns.
func (l *leitor) duracao(chave string) time.Duration {
	raw := l.texto(chave)
	if !strings.ContainsAny(raw, "nsuµmh") {
		l.falhar(chave, fmt.Sprintf("duração sem unidade %q (use por exemplo 30s)", raw))
		return 0
	}
	d, err := cast.ToDurationE(raw)
	if err != nil {
		l.falhar(chave, fmt.Sprintf("duração inválida %q", raw))
	}
	return d
}

func (l *leitor) booleano(chave string) bool {
	raw := l.texto(chave)
	b, err := cast.ToBoolE(raw)
	if err != nil {
		l.falhar(chave, fmt.Sprintf("booleano inválido %q", raw))
	}
	return b
}

func (c *Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"API_TOKEN", c.CRM.Token},
		{"SINK_URL", c.Sink.URL},
		{"SINK_KEY", c.Sink.Key},
	}
	for _, r := range required {
		if r.value == "" {
			return &ConfigError{Chave: r.key, Motivo: "variável obrigatória ausente"}
		}
	}

	switch c.Sink.Driver {
	case DriverPostgREST, DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return &ConfigError{Chave: "SINK_DRIVER", Motivo: fmt.Sprintf("driver desconhecido %q", c.Sink.Driver)}
	}
	if c.Sink.Table == "" {
		c.Sink.Table = TabelaPadrao
	}
	if c.Sink.Migrate && c.Sink.Driver == DriverPostgREST {
		return &ConfigError{Chave: "SINK_MIGRATE", Motivo: "migrações não se aplicam ao driver postgrest"}
	}
	if c.Sink.Migrate && c.Sink.Table != TabelaPadrao {
		return &ConfigError{Chave: "SINK_MIGRATE", Motivo: fmt.Sprintf("migrações só criam a tabela %s", TabelaPadrao)}
	}
	if c.Sink.ConflictKey == "" {
		c.Sink.ConflictKey = models.ColunaIDCorretor
	}
	if !slices.Contains(models.Colunas, c.Sink.ConflictKey) {
		return &ConfigError{Chave: "SINK_CONFLICT_KEY", Motivo: fmt.Sprintf("coluna desconhecida %q (aceitas: %s)", c.Sink.ConflictKey, strings.Join(models.Colunas, ", "))}
	}

	positivos := []struct {
		key   string
		value int64
	}{
		{"CRM_PAGE_SIZE", int64(c.CRM.PageSize)},
		{"CRM_MAX_ATTEMPTS", int64(c.CRM.MaxAttempts)},
		{"CRM_CONNECT_TIMEOUT", int64(c.CRM.ConnectTimeout)},
		{"CRM_READ_TIMEOUT", int64(c.CRM.ReadTimeout)},
		{"CRM_RETRY_WAIT_MIN", int64(c.CRM.RetryWaitMin)},
		{"CRM_RETRY_WAIT_MAX", int64(c.CRM.RetryWaitMax)},
		{"SINK_BATCH_SIZE", int64(c.Sink.BatchSize)},
		{"SINK_MAX_CONNS", int64(c.Sink.MaxConns)},
	}
	for _, p := range positivos {
		if p.value <= 0 {
			return &ConfigError{Chave: p.key, Motivo: "deve ser positivo"}
		}
	}
	if c.CRM.TransportRetries < 0 {
		return &ConfigError{Chave: "CRM_TRANSPORT_RETRIES", Motivo: "não pode ser negativo"}
	}
	if c.CRM.PagePause < 0 {
		return &ConfigError{Chave: "CRM_PAGE_PAUSE", Motivo: "não pode ser negativa"}
	}
	if c.CRM.RetryWaitMin > c.CRM.RetryWaitMax {
		return &ConfigError{Chave: "CRM_RETRY_WAIT_MIN", Motivo: "maior que CRM_RETRY_WAIT_MAX"}
	}

	if c.Sink.BatchSize > 1000 {
		c.Sink.BatchSize = 1000
	}
	if c.Kafka.DeadLetterTopic == "" {
		c.Kafka.DeadLetterTopic = "corretores_erros"
	}
	return nil
}
