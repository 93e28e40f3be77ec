package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	ctopics "github.com/radieske/opendota-tools/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução das ferramentas
// Inclui API upstream, sinks opcionais (Kafka/Redis) e portas
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string // ex: "ward-extractor", "replay-fetcher", "ward-service"

	// OpenDota
	OpenDotaBaseURL   string
	OpenDotaUserAgent string
	HTTPTimeout       time.Duration

	// Sinks opcionais: "kafka", "redis" ou ambos separados por vírgula
	Sinks        []string
	RedisAddr    string
	KafkaBrokers string // "a:9092,b:9092"

	// Tópicos/canais
	TopicWardEvents       string
	TopicReplayResolved   string
	ChannelWardEvents     string
	ChannelReplayResolved string

	// Portas do serviço atual
	HTTPPort    string // Porta pública (só ward-service)
	MetricsPort string // /metrics e /healthz; vazio desliga nas CLIs

	// Arquivo no formato textfile do node_exporter, escrito ao final das CLIs
	MetricsTextfile string
}

// Load carrega o .env (se existir), variáveis de ambiente e define defaults
// A porta de métricas só tem default para o ward-service
func Load(defaultService string) Config {
	_ = godotenv.Load()

	svc := getEnv("SERVICE_NAME", defaultService)

	cfg := Config{
		Env:         getEnv("ENV", "local"),
		ServiceName: svc,

		OpenDotaBaseURL:   strings.TrimRight(getEnv("OPENDOTA_BASE_URL", "https://api.opendota.com/api"), "/"),
		OpenDotaUserAgent: getEnv("OPENDOTA_USER_AGENT", "CnDotaPlan/1.0"),
		HTTPTimeout:       time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 60)) * time.Second,

		Sinks:        splitList(getEnv("SINKS", "")),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),

		TopicWardEvents:       getEnv("KAFKA_TOPIC_WARD_EVENTS", ctopics.WardEvents),
		TopicReplayResolved:   getEnv("KAFKA_TOPIC_REPLAY_RESOLVED", ctopics.ReplayResolved),
		ChannelWardEvents:     getEnv("REDIS_CHANNEL_WARD_EVENTS", ctopics.WardEventsBroadcast),
		ChannelReplayResolved: getEnv("REDIS_CHANNEL_REPLAY_RESOLVED", ctopics.ReplayResolvedBroadcast),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
	}

	switch svc {
	case "ward-service":
		cfg.HTTPPort = getEnv("HTTP_PORT", "8082")
		cfg.MetricsPort = getEnv("METRICS_PORT", "9095")
	default:
		cfg.HTTPPort = getEnv("HTTP_PORT", "")
		cfg.MetricsPort = getEnv("METRICS_PORT", "")
	}

	return cfg
}

// HasSink informa se o sink foi habilitado em SINKS
func (c Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
