package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/radieske/opendota-tools/internal/shared/config"
)

// Publisher entrega um payload já serializado a um destino externo
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Multi repassa cada publicação a todos os publishers configurados
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, key string, payload []byte) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, key, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializa v e publica com a chave informada
func PublishJSON(ctx context.Context, p Publisher, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return p.Publish(ctx, key, b)
}

// Target nomeia o tópico Kafka e o canal Redis de um tipo de evento
type Target struct {
	Topic   string
	Channel string
}

// sinks suportados em SINKS
var knownSinks = []string{"kafka", "redis"}

// Build monta os publishers habilitados em cfg.Sinks. Sem sinks, retorna Multi vazio.
// Sink desconhecido ou indisponível é logado e ignorado: o stdout continua sendo o contrato.
func Build(ctx context.Context, cfg config.Config, t Target, log *zap.Logger) Multi {
	for _, name := range cfg.Sinks {
		if !slices.Contains(knownSinks, name) {
			log.Warn("unknown sink ignored", zap.String("sink", name))
		}
	}

	var out Multi
	if cfg.HasSink("kafka") {
		out = append(out, NewKafkaPublisher(cfg.KafkaBrokers, t.Topic, cfg.Env, log))
		log.Info("kafka sink enabled", zap.String("topic", t.Topic))
	}
	if cfg.HasSink("redis") {
		p, err := NewRedisPublisher(ctx, cfg.RedisAddr, t.Channel)
		if err != nil {
			log.Warn("redis sink disabled", zap.Error(err))
		} else {
			out = append(out, p)
			log.Info("redis sink enabled", zap.String("channel", t.Channel))
		}
	}
	return out
}
