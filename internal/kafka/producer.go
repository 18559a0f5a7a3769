package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Shopify/sarama"

	"corretores-sync-app/internal/models"
)

// NewSyncProducer conecta ao broker com confirmação de todas as réplicas.
func NewSyncProducer(broker string) (sarama.SyncProducer, error) {
	if broker == "" {
		broker = "localhost:9092"
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer([]string{broker}, config)
	if err != nil {
		return nil, fmt.Errorf("erro ao inicializar produtor Kafka: %w", err)
	}
	return producer, nil
}

// DeadLetterProducer publica os corretores que não puderam ser gravados nem individualmente.
type DeadLetterProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func NewDeadLetterProducer(producer sarama.SyncProducer, topic string, log *slog.Logger) *DeadLetterProducer {
	if log == nil {
		log = slog.Default()
	}
	return &DeadLetterProducer{producer: producer, topic: topic, log: log}
}

// Publicar envia o registro rejeitado com o idcorretor como chave da mensagem.
func (p *DeadLetterProducer) Publicar(ctx context.Context, rejeitado models.RegistroRejeitado) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	jsonData, err := json.Marshal(rejeitado)
	if err != nil {
		return fmt.Errorf("erro ao serializar registro rejeitado: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(rejeitado.IDCorretor),
		Value: sarama.ByteEncoder(jsonData),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("erro ao publicar em %s: %w", p.topic, err)
	}
	p.log.DebugContext(ctx, "📤 Registro rejeitado publicado",
		"topic", p.topic, "idcorretor", rejeitado.IDCorretor, "partition", partition, "offset", offset)
	return nil
}

func (p *DeadLetterProducer) Close() error {
	return p.producer.Close()
}
