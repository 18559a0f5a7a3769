package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corretores-sync-app/internal/logging"
	"corretores-sync-app/internal/models"
)

func rejeitado() models.RegistroRejeitado {
	id := "27"
	return models.RegistroRejeitado{
		IDCorretor: id,
		Tabela:     "d_Corretores",
		Payload:    models.Corretor{IDCorretor: &id},
		Motivo:     "destino rejeitou 1 registro(s): violação de restrição",
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, config)
}

func TestPublicarEnviaJSONDoRegistro(t *testing.T) {
	mock := newMockProducer(t)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got models.RegistroRejeitado
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.IDCorretor != "27" || got.Tabela != "d_Corretores" {
			return errors.New("registro inesperado")
		}
		return nil
	})

	p := NewDeadLetterProducer(mock, "corretores.rejeitados", logging.Discard())
	require.NoError(t, p.Publicar(context.Background(), rejeitado()))
	require.NoError(t, p.Close())
}

func TestPublicarPropagaErroDoBroker(t *testing.T) {
	mock := newMockProducer(t)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewDeadLetterProducer(mock, "corretores.rejeitados", logging.Discard())
	err := p.Publicar(context.Background(), rejeitado())
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Contains(t, err.Error(), "corretores.rejeitados")
	require.NoError(t, p.Close())
}

func TestPublicarContextoCancelado(t *testing.T) {
	mock := newMockProducer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewDeadLetterProducer(mock, "corretores.rejeitados", nil)
	require.ErrorIs(t, p.Publicar(ctx, rejeitado()), context.Canceled)
	require.NoError(t, p.Close())
}
