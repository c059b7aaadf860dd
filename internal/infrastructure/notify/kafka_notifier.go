package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

var _ ports.Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier publica los eventos en un tópico. El writer es asíncrono: Publish nunca
// espera al broker y los fallos se registran en Completion.
type KafkaNotifier struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// KafkaConfig conexión al broker.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaNotifier construye el publicador. La clave del mensaje es el id de la solicitud,
// así los eventos de una misma solicitud conservan su orden dentro de la partición.
func NewKafkaNotifier(cfg KafkaConfig, log *logger.Logger) *KafkaNotifier {
	n := &KafkaNotifier{log: log}
	n.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error().Err(err).Int("messages", len(messages)).Msg("publicar eventos en Kafka")
			}
		},
	}
	return n
}

// Publish serializa el evento y lo encola en el writer.
func (n *KafkaNotifier) Publish(ctx context.Context, ev ports.Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		n.log.Error().Err(err).Str("event", ev.Type).Msg("serializar evento")
		return
	}
	key := ev.TransferID
	if key == "" {
		key = ev.CompanyID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.log.Error().Err(err).Str("event", ev.Type).Str("transfer_id", ev.TransferID).Msg("encolar evento en Kafka")
	}
}

// Close vacía el buffer y cierra las conexiones.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
