package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/notify"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

type sink struct {
	mu  sync.Mutex
	got []ports.Event
}

func (s *sink) Publish(_ context.Context, ev ports.Event) {
	s.mu.Lock()
	s.got = append(s.got, ev)
	s.mu.Unlock()
}

func TestFanout_EntregaATodosLosSumideros(t *testing.T) {
	a, b := &sink{}, &sink{}
	f := notify.NewFanout(a, nil, b)

	ev := ports.Event{Type: ports.EventTransferAccepted, TransferID: "t-1"}
	f.Publish(context.Background(), ev)

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	assert.Equal(t, "t-1", a.got[0].TransferID)
	assert.Equal(t, ports.EventTransferAccepted, b.got[0].Type)
}

func TestFanout_SinSumiderosNoFalla(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.NewFanout().Publish(context.Background(), ports.Event{Type: ports.EventHoldExpired})
	})
}

func TestLogNotifier_EscribeCamposDelEvento(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewLogNotifier(logger.FromZerolog(zerolog.New(&buf)))

	n.Publish(context.Background(), ports.Event{
		Type:       ports.EventPairsFormed,
		CompanyID:  "empresa-1",
		TransferID: "t-9",
		Recipients: []string{"u1", "u2"},
		Data:       map[string]string{"formed": "2"},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, ports.EventPairsFormed, line["event"])
	assert.Equal(t, "t-9", line["transfer_id"])
	assert.Equal(t, "u1,u2", line["recipients"])
	assert.Equal(t, "2", line["formed"])
	assert.Equal(t, "info", line["level"])
}
