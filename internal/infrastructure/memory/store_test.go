package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/memory"
)

var key = entity.UnitKey{LocationID: "A", ProductID: "P", Size: "42", UnitType: entity.UnitTypePair}

func TestRun_ConfirmaEscriturasYHooks(t *testing.T) {
	ctx := context.Background()
	s := memory.New(time.Second)
	s.Seed("C1", key, 5, 0)

	hookRan := false
	err := s.Run(ctx, func(tx ports.Tx) error {
		rows, err := tx.Units().LockForUpdate(ctx, "C1", []entity.UnitKey{key})
		if err != nil {
			return err
		}
		u := rows[key]
		u.Quantity = 2
		tx.OnCommit(func() { hookRan = true })
		return tx.Units().Save(ctx, u)
	})
	require.NoError(t, err)

	u, err := s.Units().Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Quantity)
	assert.True(t, hookRan)
}

func TestRun_ErrorDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := memory.New(time.Second)
	s.Seed("C1", key, 5, 0)

	boom := errors.New("falla a mitad de comando")
	hookRan := false
	err := s.Run(ctx, func(tx ports.Tx) error {
		rows, err := tx.Units().LockForUpdate(ctx, "C1", []entity.UnitKey{key})
		if err != nil {
			return err
		}
		u := rows[key]
		u.Quantity = 0
		if err := tx.Units().Save(ctx, u); err != nil {
			return err
		}
		tx.OnCommit(func() { hookRan = true })
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, _ := s.Units().Get(ctx, key)
	assert.Equal(t, 5, u.Quantity, "las escrituras de una transacción fallida no se aplican")
	assert.False(t, hookRan)

	// el bloqueo quedó liberado
	require.NoError(t, s.Run(ctx, func(tx ports.Tx) error {
		_, err := tx.Units().LockForUpdate(ctx, "C1", []entity.UnitKey{key})
		return err
	}))
}

func TestLockForUpdate_TimeoutConOtraTransaccion(t *testing.T) {
	ctx := context.Background()
	s := memory.New(50 * time.Millisecond)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(tx ports.Tx) error {
			if _, err := tx.Units().LockForUpdate(ctx, "C1", []entity.UnitKey{key}); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err := s.Run(ctx, func(tx ports.Tx) error {
		_, err := tx.Units().LockForUpdate(ctx, "C1", []entity.UnitKey{key})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	close(release)
	require.NoError(t, <-done)
}

func TestLockForUpdate_FueraDeTransaccion(t *testing.T) {
	s := memory.New(0)
	_, err := s.Units().LockForUpdate(context.Background(), "C1", []entity.UnitKey{key})
	assert.Error(t, err)
}

func TestTransfers_UpdateConVersionObsoleta(t *testing.T) {
	ctx := context.Background()
	s := memory.New(time.Second)
	tr := &entity.TransferRequest{ID: "t1", CompanyID: "C1", Status: entity.TransferStatusPending}
	require.NoError(t, s.Transfers().Create(ctx, tr))

	stale := *tr
	require.NoError(t, s.Run(ctx, func(tx ports.Tx) error {
		cur, err := tx.Transfers().GetForUpdate(ctx, "t1")
		if err != nil {
			return err
		}
		cur.Status = entity.TransferStatusAccepted
		return tx.Transfers().Update(ctx, cur)
	}))

	err := s.Run(ctx, func(tx ports.Tx) error {
		if _, err := tx.Transfers().GetForUpdate(ctx, "t1"); err != nil {
			return err
		}
		stale.Status = entity.TransferStatusRejected
		return tx.Transfers().Update(ctx, &stale)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.Transfers().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusAccepted, got.Status)
}
