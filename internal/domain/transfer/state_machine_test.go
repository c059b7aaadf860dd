package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/transfer"
)

func TestNext_CaminoConCorredor(t *testing.T) {
	tr := &entity.TransferRequest{ID: "t1", Status: entity.TransferStatusPending}
	path := []struct {
		cmd  transfer.Command
		want entity.TransferStatus
	}{
		{transfer.CommandAccept, entity.TransferStatusAccepted},
		{transfer.CommandAssignCourier, entity.TransferStatusCourierAssigned},
		{transfer.CommandConfirmPickup, entity.TransferStatusInTransit},
		{transfer.CommandReportFailure, entity.TransferStatusDeliveryFailed},
		{transfer.CommandRetryAfterFailure, entity.TransferStatusInTransit},
		{transfer.CommandConfirmDelivery, entity.TransferStatusDelivered},
		{transfer.CommandConfirmReception, entity.TransferStatusCompleted},
	}
	for _, step := range path {
		next, err := transfer.Next(tr, step.cmd)
		require.NoError(t, err, "comando %s desde %s", step.cmd, tr.Status)
		assert.Equal(t, step.want, next)
		tr.Status = next
	}
	assert.True(t, transfer.IsTerminal(tr.Status))
	assert.Equal(t, 100, transfer.ProgressPct(tr.Status))
}

func TestNext_RetiroPropio(t *testing.T) {
	tr := &entity.TransferRequest{ID: "t1", Status: entity.TransferStatusAccepted}
	next, err := transfer.Next(tr, transfer.CommandHandToRequester)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusInTransitSelf, next)

	tr.Status = next
	next, err = transfer.Next(tr, transfer.CommandConfirmReception)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, next)
}

func TestNext_ComandoIlegal(t *testing.T) {
	cases := []struct {
		from entity.TransferStatus
		cmd  transfer.Command
	}{
		{entity.TransferStatusPending, transfer.CommandConfirmPickup},
		{entity.TransferStatusCourierAssigned, transfer.CommandCancel},
		{entity.TransferStatusInTransit, transfer.CommandCancel},
		{entity.TransferStatusCompleted, transfer.CommandCancel},
		{entity.TransferStatusRejected, transfer.CommandAccept},
		{entity.TransferStatusAccepted, transfer.CommandExpireHold},
	}
	for _, tc := range cases {
		_, err := transfer.Next(&entity.TransferRequest{ID: "t1", Status: tc.from}, tc.cmd)
		require.Error(t, err, "%s desde %s", tc.cmd, tc.from)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

		var te *domain.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, string(tc.from), te.From)
	}
}

func TestAllowedCommands_Pending(t *testing.T) {
	cmds := transfer.AllowedCommands(entity.TransferStatusPending)
	assert.Equal(t, []transfer.Command{
		transfer.CommandAccept, transfer.CommandReject, transfer.CommandCancel, transfer.CommandExpireHold,
	}, cmds)
	assert.Empty(t, transfer.AllowedCommands(entity.TransferStatusCancelled))
}
