package workshop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lewa-workshop/internal/database/models"
)

func TestAssignPendingCard(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	mechanic := createMechanic(t, db, "juma")
	advisor := createUser(t, db, "amina", models.RoleServiceAdvisor, true)
	card := createCard(t, db, models.StatusPending)

	got, err := ws.Assign(ctx, AssignCommand{
		JobCardID:  card.ID,
		MechanicID: mechanic.ID,
		ActorID:    advisor.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAssigned, got.Status)
	require.NotNil(t, got.AssignedToMechanicID)
	assert.Equal(t, mechanic.ID, *got.AssignedToMechanicID)
	assert.NotNil(t, got.AssignedAt)

	var history []models.AssignmentHistory
	require.NoError(t, db.Where("job_card_id = ?", card.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, mechanic.ID, history[0].MechanicID)
	assert.Equal(t, advisor.ID, history[0].AssignedByID)
}

func TestReassignAppendsHistory(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	first := createMechanic(t, db, "juma")
	second := createMechanic(t, db, "otieno")
	card := createCard(t, db, models.StatusPending)

	_, err := ws.Assign(ctx, AssignCommand{JobCardID: card.ID, MechanicID: first.ID, ActorID: 1})
	require.NoError(t, err)

	got, err := ws.Assign(ctx, AssignCommand{JobCardID: card.ID, MechanicID: second.ID, ActorID: 1})
	require.NoError(t, err)
	assert.Equal(t, second.ID, *got.AssignedToMechanicID)

	// History is append-only: both assignments remain.
	var count int64
	require.NoError(t, db.Model(&models.AssignmentHistory{}).Where("job_card_id = ?", card.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAssignRefusedOutsideReassignableStatuses(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()
	mechanic := createMechanic(t, db, "juma")

	for _, status := range []models.JobStatus{
		models.StatusInProgress,
		models.StatusOnHold,
		models.StatusAssessmentRequested,
		models.StatusCompleted,
		models.StatusInvoiced,
	} {
		card := createCard(t, db, status)
		_, err := ws.Assign(ctx, AssignCommand{JobCardID: card.ID, MechanicID: mechanic.ID, ActorID: 1})
		assert.ErrorIs(t, err, ErrIllegalTransition, "status %s", status)
		assert.Equal(t, status, cardStatus(t, db, card.ID), "status %s must be untouched", status)
	}
}

func TestAssignRejectsNonMechanic(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	advisor := createUser(t, db, "amina", models.RoleServiceAdvisor, true)
	inactive := createUser(t, db, "ghost", models.RoleMechanic, false)
	card := createCard(t, db, models.StatusPending)

	_, err := ws.Assign(ctx, AssignCommand{JobCardID: card.ID, MechanicID: advisor.ID, ActorID: 1})
	assert.ErrorIs(t, err, ErrInvalidMechanic)

	_, err = ws.Assign(ctx, AssignCommand{JobCardID: card.ID, MechanicID: inactive.ID, ActorID: 1})
	assert.ErrorIs(t, err, ErrInvalidMechanic)

	_, err = ws.Assign(ctx, AssignCommand{JobCardID: card.ID, MechanicID: 99999, ActorID: 1})
	assert.ErrorIs(t, err, ErrInvalidMechanic)

	// A failed assignment leaves no history and no status change.
	var count int64
	require.NoError(t, db.Model(&models.AssignmentHistory{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, models.StatusPending, cardStatus(t, db, card.ID))
}

func TestAssignMissingCard(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	mechanic := createMechanic(t, db, "juma")

	_, err := ws.Assign(context.Background(), AssignCommand{JobCardID: 4242, MechanicID: mechanic.ID, ActorID: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignWithPartsDeductsSelectedOnly(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	mechanic := createMechanic(t, db, "juma")
	pads := createItem(t, db, "brake-pads", 5, "10.00")
	filter := createItem(t, db, "oil-filter", 3, "7.50")
	card := createCard(t, db, models.StatusPending)

	labor := "50.00"
	got, err := ws.AssignWithParts(ctx, AssignWithPartsCommand{
		JobCardID:  card.ID,
		MechanicID: mechanic.ID,
		ActorID:    1,
		LaborCost:  &labor,
		Parts: []PartLine{
			{ItemID: pads.ID, Quantity: 2, Selected: true},
			{ItemID: filter.ID, Quantity: 1, Selected: false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAssigned, got.Status)
	require.NotNil(t, got.LaborCost)
	assert.Equal(t, "50.00", *got.LaborCost)

	assert.EqualValues(t, 3, itemQuantity(t, db, pads.ID))
	assert.EqualValues(t, 3, itemQuantity(t, db, filter.ID), "unselected line must not deduct")

	var usages []models.PartUsage
	require.NoError(t, db.Where("job_card_id = ?", card.ID).Find(&usages).Error)
	require.Len(t, usages, 1)
	assert.Equal(t, pads.ID, usages[0].ItemID)
	assert.EqualValues(t, 2, usages[0].QuantityUsed)
}

func TestAssignWithPartsAllOrNothing(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	mechanic := createMechanic(t, db, "juma")
	pads := createItem(t, db, "brake-pads", 5, "10.00")
	coolant := createItem(t, db, "coolant", 1, "12.00")
	card := createCard(t, db, models.StatusPending)

	_, err := ws.AssignWithParts(ctx, AssignWithPartsCommand{
		JobCardID:  card.ID,
		MechanicID: mechanic.ID,
		ActorID:    1,
		Parts: []PartLine{
			{ItemID: pads.ID, Quantity: 2, Selected: true},
			{ItemID: coolant.ID, Quantity: 4, Selected: true},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The first line's deduction must have rolled back with the rest.
	assert.EqualValues(t, 5, itemQuantity(t, db, pads.ID))
	assert.EqualValues(t, 1, itemQuantity(t, db, coolant.ID))
	assert.Equal(t, models.StatusPending, cardStatus(t, db, card.ID))

	var count int64
	require.NoError(t, db.Model(&models.PartUsage{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.AssignmentHistory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAssignWithPartsValidation(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	mechanic := createMechanic(t, db, "juma")
	pads := createItem(t, db, "brake-pads", 5, "10.00")
	card := createCard(t, db, models.StatusPending)

	badLabor := "-3.00"
	_, err := ws.AssignWithParts(ctx, AssignWithPartsCommand{
		JobCardID: card.ID, MechanicID: mechanic.ID, ActorID: 1, LaborCost: &badLabor,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ws.AssignWithParts(ctx, AssignWithPartsCommand{
		JobCardID: card.ID, MechanicID: mechanic.ID, ActorID: 1,
		Parts: []PartLine{{ItemID: pads.ID, Quantity: 0, Selected: true}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteFromWorkingStatuses(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	for _, status := range []models.JobStatus{
		models.StatusPending,
		models.StatusAssigned,
		models.StatusInProgress,
		models.StatusWaitingForParts,
		models.StatusOnHold,
	} {
		card := createCard(t, db, status)
		got, err := ws.Complete(ctx, CompleteCommand{JobCardID: card.ID, ActorID: 1})
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, models.StatusCompleted, got.Status)
		assert.NotNil(t, got.CompletedAt)
	}

	for _, status := range []models.JobStatus{models.StatusCompleted, models.StatusInvoiced} {
		card := createCard(t, db, status)
		_, err := ws.Complete(ctx, CompleteCommand{JobCardID: card.ID, ActorID: 1})
		assert.ErrorIs(t, err, ErrIllegalTransition, "status %s", status)
	}
}

func TestUpdateStatusCannotMintCompletedOrInvoiced(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	// completed carries a completed_at stamp, so the generic update must
	// not produce it.
	working := createCard(t, db, models.StatusInProgress)
	_, err := ws.UpdateStatus(ctx, UpdateStatusCommand{JobCardID: working.ID, Status: models.StatusCompleted, ActorID: 1})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, models.StatusInProgress, cardStatus(t, db, working.ID))

	// invoiced implies an invoice row exists, so only billing may set it.
	done := createCard(t, db, models.StatusCompleted)
	_, err = ws.UpdateStatus(ctx, UpdateStatusCommand{JobCardID: done.ID, Status: models.StatusInvoiced, ActorID: 1})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, models.StatusCompleted, cardStatus(t, db, done.ID))

	var count int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)

	// The card stays invoiceable through the billing path.
	invoice, err := ws.GenerateInvoice(ctx, GenerateInvoiceCommand{JobCardID: done.ID, LaborCost: "10.00", ActorID: 1})
	require.NoError(t, err)
	assert.Equal(t, "10.00", invoice.TotalAmount)
	assert.Equal(t, models.StatusInvoiced, cardStatus(t, db, done.ID))
}

func TestUpdateStatusFollowsTable(t *testing.T) {
	db := setupDB(t)
	ws := New(db)
	ctx := context.Background()

	card := createCard(t, db, models.StatusAssigned)
	got, err := ws.UpdateStatus(ctx, UpdateStatusCommand{JobCardID: card.ID, Status: models.StatusInProgress, ActorID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)

	_, err = ws.UpdateStatus(ctx, UpdateStatusCommand{JobCardID: card.ID, Status: models.StatusPending, ActorID: 1})
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = ws.UpdateStatus(ctx, UpdateStatusCommand{JobCardID: card.ID, Status: "scrapped", ActorID: 1})
	assert.ErrorIs(t, err, ErrValidation)
}
