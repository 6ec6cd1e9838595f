package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDefinition creates a two step definition with one approver per step
func seedDefinition(t *testing.T, db *database.DB, department *string, approvers ...string) workflow.Definition {
	t.Helper()
	ctx := context.Background()
	repo := postgresql.NewWorkflowDefinitionRepository(db)

	def, err := repo.Create(ctx, workflow.Definition{
		OrganizationID: testOrg,
		Name:           "Timeslip approval",
		Type:           workflow.TypeTimeslip,
		Department:     department,
	})
	require.NoError(t, err)

	for i, approver := range approvers {
		step, err := repo.CreateStep(ctx, workflow.Step{DefinitionID: def.ID, StepOrder: i + 1, Name: "Step"})
		require.NoError(t, err)
		_, err = repo.CreateAssignment(ctx, workflow.Assignment{StepID: step.ID, ApproverID: approver, AssignedBy: "admin"})
		require.NoError(t, err)
	}

	def, err = repo.GetByID(ctx, def.ID, testOrg)
	require.NoError(t, err)
	return def
}

func TestWorkflowDefinitionRepository_FindForSubjectPrefersDepartment(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewWorkflowDefinitionRepository(db)
	ctx := context.Background()
	mgr := seedEmployee(t, db, "M001", nil)

	dept := "Engineering"
	general := seedDefinition(t, db, nil, mgr)
	scoped := seedDefinition(t, db, &dept, mgr)

	found, err := repo.FindForSubject(ctx, testOrg, workflow.TypeTimeslip, &dept)
	require.NoError(t, err)
	assert.Equal(t, scoped.ID, found.ID)

	sales := "Sales"
	found, err = repo.FindForSubject(ctx, testOrg, workflow.TypeTimeslip, &sales)
	require.NoError(t, err)
	assert.Equal(t, general.ID, found.ID)

	_, err = repo.FindForSubject(ctx, testOrg, workflow.TypeLeave, nil)
	assert.ErrorIs(t, err, workflow.ErrNoMatchingWorkflow)

	_, err = repo.Create(ctx, workflow.Definition{OrganizationID: testOrg, Name: "dup", Type: workflow.TypeTimeslip})
	assert.ErrorIs(t, err, workflow.ErrDefinitionConflict)
}

func TestWorkflowDefinitionRepository_Reassignment(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewWorkflowDefinitionRepository(db)
	ctx := context.Background()
	first := seedEmployee(t, db, "M001", nil)
	second := seedEmployee(t, db, "M002", nil)

	def := seedDefinition(t, db, nil, first)
	stepID := def.Steps[0].ID

	_, err := repo.CreateStep(ctx, workflow.Step{DefinitionID: def.ID, StepOrder: 1, Name: "again"})
	assert.ErrorIs(t, err, workflow.ErrStepOrderExists)

	require.NoError(t, repo.DeactivateAssignments(ctx, stepID))
	_, err = repo.CreateAssignment(ctx, workflow.Assignment{StepID: stepID, ApproverID: second, AssignedBy: "admin"})
	require.NoError(t, err)

	step, err := repo.GetStep(ctx, stepID, testOrg)
	require.NoError(t, err)
	require.NotNil(t, step.Approver)
	assert.Equal(t, second, step.Approver.ApproverID)

	history, err := repo.ListAssignments(ctx, stepID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestWorkflowRequestRepository_CompareAndSwap(t *testing.T) {
	db := newTestDB(t)
	defRepo := postgresql.NewWorkflowDefinitionRepository(db)
	repo := postgresql.NewWorkflowRequestRepository(db)
	ctx := context.Background()

	requester := seedEmployee(t, db, "E001", nil)
	mgr1 := seedEmployee(t, db, "M001", nil)
	mgr2 := seedEmployee(t, db, "M002", nil)
	def := seedDefinition(t, db, nil, mgr1, mgr2)

	req, err := repo.Create(ctx, workflow.Request{
		ID:             uuid.NewString(),
		OrganizationID: testOrg,
		DefinitionID:   def.ID,
		Type:           workflow.TypeTimeslip,
		SubjectID:      uuid.NewString(),
		RequesterID:    requester,
		Status:         workflow.StatusPending,
		Version:        1,
		StepOrders:     []int{1, 2},
		SubmittedAt:    time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, req.StepOrders)

	referenced, err := defRepo.IsReferenced(ctx, def.ID)
	require.NoError(t, err)
	assert.True(t, referenced)

	pending, err := repo.ListPendingForApprover(ctx, testOrg, mgr1)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	action := workflow.Action{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		StepOrder: 1,
		ActorID:   mgr1,
		Decision:  workflow.DecisionApprove,
		ActedAt:   time.Now(),
	}
	next := req
	next.Version = 2
	next.Actions = []workflow.Action{action}
	require.NoError(t, repo.CompareAndSwap(ctx, next, 1, action))

	// the loser still holds version 1
	assert.ErrorIs(t, repo.CompareAndSwap(ctx, next, 1, action), workflow.ErrVersionMismatch)

	stored, err := repo.GetByID(ctx, req.ID, testOrg)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	require.Len(t, stored.Actions, 1)
	current, ok := stored.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, 2, current)

	pending, err = repo.ListPendingForApprover(ctx, testOrg, mgr1)
	require.NoError(t, err)
	assert.Empty(t, pending)
	pending, err = repo.ListPendingForApprover(ctx, testOrg, mgr2)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, repo.AppendEvent(ctx, workflow.TransitionEvent{
		RequestID:        req.ID,
		OrganizationID:   testOrg,
		FromState:        workflow.StatusPending,
		ToState:          workflow.StatusPending,
		ActingApproverID: mgr1,
		StepOrder:        1,
		NextStepOrder:    2,
		Timestamp:        time.Now(),
	}))
	events, err := repo.ListEvents(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].NextStepOrder)
}

func TestWorkflowRequestRepository_DeleteOnlyPending(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewWorkflowRequestRepository(db)
	ctx := context.Background()

	requester := seedEmployee(t, db, "E001", nil)
	mgr := seedEmployee(t, db, "M001", nil)
	def := seedDefinition(t, db, nil, mgr)

	now := time.Now()
	req, err := repo.Create(ctx, workflow.Request{
		OrganizationID: testOrg,
		DefinitionID:   def.ID,
		Type:           workflow.TypeTimeslip,
		SubjectID:      uuid.NewString(),
		RequesterID:    requester,
		Status:         workflow.StatusPending,
		Version:        1,
		StepOrders:     []int{1},
		SubmittedAt:    now,
	})
	require.NoError(t, err)

	action := workflow.Action{StepOrder: 1, ActorID: mgr, Decision: workflow.DecisionApprove, ActedAt: now}
	done := req
	done.Status = workflow.StatusApproved
	done.Version = 2
	done.CompletedAt = &now
	done.Actions = []workflow.Action{action}
	require.NoError(t, repo.CompareAndSwap(ctx, done, 1, action))

	assert.ErrorIs(t, repo.Delete(ctx, req.ID, testOrg), workflow.ErrRequestNotPending)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.NewString(), testOrg), workflow.ErrRequestNotFound)
	assert.ErrorIs(t, repo.Touch(ctx, req.ID, 2), workflow.ErrVersionMismatch)
}
