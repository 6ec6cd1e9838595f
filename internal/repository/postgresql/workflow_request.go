package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workflowRequestRepositoryImpl struct {
	db *database.DB
}

func NewWorkflowRequestRepository(db *database.DB) workflow.RequestRepository {
	return &workflowRequestRepositoryImpl{db: db}
}

const requestColumns = `r.id, r.organization_id, r.definition_id, r.workflow_type, r.subject_id, r.requester_id,
	r.status, r.version, r.step_orders, r.submitted_at, r.completed_at, r.updated_at`

func scanRequest(row pgx.Row) (workflow.Request, error) {
	var (
		req     workflow.Request
		reqType string
		status  string
		orders  []int32
	)
	err := row.Scan(
		&req.ID, &req.OrganizationID, &req.DefinitionID, &reqType, &req.SubjectID, &req.RequesterID,
		&status, &req.Version, &orders, &req.SubmittedAt, &req.CompletedAt, &req.UpdatedAt,
	)
	req.Type = workflow.Type(reqType)
	req.Status = workflow.Status(status)
	req.StepOrders = make([]int, 0, len(orders))
	for _, o := range orders {
		req.StepOrders = append(req.StepOrders, int(o))
	}
	return req, err
}

// currentStepParam is NULL once the request has no current step
func currentStepParam(req workflow.Request) *int {
	if order, ok := req.CurrentStep(); ok {
		return &order
	}
	return nil
}

// Create implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) Create(ctx context.Context, req workflow.Request) (workflow.Request, error) {
	q := GetQuerier(ctx, r.db)

	orders := make([]int32, 0, len(req.StepOrders))
	for _, o := range req.StepOrders {
		orders = append(orders, int32(o))
	}

	query := `
		INSERT INTO workflow_requests AS r (
			id, organization_id, definition_id, workflow_type, subject_id, requester_id,
			status, version, step_orders, current_step, submitted_at, updated_at
		) VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING ` + requestColumns

	submittedAt := req.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	created, err := scanRequest(q.QueryRow(ctx, query,
		req.ID, req.OrganizationID, req.DefinitionID, string(req.Type), req.SubjectID, req.RequesterID,
		string(req.Status), req.Version, orders, currentStepParam(req), submittedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.Request{}, fmt.Errorf("%s %s already has a workflow request: %w", req.Type, req.SubjectID, apperror.ErrConflict)
		}
		return workflow.Request{}, fmt.Errorf("failed to create workflow request: %w", err)
	}
	return created, nil
}

// GetByID implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) GetByID(ctx context.Context, id string, organizationID string) (workflow.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + requestColumns + ` FROM workflow_requests r WHERE r.id = $1 AND r.organization_id = $2`

	req, err := scanRequest(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if isNoRows(err) {
			return workflow.Request{}, workflow.ErrRequestNotFound
		}
		return workflow.Request{}, fmt.Errorf("failed to get workflow request: %w", err)
	}

	actions, err := r.listActions(ctx, []string{req.ID})
	if err != nil {
		return workflow.Request{}, err
	}
	req.Actions = actions[req.ID]

	return req, nil
}

// CompareAndSwap implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) CompareAndSwap(ctx context.Context, req workflow.Request, expectedVersion int, action workflow.Action) error {
	q := GetQuerier(ctx, r.db)

	query := `
		-- QUERY: CompareAndSwapWorkflowRequest
		UPDATE workflow_requests
		SET status = $3, version = $4, current_step = $5, completed_at = $6, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING' AND version = $2
	`

	tag, err := q.Exec(ctx, query, req.ID, expectedVersion, string(req.Status), req.Version, currentStepParam(req), req.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update workflow request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrVersionMismatch
	}

	actionQuery := `
		INSERT INTO workflow_actions (id, request_id, step_order, actor_id, decision, comment, acted_at)
		VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
	`
	_, err = q.Exec(ctx, actionQuery,
		action.ID, req.ID, action.StepOrder, action.ActorID, string(action.Decision), action.Comment, action.ActedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.ErrStepAlreadyActed
		}
		return fmt.Errorf("failed to record workflow action: %w", err)
	}

	return nil
}

// Touch implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) Touch(ctx context.Context, id string, expectedVersion int) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE workflow_requests
		SET version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING' AND version = $2
	`

	tag, err := q.Exec(ctx, query, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to touch workflow request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrVersionMismatch
	}
	return nil
}

// Delete implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) Delete(ctx context.Context, id string, organizationID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM workflow_requests WHERE id = $1 AND organization_id = $2 AND status = 'PENDING'`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow request: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workflow_requests WHERE id = $1 AND organization_id = $2)`, id, organizationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check workflow request: %w", err)
	}
	if exists {
		return workflow.ErrRequestNotPending
	}
	return workflow.ErrRequestNotFound
}

// ListPendingForApprover implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) ListPendingForApprover(ctx context.Context, organizationID string, approverID string) ([]workflow.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		-- QUERY: ListPendingForApprover
		SELECT ` + requestColumns + `
		FROM workflow_requests r
		INNER JOIN workflow_steps s ON s.definition_id = r.definition_id AND s.step_order = r.current_step
		INNER JOIN workflow_step_assignments a ON a.step_id = s.id AND a.is_active
		WHERE r.organization_id = $1 AND r.status = 'PENDING' AND a.approver_id = $2
		ORDER BY r.submitted_at ASC
	`

	rows, err := q.Query(ctx, query, organizationID, approverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending workflow requests: %w", err)
	}
	defer rows.Close()

	var requests []workflow.Request
	var ids []string
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow request: %w", err)
		}
		requests = append(requests, req)
		ids = append(ids, req.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return requests, nil
	}

	actions, err := r.listActions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		requests[i].Actions = actions[requests[i].ID]
	}

	return requests, nil
}

func (r *workflowRequestRepositoryImpl) listActions(ctx context.Context, requestIDs []string) (map[string][]workflow.Action, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_id, step_order, actor_id, decision, comment, acted_at
		FROM workflow_actions
		WHERE request_id = ANY($1::uuid[])
		ORDER BY request_id, step_order ASC
	`

	rows, err := q.Query(ctx, query, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow actions: %w", err)
	}
	defer rows.Close()

	actions := make(map[string][]workflow.Action, len(requestIDs))
	for rows.Next() {
		var a workflow.Action
		var decision string
		if err := rows.Scan(&a.ID, &a.RequestID, &a.StepOrder, &a.ActorID, &decision, &a.Comment, &a.ActedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workflow action: %w", err)
		}
		a.Decision = workflow.Decision(decision)
		actions[a.RequestID] = append(actions[a.RequestID], a)
	}

	return actions, rows.Err()
}

// ========================================
// TRANSITION EVENTS
// ========================================

// AppendEvent implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) AppendEvent(ctx context.Context, event workflow.TransitionEvent) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO workflow_transition_events (
			id, request_id, organization_id, from_state, to_state, acting_approver_id,
			step_order, next_step_order, occurred_at
		) VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var next *int
	if event.NextStepOrder > 0 {
		next = &event.NextStepOrder
	}
	occurredAt := event.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	_, err := q.Exec(ctx, query,
		event.ID, event.RequestID, event.OrganizationID, string(event.FromState), string(event.ToState),
		event.ActingApproverID, event.StepOrder, next, occurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append transition event: %w", err)
	}
	return nil
}

// ListEvents implements workflow.RequestRepository.
func (r *workflowRequestRepositoryImpl) ListEvents(ctx context.Context, requestID string) ([]workflow.TransitionEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_id, organization_id, from_state, to_state, acting_approver_id,
			step_order, COALESCE(next_step_order, 0), occurred_at
		FROM workflow_transition_events
		WHERE request_id = $1
		ORDER BY occurred_at ASC, step_order ASC
	`

	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transition events: %w", err)
	}
	defer rows.Close()

	var events []workflow.TransitionEvent
	for rows.Next() {
		var (
			e        workflow.TransitionEvent
			from, to string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.OrganizationID, &from, &to, &e.ActingApproverID,
			&e.StepOrder, &e.NextStepOrder, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transition event: %w", err)
		}
		e.FromState = workflow.Status(from)
		e.ToState = workflow.Status(to)
		events = append(events, e)
	}

	return events, rows.Err()
}
