package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workflowDefinitionRepositoryImpl struct {
	db *database.DB
}

func NewWorkflowDefinitionRepository(db *database.DB) workflow.DefinitionRepository {
	return &workflowDefinitionRepositoryImpl{db: db}
}

const definitionColumns = `id, organization_id, name, workflow_type, department, created_at, updated_at`

func scanDefinition(row pgx.Row) (workflow.Definition, error) {
	var (
		d       workflow.Definition
		defType string
	)
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Name, &defType, &d.Department, &d.CreatedAt, &d.UpdatedAt)
	d.Type = workflow.Type(defType)
	return d, err
}

// stepSelect joins each step with its active assignment, if any
const stepSelect = `
	SELECT s.id, s.definition_id, s.step_order, s.name, s.condition,
		a.id, a.approver_id, a.assigned_by, a.assigned_at
	FROM workflow_steps s
	LEFT JOIN workflow_step_assignments a ON a.step_id = s.id AND a.is_active
`

func scanStep(row pgx.Row) (workflow.Step, error) {
	var (
		s          workflow.Step
		assignID   *string
		approverID *string
		assignedBy *string
		assignedAt *time.Time
	)
	if err := row.Scan(&s.ID, &s.DefinitionID, &s.StepOrder, &s.Name, &s.Condition,
		&assignID, &approverID, &assignedBy, &assignedAt); err != nil {
		return workflow.Step{}, err
	}
	if assignID != nil && approverID != nil {
		a := workflow.Assignment{
			ID:         *assignID,
			StepID:     s.ID,
			ApproverID: *approverID,
			IsActive:   true,
		}
		if assignedBy != nil {
			a.AssignedBy = *assignedBy
		}
		if assignedAt != nil {
			a.AssignedAt = *assignedAt
		}
		s.Approver = &a
	}
	return s, nil
}

// ========================================
// DEFINITIONS
// ========================================

// Create implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) Create(ctx context.Context, def workflow.Definition) (workflow.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO workflow_definitions (id, organization_id, name, workflow_type, department, created_at, updated_at)
		VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + definitionColumns

	created, err := scanDefinition(q.QueryRow(ctx, query, def.ID, def.OrganizationID, def.Name, string(def.Type), def.Department))
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.Definition{}, workflow.ErrDefinitionConflict
		}
		return workflow.Definition{}, fmt.Errorf("failed to create workflow definition: %w", err)
	}
	return created, nil
}

// GetByID implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) GetByID(ctx context.Context, id string, organizationID string) (workflow.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + definitionColumns + ` FROM workflow_definitions WHERE id = $1 AND organization_id = $2`

	def, err := scanDefinition(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if isNoRows(err) {
			return workflow.Definition{}, workflow.ErrDefinitionNotFound
		}
		return workflow.Definition{}, fmt.Errorf("failed to get workflow definition: %w", err)
	}

	steps, err := r.listSteps(ctx, []string{def.ID})
	if err != nil {
		return workflow.Definition{}, err
	}
	def.Steps = steps[def.ID]

	return def, nil
}

// List implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) List(ctx context.Context, organizationID string) ([]workflow.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + definitionColumns + `
		FROM workflow_definitions
		WHERE organization_id = $1
		ORDER BY workflow_type ASC, department ASC NULLS FIRST, name ASC
	`

	rows, err := q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow definitions: %w", err)
	}
	defer rows.Close()

	var defs []workflow.Definition
	var ids []string
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow definition: %w", err)
		}
		defs = append(defs, d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return defs, nil
	}

	steps, err := r.listSteps(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		defs[i].Steps = steps[defs[i].ID]
	}

	return defs, nil
}

// FindForSubject implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) FindForSubject(ctx context.Context, organizationID string, t workflow.Type, department *string) (workflow.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		-- QUERY: FindWorkflowForSubject
		SELECT id
		FROM workflow_definitions
		WHERE organization_id = $1
		  AND workflow_type = $2
		  AND (department IS NULL OR department = $3::text)
		ORDER BY (department IS NULL) ASC
		LIMIT 1
	`

	var id string
	if err := q.QueryRow(ctx, query, organizationID, string(t), department).Scan(&id); err != nil {
		if isNoRows(err) {
			return workflow.Definition{}, workflow.ErrNoMatchingWorkflow
		}
		return workflow.Definition{}, fmt.Errorf("failed to find workflow definition: %w", err)
	}

	return r.GetByID(ctx, id, organizationID)
}

// Update implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) Update(ctx context.Context, def workflow.Definition) (workflow.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE workflow_definitions
		SET name = $3, department = $4, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + definitionColumns

	updated, err := scanDefinition(q.QueryRow(ctx, query, def.ID, def.OrganizationID, def.Name, def.Department))
	if err != nil {
		if isNoRows(err) {
			return workflow.Definition{}, workflow.ErrDefinitionNotFound
		}
		if isUniqueViolation(err) {
			return workflow.Definition{}, workflow.ErrDefinitionConflict
		}
		return workflow.Definition{}, fmt.Errorf("failed to update workflow definition: %w", err)
	}
	updated.Steps = def.Steps
	return updated, nil
}

// Delete implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) Delete(ctx context.Context, id string, organizationID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM workflow_definitions WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow definition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrDefinitionNotFound
	}
	return nil
}

// IsReferenced implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) IsReferenced(ctx context.Context, definitionID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var referenced bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workflow_requests WHERE definition_id = $1)`, definitionID).Scan(&referenced)
	if err != nil {
		return false, fmt.Errorf("failed to check workflow definition usage: %w", err)
	}
	return referenced, nil
}

// ========================================
// STEPS
// ========================================

func (r *workflowDefinitionRepositoryImpl) listSteps(ctx context.Context, definitionIDs []string) (map[string][]workflow.Step, error) {
	q := GetQuerier(ctx, r.db)

	query := stepSelect + `
		WHERE s.definition_id = ANY($1::uuid[])
		ORDER BY s.definition_id, s.step_order ASC
	`

	rows, err := q.Query(ctx, query, definitionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow steps: %w", err)
	}
	defer rows.Close()

	steps := make(map[string][]workflow.Step, len(definitionIDs))
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow step: %w", err)
		}
		steps[s.DefinitionID] = append(steps[s.DefinitionID], s)
	}

	return steps, rows.Err()
}

// CreateStep implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) CreateStep(ctx context.Context, step workflow.Step) (workflow.Step, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO workflow_steps (id, definition_id, step_order, name, condition)
		VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING id, definition_id, step_order, name, condition
	`

	var created workflow.Step
	err := q.QueryRow(ctx, query, step.ID, step.DefinitionID, step.StepOrder, step.Name, step.Condition).Scan(
		&created.ID, &created.DefinitionID, &created.StepOrder, &created.Name, &created.Condition,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.Step{}, workflow.ErrStepOrderExists
		}
		return workflow.Step{}, fmt.Errorf("failed to create workflow step: %w", err)
	}
	return created, nil
}

// GetStep implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) GetStep(ctx context.Context, stepID string, organizationID string) (workflow.Step, error) {
	q := GetQuerier(ctx, r.db)

	query := stepSelect + `
		INNER JOIN workflow_definitions d ON d.id = s.definition_id
		WHERE s.id = $1 AND d.organization_id = $2
	`

	step, err := scanStep(q.QueryRow(ctx, query, stepID, organizationID))
	if err != nil {
		if isNoRows(err) {
			return workflow.Step{}, workflow.ErrStepNotFound
		}
		return workflow.Step{}, fmt.Errorf("failed to get workflow step: %w", err)
	}
	return step, nil
}

// UpdateStep implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) UpdateStep(ctx context.Context, step workflow.Step) (workflow.Step, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE workflow_steps
		SET name = $2, condition = $3
		WHERE id = $1
		RETURNING id, definition_id, step_order, name, condition
	`

	var updated workflow.Step
	err := q.QueryRow(ctx, query, step.ID, step.Name, step.Condition).Scan(
		&updated.ID, &updated.DefinitionID, &updated.StepOrder, &updated.Name, &updated.Condition,
	)
	if err != nil {
		if isNoRows(err) {
			return workflow.Step{}, workflow.ErrStepNotFound
		}
		return workflow.Step{}, fmt.Errorf("failed to update workflow step: %w", err)
	}
	return updated, nil
}

// DeleteStep implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) DeleteStep(ctx context.Context, stepID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM workflow_steps WHERE id = $1`, stepID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrStepNotFound
	}
	return nil
}

// ========================================
// ASSIGNMENTS
// ========================================

// DeactivateAssignments implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) DeactivateAssignments(ctx context.Context, stepID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE workflow_step_assignments
		SET is_active = FALSE, revoked_at = NOW()
		WHERE step_id = $1 AND is_active
	`

	if _, err := q.Exec(ctx, query, stepID); err != nil {
		return fmt.Errorf("failed to revoke step assignment: %w", err)
	}
	return nil
}

// CreateAssignment implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) CreateAssignment(ctx context.Context, assignment workflow.Assignment) (workflow.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO workflow_step_assignments (id, step_id, approver_id, assigned_by, is_active, assigned_at)
		VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4, TRUE, NOW())
		RETURNING id, step_id, approver_id, assigned_by, is_active, assigned_at, revoked_at
	`

	var a workflow.Assignment
	err := q.QueryRow(ctx, query, assignment.ID, assignment.StepID, assignment.ApproverID, assignment.AssignedBy).Scan(
		&a.ID, &a.StepID, &a.ApproverID, &a.AssignedBy, &a.IsActive, &a.AssignedAt, &a.RevokedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return workflow.Assignment{}, fmt.Errorf("step %s already has an active approver: %w", assignment.StepID, err)
		}
		return workflow.Assignment{}, fmt.Errorf("failed to assign approver: %w", err)
	}
	return a, nil
}

// ListAssignments implements workflow.DefinitionRepository.
func (r *workflowDefinitionRepositoryImpl) ListAssignments(ctx context.Context, stepID string) ([]workflow.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, step_id, approver_id, assigned_by, is_active, assigned_at, revoked_at
		FROM workflow_step_assignments
		WHERE step_id = $1
		ORDER BY assigned_at DESC
	`

	rows, err := q.Query(ctx, query, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to list step assignments: %w", err)
	}
	defer rows.Close()

	var assignments []workflow.Assignment
	for rows.Next() {
		var a workflow.Assignment
		if err := rows.Scan(&a.ID, &a.StepID, &a.ApproverID, &a.AssignedBy, &a.IsActive, &a.AssignedAt, &a.RevokedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}
