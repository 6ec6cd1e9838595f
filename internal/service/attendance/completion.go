package attendance

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/google/uuid"
)

// TimeslipCompletion applies workflow decisions on TIMESLIP requests
type TimeslipCompletion struct {
	punchRepo    attendance.PunchRepository
	timeslipRepo attendance.TimeslipRepository
	recorder     attendance.DayRecorder
}

func NewTimeslipCompletion(punchRepo attendance.PunchRepository, timeslipRepo attendance.TimeslipRepository, recorder attendance.DayRecorder) *TimeslipCompletion {
	return &TimeslipCompletion{
		punchRepo:    punchRepo,
		timeslipRepo: timeslipRepo,
		recorder:     recorder,
	}
}

// OnApproved implements workflow.CompletionHandler.
func (c *TimeslipCompletion) OnApproved(ctx context.Context, req workflow.Request) error {
	ts, err := c.timeslipRepo.GetByID(ctx, req.SubjectID, req.OrganizationID)
	if err != nil {
		return err
	}
	if !ts.IsPending() {
		return nil
	}

	punches := ts.CorrectionPunches()
	for i := range punches {
		punches[i].ID = uuid.NewString()
	}
	if err := c.punchRepo.AppendMany(ctx, punches); err != nil {
		return fmt.Errorf("failed to append correction punches: %w", err)
	}
	if err := c.timeslipRepo.SetStatus(ctx, ts.ID, attendance.TimeslipApproved); err != nil {
		return fmt.Errorf("failed to approve timeslip: %w", err)
	}

	_, err = c.recorder.RecomputeRange(ctx, ts.OrganizationID, ts.EmployeeID, ts.Date, ts.Date)
	return err
}

// OnRejected implements workflow.CompletionHandler.
func (c *TimeslipCompletion) OnRejected(ctx context.Context, req workflow.Request) error {
	ts, err := c.timeslipRepo.GetByID(ctx, req.SubjectID, req.OrganizationID)
	if err != nil {
		return err
	}
	if !ts.IsPending() {
		return nil
	}
	if err := c.timeslipRepo.SetStatus(ctx, ts.ID, attendance.TimeslipRejected); err != nil {
		return fmt.Errorf("failed to reject timeslip: %w", err)
	}

	_, err = c.recorder.RecomputeRange(ctx, ts.OrganizationID, ts.EmployeeID, ts.Date, ts.Date)
	return err
}
