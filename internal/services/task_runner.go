package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/metrics"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

var ErrUnknownTask = errors.New("unknown_task")

// TaskRunner is the single entry for scheduled work, shared by the cron
// scheduler and the Lambda handler.
type TaskRunner struct {
	balances    *BalanceChargeService
	assignments *AssignmentService
	reminders   *ReminderService
	outbox      *OutboxService
}

func NewTaskRunner(
	balances *BalanceChargeService,
	assignments *AssignmentService,
	reminders *ReminderService,
	outbox *OutboxService,
) *TaskRunner {
	return &TaskRunner{balances: balances, assignments: assignments, reminders: reminders, outbox: outbox}
}

func (r *TaskRunner) Tasks() []string {
	return []string{
		constants.TaskChargeBalances,
		constants.TaskAssignTomorrow,
		constants.TaskSendReminders,
		constants.TaskWeeklySchedule,
		constants.TaskDrainOutbox,
	}
}

// Run executes one task and returns its summary.
func (r *TaskRunner) Run(ctx context.Context, task string) (any, error) {
	start := time.Now()
	out, err := r.run(ctx, task)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	if !errors.Is(err, ErrUnknownTask) {
		metrics.ScheduledTaskDuration.WithLabelValues(task, outcome).Observe(time.Since(start).Seconds())
	}

	log := utils.Logger.WithField("task", task).WithField("elapsed", time.Since(start).String())
	if err != nil {
		log.WithError(err).Error("Scheduled task failed")
	} else if task != constants.TaskDrainOutbox {
		log.Info("Scheduled task finished")
	}
	return out, err
}

func (r *TaskRunner) run(ctx context.Context, task string) (any, error) {
	switch task {
	case constants.TaskChargeBalances:
		return r.balances.ChargeDueBalances(ctx, r.balances.Today())
	case constants.TaskAssignTomorrow:
		return r.assignments.AssignTomorrow(ctx)
	case constants.TaskSendReminders:
		return r.reminders.SendDayBeforeReminders(ctx)
	case constants.TaskWeeklySchedule:
		return r.reminders.SendWeeklySchedules(ctx)
	case constants.TaskDrainOutbox:
		return r.outbox.Drain(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTask, task)
}
