package handlers

import (
	"context"

	"github.com/hibiken/asynq"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/service"
	"library-backend/internal/shared/utils"
)

// FineSweepHandler recomputes overdue fines when the nightly schedule
// fires or a checkin dispatches an immediate sweep.
func FineSweepHandler(loanSvc service.ServiceInterface) func(ctx context.Context, t *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p model.FineSweepPayload
		if err := utils.UnmarshalTask(t, &p); err != nil {
			return asynq.SkipRetry
		}

		_, err := loanSvc.SweepFines(ctx, p.AsOf)
		return err
	}
}
