package testutil

import (
	"time"

	"github.com/zjrosen/promoter/internal/promotion"
)

// WithStandardRuns adds four runs, newest first:
//
//	run-4  dry run, success (appmw, cardui)
//	run-3  partial failure (gateway failed after 3 attempts)
//	run-2  aborted at the gate
//	run-1  success (all four artifacts)
func (b *Builder) WithStandardRuns() *Builder {
	now := time.Now().Truncate(time.Millisecond)

	return b.
		WithRun("run-1", StartedAt(now.Add(-72*time.Hour)),
			Artifact("appmw", promotion.TaskSuccess, 3),
			Artifact("cardui", promotion.TaskSuccess, 3),
			Artifact("gateway", promotion.TaskSuccess, 3),
			Artifact("batchsvc", promotion.TaskSuccess, 3)).
		WithRun("run-2", StartedAt(now.Add(-48*time.Hour)),
			Status(promotion.RunAborted), Gate(promotion.GateRejected, "bob")).
		WithRun("run-3", StartedAt(now.Add(-24*time.Hour)), Tags("v1.4.2", "latest"),
			Status(promotion.RunPartialFailure),
			Artifact("appmw", promotion.TaskSuccess, 3),
			Artifact("gateway", promotion.TaskFailed, 3)).
		WithRun("run-4", StartedAt(now), DryRun(),
			Artifact("appmw", promotion.TaskSuccess, 2),
			Artifact("cardui", promotion.TaskSuccess, 2))
}
