package promotion

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// PromotionTask promotes one artifact. It is a plain value so every worker
// owns its own copy.
type PromotionTask struct {
	Artifact   ArtifactRef
	TagPair    TagPair
	DryRun     bool
	RetryLimit int
	RetryDelay time.Duration
}

// Run pulls the source tag, tags the destination and pushes it unless the task
// is a dry run. A failed step ends the sequence. Failures are recorded in the
// returned TaskResult; Run never returns an error.
func (t PromotionTask) Run(ctx context.Context, client RegistryClient, stream LogStream) TaskResult {
	if stream == nil {
		stream = nopStream{}
	}
	res := TaskResult{
		Artifact:  t.Artifact,
		TagPair:   t.TagPair,
		DryRun:    t.DryRun,
		StartedAt: time.Now(),
	}
	name := t.Artifact.Name

	stream.Info("Task started",
		"artifact", name,
		"source", t.TagPair.Source,
		"destination", t.TagPair.Destination,
		"dry_run", t.DryRun)

	steps := []struct {
		step Step
		call func(context.Context) error
	}{
		{StepPull, func(ctx context.Context) error { return client.Pull(ctx, name, t.TagPair.Source) }},
		{StepTag, func(ctx context.Context) error {
			return client.Tag(ctx, name, t.TagPair.Source, t.TagPair.Destination)
		}},
		{StepPush, func(ctx context.Context) error { return client.Push(ctx, name, t.TagPair.Destination) }},
	}

	for _, s := range steps {
		if s.step == StepPush && t.DryRun {
			res.Steps = append(res.Steps, StepResult{Step: StepPush, NoOp: true})
			stream.Info("Dry run, push skipped", "artifact", name, "tag", t.TagPair.Destination)
			continue
		}

		sr := t.runStep(ctx, s.step, s.call, stream)
		res.Steps = append(res.Steps, sr)
		res.Attempts += sr.Attempts

		if sr.Err != nil {
			res.Status = TaskFailed
			res.Err = &TaskError{Step: s.step, Class: ClassOf(sr.Err), Attempts: sr.Attempts, Err: sr.Err}
			res.FinishedAt = time.Now()
			stream.Error("Task failed",
				"artifact", name,
				"step", s.step,
				"attempts", sr.Attempts,
				"error", sr.Err)
			return res
		}
	}

	res.Status = TaskSuccess
	res.FinishedAt = time.Now()
	stream.Info("Task succeeded", "artifact", name, "attempts", res.Attempts)
	return res
}

// runStep calls op until it succeeds, fails permanently or RetryLimit calls
// have been made. The worker slot is held during the delay.
func (t PromotionTask) runStep(ctx context.Context, step Step, op func(context.Context) error, stream LogStream) StepResult {
	limit := t.RetryLimit
	if limit < 1 {
		limit = 1
	}

	var (
		attempts int
		lastErr  error
	)
	operation := func() (struct{}, error) {
		attempts++
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		lastErr = err
		if ClassOf(err) == ClassPermanent {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(t.RetryDelay)),
		backoff.WithMaxTries(uint(limit)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			stream.Error("Step failed, retrying",
				"artifact", t.Artifact.Name,
				"step", step,
				"attempt", attempts,
				"retry_in", next,
				"error", err)
		}),
	)
	if err == nil {
		return StepResult{Step: step, Attempts: attempts}
	}
	if lastErr == nil {
		// Retry gave up before the first call, only possible on a done context.
		lastErr = Transient(string(step), err)
	}
	return StepResult{Step: step, Attempts: attempts, Err: lastErr}
}
