package notify

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/promotion"
)

// Named labels a notifier in logs and aggregated errors.
type Named struct {
	Name     string
	Notifier promotion.Notifier
}

// Multi delivers a report to every notifier, in order. One failing notifier
// does not stop the rest.
type Multi struct {
	targets []Named
}

// NewMulti creates a fan-out notifier. Entries with a nil Notifier are
// dropped.
func NewMulti(targets ...Named) *Multi {
	m := &Multi{}
	for _, t := range targets {
		if t.Notifier != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

// Len returns the number of notifiers.
func (m *Multi) Len() int { return len(m.targets) }

// Notify implements promotion.Notifier.
func (m *Multi) Notify(ctx context.Context, report promotion.RunReport) error {
	var result *multierror.Error
	for _, t := range m.targets {
		if err := t.Notifier.Notify(ctx, report); err != nil {
			log.ErrorErr(log.CatNotify, "Notifier failed", err, "notifier", t.Name, "run", report.Outcome.RunID)
			result = multierror.Append(result, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		log.Debug(log.CatNotify, "Notifier delivered", "notifier", t.Name, "run", report.Outcome.RunID)
	}
	return result.ErrorOrNil()
}
