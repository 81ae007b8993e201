package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/zjrosen/promoter/internal/promotion"
)

// EventType is the CloudEvents type emitted at the end of a run.
type EventType string

const (
	RunSucceededEventV1        EventType = "dev.promoter.run.succeeded.v1"
	RunPartialFailureEventV1   EventType = "dev.promoter.run.partial_failure.v1"
	RunAbortedEventV1          EventType = "dev.promoter.run.aborted.v1"
	RunValidationFailedEventV1 EventType = "dev.promoter.run.validation_failed.v1"
)

func (t EventType) String() string {
	return string(t)
}

// DefaultEventSource is the ce-source of emitted events.
const DefaultEventSource = "/promoter"

// CloudEventsConfig configures the CloudEvents notifier.
type CloudEventsConfig struct {
	Target  string
	Source  string
	Retries int
}

// CloudEvents posts one event per run to an HTTP sink.
type CloudEvents struct {
	client cloudevents.Client
	cfg    CloudEventsConfig
}

// NewCloudEvents creates a notifier with an HTTP client.
func NewCloudEvents(cfg CloudEventsConfig) (*CloudEvents, error) {
	p, err := cloudevents.NewHTTP(cloudevents.WithRoundTripper(&http.Transport{DisableKeepAlives: true}))
	if err != nil {
		return nil, fmt.Errorf("creating cloudevents http protocol: %w", err)
	}
	c, err := cloudevents.NewClient(p, cloudevents.WithUUIDs(), cloudevents.WithTimeNow())
	if err != nil {
		return nil, fmt.Errorf("creating cloudevents client: %w", err)
	}
	return NewCloudEventsWithClient(c, cfg), nil
}

// NewCloudEventsWithClient uses an existing client.
func NewCloudEventsWithClient(c cloudevents.Client, cfg CloudEventsConfig) *CloudEvents {
	if cfg.Source == "" {
		cfg.Source = DefaultEventSource
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &CloudEvents{client: c, cfg: cfg}
}

// EventFor builds the event for report.
func EventFor(report promotion.RunReport, source string) (cloudevents.Event, error) {
	s := Summarize(report)

	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(source)
	event.SetSubject(s.RunID)
	event.SetType(eventType(report.Outcome.Status).String())
	if !s.FinishedAt.IsZero() {
		event.SetTime(s.FinishedAt)
	} else {
		event.SetTime(time.Now())
	}
	if err := event.SetData(cloudevents.ApplicationJSON, s); err != nil {
		return cloudevents.Event{}, err
	}
	return event, nil
}

func eventType(status promotion.RunStatus) EventType {
	switch status {
	case promotion.RunSuccess:
		return RunSucceededEventV1
	case promotion.RunPartialFailure:
		return RunPartialFailureEventV1
	case promotion.RunAborted:
		return RunAbortedEventV1
	default:
		return RunValidationFailedEventV1
	}
}

// Notify implements promotion.Notifier.
func (c *CloudEvents) Notify(ctx context.Context, report promotion.RunReport) error {
	event, err := EventFor(report, c.cfg.Source)
	if err != nil {
		return fmt.Errorf("building cloudevent: %w", err)
	}

	ctx = cloudevents.ContextWithTarget(ctx, c.cfg.Target)
	if c.cfg.Retries > 0 {
		ctx = cloudevents.ContextWithRetriesExponentialBackoff(ctx, 10*time.Millisecond, c.cfg.Retries)
	}
	if result := c.client.Send(ctx, event); !cloudevents.IsACK(result) {
		return fmt.Errorf("sending cloudevent %s: %w", event.Type(), result)
	}
	return nil
}
