package registry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/tracing"
)

// Traced wraps a RegistryClient and records one span per call.
type Traced struct {
	next   promotion.RegistryClient
	tracer trace.Tracer
	host   string
}

var _ promotion.RegistryClient = (*Traced)(nil)

// NewTraced decorates next. A nil tracer returns next unchanged.
func NewTraced(next promotion.RegistryClient, tracer trace.Tracer, host string) promotion.RegistryClient {
	if tracer == nil {
		return next
	}
	return &Traced{next: next, tracer: tracer, host: host}
}

func (t *Traced) Login(ctx context.Context, creds promotion.Credentials) error {
	ctx, span := t.start(ctx, "login")
	defer span.End()
	return t.finish(span, t.next.Login(ctx, creds))
}

func (t *Traced) Pull(ctx context.Context, artifact, tag string) error {
	ctx, span := t.start(ctx, "pull",
		attribute.String(tracing.AttrArtifact, artifact),
		attribute.String(tracing.AttrTag, tag))
	defer span.End()
	return t.finish(span, t.next.Pull(ctx, artifact, tag))
}

func (t *Traced) Tag(ctx context.Context, artifact, srcTag, dstTag string) error {
	ctx, span := t.start(ctx, "tag",
		attribute.String(tracing.AttrArtifact, artifact),
		attribute.String(tracing.AttrSourceTag, srcTag),
		attribute.String(tracing.AttrDestinationTag, dstTag))
	defer span.End()
	return t.finish(span, t.next.Tag(ctx, artifact, srcTag, dstTag))
}

func (t *Traced) Push(ctx context.Context, artifact, tag string) error {
	ctx, span := t.start(ctx, "push",
		attribute.String(tracing.AttrArtifact, artifact),
		attribute.String(tracing.AttrTag, tag))
	defer span.End()
	return t.finish(span, t.next.Push(ctx, artifact, tag))
}

func (t *Traced) Logout(ctx context.Context) error {
	ctx, span := t.start(ctx, "logout")
	defer span.End()
	return t.finish(span, t.next.Logout(ctx))
}

func (t *Traced) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String(tracing.AttrRegistryOp, op),
		attribute.String(tracing.AttrRegistry, t.host))
	return t.tracer.Start(ctx, tracing.SpanPrefixRegistry+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

func (t *Traced) finish(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(tracing.AttrErrorClass, promotion.ClassOf(err).String()))
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
