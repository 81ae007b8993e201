package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/promoter/internal/mocks"
	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/tracing"
)

func setupTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return provider.Tracer("test-tracer"), exporter
}

func getSpanByName(exporter *tracetest.InMemoryExporter, name string) (tracetest.SpanStub, bool) {
	for _, span := range exporter.GetSpans() {
		if span.Name == name {
			return span, true
		}
	}
	return tracetest.SpanStub{}, false
}

func getAttributeValue(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTraced_NilTracerReturnsClient(t *testing.T) {
	inner := mocks.NewMockRegistryClient(t)
	require.Same(t, inner, NewTraced(inner, nil, "r").(*mocks.MockRegistryClient))
}

func TestTraced_SuccessSpan(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	inner := mocks.NewMockRegistryClient(t)
	inner.EXPECT().Tag(mock.Anything, "appmw", "latest", "stable").Return(nil)

	c := NewTraced(inner, tracer, "registry.example.com")
	require.NoError(t, c.Tag(context.Background(), "appmw", "latest", "stable"))

	span, ok := getSpanByName(exporter, tracing.SpanPrefixRegistry+"tag")
	require.True(t, ok)
	require.Equal(t, codes.Ok, span.Status.Code)
	require.Equal(t, trace.SpanKindClient, span.SpanKind)

	v, ok := getAttributeValue(span, tracing.AttrArtifact)
	require.True(t, ok)
	require.Equal(t, "appmw", v.AsString())
	v, ok = getAttributeValue(span, tracing.AttrDestinationTag)
	require.True(t, ok)
	require.Equal(t, "stable", v.AsString())
	v, ok = getAttributeValue(span, tracing.AttrRegistry)
	require.True(t, ok)
	require.Equal(t, "registry.example.com", v.AsString())
}

func TestTraced_ErrorSpanCarriesClass(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	inner := mocks.NewMockRegistryClient(t)
	cause := promotion.Transient("push", errors.New("503"))
	inner.EXPECT().Push(mock.Anything, "cardui", "stable").Return(cause)

	c := NewTraced(inner, tracer, "registry.example.com")
	err := c.Push(context.Background(), "cardui", "stable")
	require.ErrorIs(t, err, cause)

	span, ok := getSpanByName(exporter, tracing.SpanPrefixRegistry+"push")
	require.True(t, ok)
	require.Equal(t, codes.Error, span.Status.Code)

	v, ok := getAttributeValue(span, tracing.AttrErrorClass)
	require.True(t, ok)
	require.Equal(t, "transient", v.AsString())
	require.Len(t, span.Events, 1)
	require.Equal(t, "exception", span.Events[0].Name)
}

func TestTraced_DelegatesEveryCall(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	inner := mocks.NewMockRegistryClient(t)
	inner.EXPECT().Login(mock.Anything, promotion.Credentials{Username: "ci"}).Return(nil)
	inner.EXPECT().Pull(mock.Anything, "gateway", "latest").Return(nil)
	inner.EXPECT().Logout(mock.Anything).Return(nil)

	c := NewTraced(inner, tracer, "r")
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, promotion.Credentials{Username: "ci"}))
	require.NoError(t, c.Pull(ctx, "gateway", "latest"))
	require.NoError(t, c.Logout(ctx))

	require.Len(t, exporter.GetSpans(), 3)
}
