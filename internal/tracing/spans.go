package tracing

// Span names.
const (
	SpanRun            = "promotion.run"
	SpanTask           = "promotion.task"
	SpanPrefixRegistry = "registry."
	SpanNotify         = "notify.deliver"
)

// Span attribute keys.
const (
	AttrRunID          = "run.id"
	AttrRunStatus      = "run.status"
	AttrRegistry       = "registry.host"
	AttrDryRun         = "run.dry_run"
	AttrSourceTag      = "tag.source"
	AttrDestinationTag = "tag.destination"
	AttrArtifactCount  = "run.artifact_count"

	AttrArtifact   = "artifact.name"
	AttrTaskStatus = "task.status"
	AttrAttempts   = "task.attempts"

	AttrRegistryOp = "registry.op"
	AttrTag        = "registry.tag"
	AttrErrorClass = "error.class"

	AttrNotifier = "notifier.name"
)
