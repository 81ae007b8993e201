package promotion

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	TagLatest = "latest"
	TagStable = "stable"
)

// tagPattern is the Docker reference grammar for a tag.
var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,127}$`)

// TagPair is the source and destination tag shared by every task in a run.
type TagPair struct {
	Source      string
	Destination string
}

func (p TagPair) String() string { return p.Source + " -> " + p.Destination }

// PromotionMode selects how the tag pair is derived. The set of modes is closed.
type PromotionMode interface {
	Kind() ModeKind
	isMode()
}

// ModeKind is the stable name of a mode used in config, CLI flags and history.
type ModeKind string

const (
	KindLatestToStable ModeKind = "latest-to-stable"
	KindTagToLatest    ModeKind = "tag-to-latest"
	KindCustom         ModeKind = "custom"
)

// StandardLatestToStable promotes latest to stable.
type StandardLatestToStable struct{}

// StandardTagToLatest promotes SourceTag to latest.
type StandardTagToLatest struct {
	SourceTag string
}

// CustomTags promotes SourceTag to DestinationTag.
type CustomTags struct {
	SourceTag      string
	DestinationTag string
}

func (StandardLatestToStable) Kind() ModeKind { return KindLatestToStable }
func (StandardTagToLatest) Kind() ModeKind    { return KindTagToLatest }
func (CustomTags) Kind() ModeKind             { return KindCustom }

func (StandardLatestToStable) isMode() {}
func (StandardTagToLatest) isMode()    {}
func (CustomTags) isMode()             {}

// ParseMode maps a mode name and its tag fields to a PromotionMode.
// The legacy job names LATEST_PROMOTE and CUSTOM_TAGS are accepted.
func ParseMode(kind, source, destination string) (PromotionMode, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case string(KindLatestToStable), "latest_promote":
		return StandardLatestToStable{}, nil
	case string(KindTagToLatest):
		return StandardTagToLatest{SourceTag: source}, nil
	case string(KindCustom), "custom_tags":
		return CustomTags{SourceTag: source, DestinationTag: destination}, nil
	case "":
		return nil, missingField("mode")
	default:
		return nil, invalidValue("mode", "unknown promotion mode %q", kind)
	}
}

// Resolve derives the tag pair for mode. It has no side effects.
func Resolve(mode PromotionMode) (TagPair, error) {
	var pair TagPair
	switch m := mode.(type) {
	case StandardLatestToStable:
		pair = TagPair{Source: TagLatest, Destination: TagStable}
	case StandardTagToLatest:
		src := strings.TrimSpace(m.SourceTag)
		if src == "" {
			return TagPair{}, missingField("source_tag")
		}
		pair = TagPair{Source: src, Destination: TagLatest}
	case CustomTags:
		src := strings.TrimSpace(m.SourceTag)
		dst := strings.TrimSpace(m.DestinationTag)
		if src == "" {
			return TagPair{}, missingField("source_tag")
		}
		if dst == "" {
			return TagPair{}, missingField("destination_tag")
		}
		pair = TagPair{Source: src, Destination: dst}
	case nil:
		return TagPair{}, missingField("mode")
	default:
		return TagPair{}, invalidValue("mode", "unsupported mode %T", mode)
	}

	if err := validateTag("source_tag", pair.Source); err != nil {
		return TagPair{}, err
	}
	if err := validateTag("destination_tag", pair.Destination); err != nil {
		return TagPair{}, err
	}
	return pair, nil
}

func validateTag(field, tag string) error {
	if !tagPattern.MatchString(tag) {
		return invalidValue(field, "%q is not a valid image tag", tag)
	}
	return nil
}

// DescribeMode renders a mode for logs and reports.
func DescribeMode(mode PromotionMode) string {
	switch m := mode.(type) {
	case StandardLatestToStable:
		return string(m.Kind())
	case StandardTagToLatest:
		return fmt.Sprintf("%s (%s)", m.Kind(), m.SourceTag)
	case CustomTags:
		return fmt.Sprintf("%s (%s -> %s)", m.Kind(), m.SourceTag, m.DestinationTag)
	default:
		return "unknown"
	}
}
