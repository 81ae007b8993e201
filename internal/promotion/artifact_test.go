package promotion_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/promotion"
)

func TestExpandSelection_All(t *testing.T) {
	refs, err := promotion.ExpandSelection([]string{"all"}, promotion.DefaultArtifacts)
	require.NoError(t, err)
	require.Equal(t, promotion.DefaultArtifacts, promotion.Names(refs))

	refs, err = promotion.ExpandSelection([]string{" ALL "}, []string{"x", "y"})
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, promotion.Names(refs))
}

func TestExpandSelection_Explicit(t *testing.T) {
	refs, err := promotion.ExpandSelection([]string{" appmw", "gateway "}, promotion.DefaultArtifacts)
	require.NoError(t, err)
	require.Equal(t, []string{"appmw", "gateway"}, promotion.Names(refs))
}

func TestExpandSelection_Errors(t *testing.T) {
	tests := []struct {
		name      string
		selection []string
		canonical []string
		kind      promotion.ValidationKind
	}{
		{"empty", nil, promotion.DefaultArtifacts, promotion.MissingField},
		{"all mixed with names", []string{"all", "appmw"}, promotion.DefaultArtifacts, promotion.InvalidSelection},
		{"duplicate", []string{"appmw", " appmw"}, promotion.DefaultArtifacts, promotion.InvalidSelection},
		{"blank name", []string{"appmw", " "}, promotion.DefaultArtifacts, promotion.InvalidSelection},
		{"all with empty canonical", []string{"all"}, nil, promotion.InvalidSelection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := promotion.ExpandSelection(tt.selection, tt.canonical)
			require.Nil(t, refs)
			requireValidation(t, err, tt.kind, "")
		})
	}
}

func TestParseSelection(t *testing.T) {
	require.Nil(t, promotion.ParseSelection("  "))
	require.Equal(t, []string{"appmw", " cardui"}, promotion.ParseSelection("appmw, cardui"))
}
