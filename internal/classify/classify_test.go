package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/apply-pilot/internal/types"
)

func TestDefaultRegistry_GenericFields(t *testing.T) {
	registry := DefaultRegistry(types.BoardOtherATS)

	tests := []struct {
		name     string
		field    types.FormField
		expected types.FieldKind
	}{
		{
			name:     "autocomplete email",
			field:    types.FormField{Autocomplete: "email"},
			expected: types.KindEmail,
		},
		{
			name:     "input type tel",
			field:    types.FormField{InputType: "tel"},
			expected: types.KindPhone,
		},
		{
			name:     "label full name",
			field:    types.FormField{Label: "Full Name", InputType: "text"},
			expected: types.KindName,
		},
		{
			name:     "label cover letter beats name",
			field:    types.FormField{Label: "Cover Letter", InputType: "textarea"},
			expected: types.KindCoverLetter,
		},
		{
			name:     "file input without label is a resume upload",
			field:    types.FormField{InputType: "file"},
			expected: types.KindResumeUpload,
		},
		{
			name:     "file input labeled cover letter",
			field:    types.FormField{InputType: "file", Label: "Upload your cover letter"},
			expected: types.KindCoverLetter,
		},
		{
			name:     "name attribute pattern",
			field:    types.FormField{Name: "candidate_phone", InputType: "text"},
			expected: types.KindPhone,
		},
		{
			name:     "sponsorship wording in label",
			field:    types.FormField{Label: "Will you require visa sponsorship?", InputType: "select"},
			expected: types.KindSponsorshipQuestion,
		},
		{
			name:     "salary wording in label",
			field:    types.FormField{Label: "What are your salary expectations?", InputType: "text"},
			expected: types.KindSalaryQuestion,
		},
		{
			name:     "demographic wording in label",
			field:    types.FormField{Label: "Gender identity (optional)", InputType: "select"},
			expected: types.KindDemographicQuestion,
		},
		{
			name:     "context heading only",
			field:    types.FormField{Context: "Education", InputType: "text"},
			expected: types.KindEducationEntry,
		},
		{
			name:     "no signal at all",
			field:    types.FormField{InputType: "text"},
			expected: types.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, confidence := registry.Classify(&tt.field)
			assert.Equal(t, tt.expected, kind)
			if tt.expected == types.KindUnknown {
				assert.Zero(t, confidence)
			} else {
				assert.GreaterOrEqual(t, confidence, MinConfidence)
			}
		})
	}
}

func TestRegistry_Deterministic(t *testing.T) {
	registry := DefaultRegistry(types.BoardGreenhouse)
	field := types.FormField{ID: "first_name", Label: "First Name", InputType: "text"}

	firstKind, firstConf := registry.Classify(&field)
	for i := 0; i < 10; i++ {
		kind, conf := registry.Classify(&field)
		assert.Equal(t, firstKind, kind)
		assert.Equal(t, firstConf, conf)
	}
}

func TestRegistry_VendorStrategyWinsOverGeneric(t *testing.T) {
	// Lever uses name="comments" for the cover letter; the generic strategies
	// would never place that attribute.
	field := types.FormField{Name: "comments", InputType: "textarea"}

	kind, _ := DefaultRegistry(types.BoardLever).Classify(&field)
	assert.Equal(t, types.KindCoverLetter, kind)

	kind, _ = DefaultRegistry(types.BoardOtherATS).Classify(&field)
	assert.Equal(t, types.KindUnknown, kind)
}

func TestRegistry_AutocompleteBeatsLabel(t *testing.T) {
	// A misleading label loses to an explicit autocomplete attribute.
	field := types.FormField{Autocomplete: "tel", Label: "Email address", InputType: "text"}

	kind, confidence := DefaultRegistry(types.BoardOtherATS).Classify(&field)
	assert.Equal(t, types.KindPhone, kind)
	assert.Equal(t, 0.95, confidence)
}

// lowConfidenceStrategy always answers below the confidence floor.
type lowConfidenceStrategy struct{}

func (s *lowConfidenceStrategy) Name() string { return "low" }
func (s *lowConfidenceStrategy) Classify(_ *types.FormField) (types.FieldKind, float64, bool) {
	return types.KindEmail, 0.3, true
}

func TestRegistry_MinConfidenceFloor(t *testing.T) {
	registry := NewRegistry(&lowConfidenceStrategy{})
	field := types.FormField{Label: "anything"}

	kind, confidence := registry.Classify(&field)
	assert.Equal(t, types.KindUnknown, kind)
	assert.Zero(t, confidence)
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&LabelStrategy{})

	field := types.FormField{Label: "Email"}
	kind, _ := registry.Classify(&field)
	assert.Equal(t, types.KindEmail, kind)
}
