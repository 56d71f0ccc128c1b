package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animathic/backend/pkg/errors"
)

func validSpec() *AnimationSpec {
	return &AnimationSpec{
		SceneKind:    SceneKind2D,
		DurationHint: 1.5,
		Objects: []ObjectDecl{
			{ID: "c", Kind: "Circle"},
		},
		Steps: []StepDecl{
			{Action: "FadeIn", TargetIDs: []string{"c"}, RunTime: 1.0, WaitAfter: 0.5},
		},
	}
}

func TestValidateSpec_AcceptsWellFormedSpec(t *testing.T) {
	require.NoError(t, ValidateSpec(validSpec()))
}

func TestValidateSpec_AcceptsBoundaryCounts(t *testing.T) {
	spec := &AnimationSpec{SceneKind: SceneKind2D}
	for i := 0; i < MaxObjects; i++ {
		spec.Objects = append(spec.Objects, ObjectDecl{ID: "o" + string(rune('a'+i%26)) + string(rune('0'+i/26)), Kind: "Circle"})
	}
	for i := 0; i < MaxSteps; i++ {
		spec.Steps = append(spec.Steps, StepDecl{Action: "FadeIn", RunTime: MinStepRunTimeS})
	}
	require.NoError(t, ValidateSpec(spec))
}

func TestValidateSpec_RejectsTooManyObjects(t *testing.T) {
	spec := validSpec()
	for i := 0; i < MaxObjects; i++ {
		spec.Objects = append(spec.Objects, ObjectDecl{ID: "extra" + string(rune('a'+i%26)), Kind: "Circle"})
	}

	err := ValidateSpec(spec)
	require.Error(t, err)
	var jerr *errors.JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, errors.KindSchema, jerr.Kind)
}

func TestValidateSpec_RejectsTooManySteps(t *testing.T) {
	spec := validSpec()
	for i := 0; i < MaxSteps; i++ {
		spec.Steps = append(spec.Steps, StepDecl{Action: "FadeIn", TargetIDs: []string{"c"}, RunTime: 1.0})
	}

	err := ValidateSpec(spec)
	require.Error(t, err)
	var jerr *errors.JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, errors.KindSchema, jerr.Kind)
}

func TestValidateSpec_RejectsExcessivePlaytime(t *testing.T) {
	spec := &AnimationSpec{
		SceneKind: SceneKind2D,
		Objects:   []ObjectDecl{{ID: "c", Kind: "Circle"}},
		Steps: []StepDecl{
			{Action: "FadeIn", TargetIDs: []string{"c"}, RunTime: MaxStepRunTimeS, WaitAfter: MaxStepWaitAfterS},
			{Action: "FadeOut", TargetIDs: []string{"c"}, RunTime: MaxStepRunTimeS, WaitAfter: MaxStepWaitAfterS},
			{Action: "FadeIn", TargetIDs: []string{"c"}, RunTime: MaxStepRunTimeS, WaitAfter: MaxStepWaitAfterS},
			{Action: "FadeOut", TargetIDs: []string{"c"}, RunTime: MaxStepRunTimeS, WaitAfter: MaxStepWaitAfterS},
			{Action: "FadeIn", TargetIDs: []string{"c"}, RunTime: MinStepRunTimeS},
		},
	}

	err := ValidateSpec(spec)
	require.Error(t, err)
	var jerr *errors.JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, errors.KindSchema, jerr.Kind)
}

func TestValidateSpec_RejectsDuplicateObjectIDs(t *testing.T) {
	spec := validSpec()
	spec.Objects = append(spec.Objects, ObjectDecl{ID: "c", Kind: "Square"})

	err := ValidateSpec(spec)
	require.Error(t, err)
	var jerr *errors.JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, errors.KindSchema, jerr.Kind)
}

func TestValidateSpec_RejectsMalformedObjectID(t *testing.T) {
	spec := validSpec()
	spec.Objects[0].ID = "Invalid-ID"

	err := ValidateSpec(spec)
	require.Error(t, err)
	var jerr *errors.JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, errors.KindSchema, jerr.Kind)
}

func TestValidateSpec_RejectsUndeclaredStepTarget(t *testing.T) {
	spec := validSpec()
	spec.Steps[0].TargetIDs = []string{"nonexistent"}

	err := ValidateSpec(spec)
	require.Error(t, err)
	var jerr *errors.JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, errors.KindSchema, jerr.Kind)
}

func TestValidateSpec_RejectsStepRunTimeOutOfRange(t *testing.T) {
	spec := validSpec()
	spec.Steps[0].RunTime = MaxStepRunTimeS + 0.001

	err := ValidateSpec(spec)
	require.Error(t, err)
	var jerr *errors.JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, errors.KindSchema, jerr.Kind)
}
