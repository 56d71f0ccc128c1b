package domain

import (
	"fmt"
	"regexp"

	"github.com/animathic/backend/pkg/errors"
)

var objectIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// ValidateSpec enforces the structural invariants an AnimationSpec must
// satisfy before it reaches the Code Synthesizer (§3 "Invariants"):
// cardinality caps, id format and uniqueness, every target_ids reference
// resolving to a declared object, per-step timing bounds, and total
// playtime. Breaches are reported as errors.KindSchema (§8 "Spec with 51
// objects, 101 steps, or 60.001s playtime: rejected with schema").
func ValidateSpec(spec *AnimationSpec) error {
	if len(spec.Objects) > MaxObjects {
		return errors.New(errors.KindSchema, fmt.Sprintf("%d objects exceeds max %d", len(spec.Objects), MaxObjects))
	}
	if len(spec.Steps) > MaxSteps {
		return errors.New(errors.KindSchema, fmt.Sprintf("%d steps exceeds max %d", len(spec.Steps), MaxSteps))
	}
	if spec.DurationHint != 0 && (spec.DurationHint < MinDurationHintS || spec.DurationHint > MaxDurationHintS) {
		return errors.New(errors.KindSchema, fmt.Sprintf("duration_hint %.3f out of range [%.1f,%.1f]", spec.DurationHint, MinDurationHintS, MaxDurationHintS))
	}

	declared := make(map[string]struct{}, len(spec.Objects))
	for _, obj := range spec.Objects {
		if !objectIDPattern.MatchString(obj.ID) {
			return errors.New(errors.KindSchema, fmt.Sprintf("object id %q does not match [a-z][a-z0-9_]{0,31}", obj.ID))
		}
		if _, dup := declared[obj.ID]; dup {
			return errors.New(errors.KindSchema, fmt.Sprintf("duplicate object id %q", obj.ID))
		}
		declared[obj.ID] = struct{}{}
	}

	var totalPlaytime float64
	for _, step := range spec.Steps {
		for _, id := range step.TargetIDs {
			if _, ok := declared[id]; !ok {
				return errors.New(errors.KindSchema, fmt.Sprintf("step targets undeclared object %q", id))
			}
		}
		if step.RunTime < MinStepRunTimeS || step.RunTime > MaxStepRunTimeS {
			return errors.New(errors.KindSchema, fmt.Sprintf("run_time %.3f out of range [%.1f,%.1f]", step.RunTime, MinStepRunTimeS, MaxStepRunTimeS))
		}
		if step.WaitAfter < MinStepWaitAfterS || step.WaitAfter > MaxStepWaitAfterS {
			return errors.New(errors.KindSchema, fmt.Sprintf("wait_after %.3f out of range [%.1f,%.1f]", step.WaitAfter, MinStepWaitAfterS, MaxStepWaitAfterS))
		}
		totalPlaytime += step.RunTime + step.WaitAfter
	}
	if totalPlaytime > MaxTotalPlaytimeS {
		return errors.New(errors.KindSchema, fmt.Sprintf("total playtime %.3fs exceeds max %.1fs", totalPlaytime, MaxTotalPlaytimeS))
	}

	return nil
}
