package adapters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/animathic/backend/internal/allowlist"
	"github.com/animathic/backend/internal/domain"
)

// systemInstruction enumerates the allowlisted vocabulary (§4.5, §6) so
// every backend is given the same frozen surface regardless of model.
// Reimplemented for the animation domain from this codebase's
// AdScriptSystemPrompt + BuildEnhancedSystemPrompt pattern.
func systemInstruction() string {
	return fmt.Sprintf(`You are a precise animation scene planner. Given a natural-language
prompt, respond with ONLY valid JSON matching the AnimationSpec schema below.
Do not include any explanatory text outside the JSON.

Schema:
%s

Allowed scene kinds: %s
Allowed object kinds: %s
Allowed actions: %s
Allowed colors: %s

Rules:
- Use only the allowed kinds, actions, and colors above; any other value is rejected.
- objects: at most %d entries. steps: at most %d entries.
- duration_hint must be between %.1f and %.1f seconds.
- Every step's run_time must be between %.1f and %.1f seconds, wait_after between %.1f and %.1f seconds.
- Every step's target_ids must reference an id declared in objects.`,
		animationSpecSchemaJSON(),
		joinSorted(sceneKinds()),
		joinSorted(objectKindStrings()),
		joinSorted(actionStrings()),
		joinSorted(colorStrings()),
		domain.MaxObjects, domain.MaxSteps,
		domain.MinDurationHintS, domain.MaxDurationHintS,
		domain.MinStepRunTimeS, domain.MaxStepRunTimeS,
		domain.MinStepWaitAfterS, domain.MaxStepWaitAfterS,
	)
}

func buildUserPrompt(req Request) string {
	if req.RepairContext == "" {
		return req.Prompt
	}
	return fmt.Sprintf(`%s

Your previous response was invalid. Diagnostic:
%s

Re-issue a corrected response that is valid JSON matching the schema exactly.`,
		req.Prompt, req.RepairContext)
}

// animationSpecSchemaJSON is a hand-built JSON Schema constant, not a
// reflection-derived one: no library in this codebase's dependency graph
// generates JSON Schema, matching the same hand-built-payload style as
// GPT4oRequest.Input elsewhere in this package.
func animationSpecSchemaJSON() string {
	return `{
  "scene_kind": "2d|moving_camera|3d",
  "duration_hint": "number (seconds)",
  "background": "color token",
  "objects": [{"id": "string", "kind": "object kind token", "params": {}, "style": {"color": "color token", "stroke_width": "number", "fill_opacity": "number", "z_index": "integer"}}],
  "steps": [{"action": "action token", "target_ids": ["string"], "params": {}, "run_time": "number", "wait_after": "number"}],
  "camera": {"frame_center_x": "number", "frame_center_y": "number", "zoom": "number", "phi_deg": "number", "theta_deg": "number"}
}`
}

func sceneKinds() []string {
	return []string{string(domain.SceneKind2D), string(domain.SceneKindMovingCamera), string(domain.SceneKind3D)}
}

func objectKindStrings() []string {
	out := make([]string, 0, len(allowlist.ObjectKinds))
	for k := range allowlist.ObjectKinds {
		out = append(out, string(k))
	}
	return out
}

func actionStrings() []string {
	out := make([]string, 0, len(allowlist.Actions))
	for a := range allowlist.Actions {
		out = append(out, string(a))
	}
	return out
}

func colorStrings() []string {
	out := make([]string, 0, len(allowlist.Colors))
	for c := range allowlist.Colors {
		out = append(out, string(c))
	}
	return out
}

func joinSorted(vals []string) string {
	sort.Strings(vals)
	return strings.Join(vals, ", ")
}
