// Package synth implements the Code Synthesizer (C4): a pure, deterministic
// transform from AnimationSpec to source text. No LLM involvement, no
// network or file I/O — given equal specs it emits byte-identical source
// (§8 "Synthesizer determinism").
package synth

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/animathic/backend/internal/allowlist"
	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/pkg/errors"
)

const floatPrecision = 6

// Synthesize emits source text for spec, or refuses with
// errors.KindUnknownVocabulary if spec references a kind/action/color
// outside the frozen allowlist (§4.4: "this must never reach C3").
func Synthesize(spec *domain.AnimationSpec) (string, error) {
	base, ok := allowlist.SceneBase(spec.SceneKind)
	if !ok {
		return "", errors.New(errors.KindUnknownVocabulary, fmt.Sprintf("unknown scene_kind %q", spec.SceneKind))
	}
	if spec.Background != "" && !allowlist.IsColor(spec.Background) {
		return "", errors.New(errors.KindUnknownVocabulary, fmt.Sprintf("unknown background color %q", spec.Background))
	}

	locals := make(map[string]struct{}, len(spec.Objects))
	var b strings.Builder

	b.WriteString("from manim import *\n")
	b.WriteString("import numpy as np\n")
	fmt.Fprintf(&b, "class GeneratedScene(%s):\n", base)
	b.WriteString("    def construct(self):\n")

	for _, obj := range spec.Objects {
		line, err := emitObject(obj)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		locals[obj.ID] = struct{}{}
	}

	for _, step := range spec.Steps {
		line, err := emitStep(step, locals)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}

	return b.String(), nil
}

func emitObject(obj domain.ObjectDecl) (string, error) {
	if !allowlist.IsObjectKind(obj.Kind) {
		return "", errors.New(errors.KindUnknownVocabulary, fmt.Sprintf("unknown object kind %q", obj.Kind))
	}
	if obj.Style.Color != "" && !allowlist.IsColor(obj.Style.Color) {
		return "", errors.New(errors.KindUnknownVocabulary, fmt.Sprintf("unknown color %q", obj.Style.Color))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "        %s = %s(%s)\n", obj.ID, obj.Kind, formatParams(obj.Params))

	color := obj.Style.Color
	if color == "" {
		color = domain.DefaultColor
	}
	fmt.Fprintf(&b, "        %s.set_color(%s)\n", obj.ID, color)

	strokeWidth := domain.DefaultStrokeWidth
	if obj.Style.StrokeWidth != nil {
		strokeWidth = *obj.Style.StrokeWidth
	}
	fmt.Fprintf(&b, "        %s.set_stroke(width=%s)\n", obj.ID, formatFloat(strokeWidth))

	fillOpacity := domain.DefaultFillOpacity
	if obj.Style.FillOpacity != nil {
		fillOpacity = *obj.Style.FillOpacity
	}
	fmt.Fprintf(&b, "        %s.set_fill(opacity=%s)\n", obj.ID, formatFloat(fillOpacity))

	zIndex := domain.DefaultZIndex
	if obj.Style.ZIndex != nil {
		zIndex = *obj.Style.ZIndex
	}
	fmt.Fprintf(&b, "        %s.set_z_index(%d)\n", obj.ID, zIndex)

	return b.String(), nil
}

func emitStep(step domain.StepDecl, locals map[string]struct{}) (string, error) {
	if !allowlist.IsAction(step.Action) {
		return "", errors.New(errors.KindUnknownVocabulary, fmt.Sprintf("unknown action %q", step.Action))
	}
	for _, id := range step.TargetIDs {
		if _, ok := locals[id]; !ok {
			return "", errors.New(errors.KindShape, fmt.Sprintf("step targets undeclared object %q", id))
		}
	}

	args := strings.Join(step.TargetIDs, ", ")
	params := formatParams(step.Params)
	call := string(step.Action) + "(" + args
	if params != "" {
		call += ", " + params
	}
	call += ")"

	var b strings.Builder
	fmt.Fprintf(&b, "        self.play(%s, run_time=%s)\n", call, formatFloat(step.RunTime))
	if step.WaitAfter > 0 {
		fmt.Fprintf(&b, "        self.wait(%s)\n", formatFloat(step.WaitAfter))
	}
	return b.String(), nil
}

// formatParams renders a kwargs list in a fixed key order so repeated
// synthesis of the same spec is byte-identical regardless of Go's
// randomized map iteration.
func formatParams(params map[string]interface{}) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValue(params[k]))
	}
	return strings.Join(parts, ", ")
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return formatFloat(t)
	case int:
		return strconv.Itoa(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return strconv.Quote(t)
	default:
		return strconv.Quote(fmt.Sprintf("%v", t))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', floatPrecision, 64)
}
