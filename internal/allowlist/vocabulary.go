// Package allowlist holds the frozen vocabulary (§6 "Allowlisted
// vocabulary") shared by the Code Synthesizer (internal/synth) and the
// source validator in this package. It is a single source of truth: any
// extension to object kinds, actions, colors, or scene kinds requires an
// explicit update here, never a separate copy elsewhere.
package allowlist

import "github.com/animathic/backend/internal/domain"

// ObjectKinds is the closed set of constructor identifiers the synthesizer
// may emit and the validator may accept.
var ObjectKinds = map[domain.ObjectKind]struct{}{
	"Text": {}, "Circle": {}, "Square": {}, "Rectangle": {}, "Triangle": {},
	"Line": {}, "Arrow": {}, "Dot": {}, "VGroup": {}, "Axes": {},
	"ParametricFunction": {}, "Polygon": {}, "RegularPolygon": {},
}

// Actions is the closed set of step identifiers.
var Actions = map[domain.Action]struct{}{
	"Create": {}, "Write": {}, "FadeIn": {}, "FadeOut": {}, "Transform": {},
	"ReplacementTransform": {}, "MoveAlongPath": {}, "Rotate": {}, "Scale": {},
	"Shift": {},
}

// Colors is the closed palette. Values are the identifiers emitted
// verbatim in synthesized source (§6 "Colors").
var Colors = map[domain.Color]struct{}{
	"WHITE": {}, "BLACK": {}, "RED": {}, "GREEN": {}, "BLUE": {}, "YELLOW": {},
	"ORANGE": {}, "PURPLE": {}, "TEAL": {}, "PINK": {}, "GRAY": {},
}

// sceneBases maps a requested scene_kind to the scene base class the
// synthesizer's GeneratedScene declaration inherits from (§6 "Scene kinds").
var sceneBases = map[domain.SceneKind]string{
	domain.SceneKind2D:           "Scene",
	domain.SceneKindMovingCamera: "MovingCameraScene",
	domain.SceneKind3D:           "ThreeDScene",
}

// IsObjectKind reports whether k is in the frozen object-kind vocabulary.
func IsObjectKind(k domain.ObjectKind) bool {
	_, ok := ObjectKinds[k]
	return ok
}

// IsAction reports whether a is in the frozen action vocabulary.
func IsAction(a domain.Action) bool {
	_, ok := Actions[a]
	return ok
}

// IsColor reports whether c is in the frozen palette.
func IsColor(c domain.Color) bool {
	_, ok := Colors[c]
	return ok
}

// SceneBase returns the scene base class for kind and whether kind is known.
func SceneBase(kind domain.SceneKind) (string, bool) {
	base, ok := sceneBases[kind]
	return base, ok
}
