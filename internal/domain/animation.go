package domain

// AnimationSpec is the structured intermediate representation that is the
// sole contract across the NL -> source boundary (§3, §9 "tagged variant
// replaces dynamic dispatch on string kind/action"). The LLM layer produces
// it; the Code Synthesizer (C4) consumes it.
type AnimationSpec struct {
	SceneKind    SceneKind    `json:"scene_kind"`
	DurationHint float64      `json:"duration_hint"`
	Background   Color        `json:"background"`
	Objects      []ObjectDecl `json:"objects"`
	Steps        []StepDecl   `json:"steps"`
	Camera       *CameraDecl  `json:"camera,omitempty"`
}

// SceneKind selects the scene base class the synthesizer emits (§6 "Scene
// kinds"). It is a tagged variant: the string form appears only at the JSON
// boundary and in the allowlist, never as a free-form dispatch key.
type SceneKind string

const (
	SceneKind2D           SceneKind = "2d"
	SceneKindMovingCamera SceneKind = "moving_camera"
	SceneKind3D           SceneKind = "3d"
)

// Color is a closed-palette token (§6 "Colors").
type Color string

// ObjectKind is a closed-vocabulary token (§6 "Object kinds").
type ObjectKind string

// Action is a closed-vocabulary token (§6 "Actions").
type Action string

// ObjectDecl declares one scene object (§3 "ObjectDecl").
type ObjectDecl struct {
	ID     string                 `json:"id"`
	Kind   ObjectKind             `json:"kind"`
	Params map[string]interface{} `json:"params,omitempty"`
	Style  Style                  `json:"style,omitempty"`
}

// Style carries the optional per-object presentation fields, each with a
// defined default applied by the synthesizer when unset.
type Style struct {
	Color       Color    `json:"color,omitempty"`
	StrokeWidth *float64 `json:"stroke_width,omitempty"`
	FillOpacity *float64 `json:"fill_opacity,omitempty"`
	ZIndex      *int     `json:"z_index,omitempty"`
}

// Default style values applied by the synthesizer when a Style field is nil.
const (
	DefaultStrokeWidth = 2.0
	DefaultFillOpacity = 0.0
	DefaultZIndex      = 0
	DefaultColor       = Color("WHITE")
)

// StepDecl declares one action against previously-declared objects
// (§3 "StepDecl").
type StepDecl struct {
	Action     Action   `json:"action"`
	TargetIDs  []string `json:"target_ids"`
	Params     map[string]interface{} `json:"params,omitempty"`
	RunTime    float64  `json:"run_time"`
	WaitAfter  float64  `json:"wait_after"`
}

// CameraDecl optionally fixes the frame center/zoom or 3D orientation.
type CameraDecl struct {
	FrameCenterX *float64 `json:"frame_center_x,omitempty"`
	FrameCenterY *float64 `json:"frame_center_y,omitempty"`
	Zoom         *float64 `json:"zoom,omitempty"`
	PhiDeg       *float64 `json:"phi_deg,omitempty"`
	ThetaDeg     *float64 `json:"theta_deg,omitempty"`
}

// Structural bounds enforced as validation invariants (§3, §8 boundary
// behaviors): specs outside these are rejected with kind=schema.
const (
	MaxObjects           = 50
	MaxSteps             = 100
	MaxTotalPlaytimeS    = 60.0
	MinDurationHintS     = 1.0
	MaxDurationHintS     = 30.0
	MinStepRunTimeS      = 0.1
	MaxStepRunTimeS      = 10.0
	MinStepWaitAfterS    = 0.0
	MaxStepWaitAfterS    = 5.0
)
