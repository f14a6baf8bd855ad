// Package globe implements the interactive orthographic globe engine: camera,
// interaction state machine, data layers and the per-frame compositor.
package globe

import "time"

// Zoom and pitch limits.
const (
	MinZoom  = 0.5
	MaxZoom  = 4.0
	MinPitch = -90.0
	MaxPitch = 90.0
)

// Config holds the tunable constants of the camera and interaction model.
// All per-frame factors are applied once per Tick.
type Config struct {
	ZoomDamping        float64       // fraction of remaining zoom delta applied per frame
	DragSensitivity    float64       // degrees of rotation per pixel of drag at zoom 1
	WheelSensitivity   float64       // zoom units per wheel delta unit
	Friction           float64       // inertial velocity multiplier per frame
	MinVelocity        float64       // degrees/frame below which inertia stops
	AutoRotateSpeed    float64       // yaw degrees per frame while auto-rotating
	PitchRelax         float64       // fraction of pitch removed per auto-rotate frame
	FocusEase          float64       // fraction of remaining angle closed per focus frame
	InteractionTimeout time.Duration // idle delay before auto behavior resumes
	RadiusFill         float64       // globe radius at zoom 1 as a fraction of the half viewport
}

// DefaultConfig returns the tuning used by the terminal globe.
func DefaultConfig() Config {
	return Config{
		ZoomDamping:        0.1,
		DragSensitivity:    0.25,
		WheelSensitivity:   0.001,
		Friction:           0.92,
		MinVelocity:        0.01,
		AutoRotateSpeed:    0.15,
		PitchRelax:         0.05,
		FocusEase:          0.08,
		InteractionTimeout: 4 * time.Second,
		RadiusFill:         0.9,
	}
}
