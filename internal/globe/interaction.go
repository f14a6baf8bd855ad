package globe

import (
	"math"
	"time"

	"github.com/litescript/ls-globe/internal/astro"
)

// Phase is the rotation behavior the controller applies on a frame.
type Phase int

const (
	PhaseIdle         Phase = iota // user recently interacted; globe holds still
	PhaseDragging                  // rotation follows the pointer
	PhaseInertial                  // rotation coasts on released velocity
	PhaseAutoRotating              // slow spin, pitch relaxing to the equator
	PhaseFocusLocked               // easing toward a selected record
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseInertial:
		return "inertial"
	case PhaseAutoRotating:
		return "auto-rotate"
	case PhaseFocusLocked:
		return "focus"
	default:
		return "unknown"
	}
}

// phaseInputs is everything phase selection depends on.
type phaseInputs struct {
	dragging    bool
	interacting bool
	moving      bool
	focused     bool
}

// derivePhase resolves the active phase. A focus always wins, so a selection
// arriving mid-drag locks immediately.
func derivePhase(in phaseInputs) Phase {
	switch {
	case in.focused:
		return PhaseFocusLocked
	case in.dragging:
		return PhaseDragging
	case in.moving:
		return PhaseInertial
	case in.interacting:
		return PhaseIdle
	default:
		return PhaseAutoRotating
	}
}

// Controller turns pointer and wheel input into camera motion and runs the
// inertia, auto-rotate and focus-lock behaviors.
type Controller struct {
	cam *Camera
	cfg Config

	dragging     bool
	interacting  bool
	lastX, lastY float64
	velYaw       float64 // degrees/frame
	velPitch     float64

	idleArmed bool
	idleLeft  time.Duration

	focus *astro.GeoPoint
	phase Phase

	// OnClearSelection is called when a double click hands control back to
	// auto-rotation. The owner of record state should drop its selection.
	OnClearSelection func()
}

// NewController creates a controller driving cam.
func NewController(cam *Camera, cfg Config) *Controller {
	c := &Controller{cam: cam, cfg: cfg}
	c.phase = c.derive()
	return c
}

// Phase returns the phase chosen on the last Advance or input.
func (c *Controller) Phase() Phase { return c.phase }

// Velocity returns the inertial velocity in degrees per frame.
func (c *Controller) Velocity() (yaw, pitch float64) { return c.velYaw, c.velPitch }

// Interacting reports whether the idle timeout is still pending.
func (c *Controller) Interacting() bool { return c.interacting }

// PointerDown starts a drag at (x, y).
func (c *Controller) PointerDown(x, y float64) {
	c.dragging = true
	c.interacting = true
	c.lastX, c.lastY = x, y
	c.velYaw, c.velPitch = 0, 0
	c.idleArmed = false
	c.phase = c.derive()
}

// PointerMove rotates the camera by the cursor delta while dragging.
func (c *Controller) PointerMove(x, y float64) {
	if !c.dragging {
		return
	}
	k := c.cfg.DragSensitivity / math.Max(c.cam.Zoom().Current, MinZoom)
	dYaw := (x - c.lastX) * k
	dPitch := (y - c.lastY) * k
	c.lastX, c.lastY = x, y

	c.cam.Rotate(dYaw, -dPitch)
	c.velYaw, c.velPitch = dYaw, dPitch
}

// PointerUp ends the drag and arms the idle timer. The velocity of the last
// move is kept for inertia.
func (c *Controller) PointerUp(x, y float64) {
	if !c.dragging {
		return
	}
	if x != c.lastX || y != c.lastY {
		c.PointerMove(x, y)
	}
	c.dragging = false
	if c.focus != nil {
		c.velYaw, c.velPitch = 0, 0
	}
	c.armIdle()
	c.phase = c.derive()
}

// Wheel adjusts the zoom target. Positive deltaY zooms out.
func (c *Controller) Wheel(deltaY float64) {
	z := c.cam.Zoom().Target - deltaY*c.cfg.WheelSensitivity
	c.cam.SetZoomTarget(z)
	c.interacting = true
	if !c.dragging {
		c.armIdle()
	}
	c.phase = c.derive()
}

// Nudge rotates the camera by a fixed step, as from the keyboard. It counts
// as interaction and cancels any inertia.
func (c *Controller) Nudge(dYaw, dPitch float64) {
	c.cam.Rotate(dYaw, dPitch)
	c.velYaw, c.velPitch = 0, 0
	c.interacting = true
	if !c.dragging {
		c.armIdle()
	}
	c.phase = c.derive()
}

// Dragging reports whether a pointer drag is in progress.
func (c *Controller) Dragging() bool { return c.dragging }

// DoubleClick resets the zoom and releases any focus.
func (c *Controller) DoubleClick() {
	c.cam.SetZoomTarget(1)
	c.focus = nil
	if c.OnClearSelection != nil {
		c.OnClearSelection()
	}
	c.phase = c.derive()
}

// SetFocus locks the camera onto p, or releases the lock when p is nil.
func (c *Controller) SetFocus(p *astro.GeoPoint) {
	if p == nil {
		c.focus = nil
		return
	}
	fp := p.Clamp()
	c.focus = &fp
	c.velYaw, c.velPitch = 0, 0
}

// Advance applies one frame of rotation for the active phase. dt runs the
// idle timer.
func (c *Controller) Advance(dt time.Duration) Phase {
	if c.idleArmed {
		c.idleLeft -= dt
		if c.idleLeft <= 0 {
			c.idleArmed = false
			c.interacting = false
		}
	}

	c.phase = c.derive()
	switch c.phase {
	case PhaseFocusLocked:
		c.stepFocus()
	case PhaseInertial:
		c.stepInertia()
	case PhaseAutoRotating:
		c.stepAutoRotate()
	}
	return c.phase
}

func (c *Controller) derive() Phase {
	return derivePhase(phaseInputs{
		dragging:    c.dragging,
		interacting: c.interacting,
		moving:      math.Hypot(c.velYaw, c.velPitch) > c.cfg.MinVelocity,
		focused:     c.focus != nil,
	})
}

func (c *Controller) armIdle() {
	c.idleArmed = true
	c.idleLeft = c.cfg.InteractionTimeout
}

func (c *Controller) stepInertia() {
	c.cam.Rotate(c.velYaw, -c.velPitch)
	c.velYaw *= c.cfg.Friction
	c.velPitch *= c.cfg.Friction
	if math.Hypot(c.velYaw, c.velPitch) <= c.cfg.MinVelocity {
		c.velYaw, c.velPitch = 0, 0
	}
}

func (c *Controller) stepAutoRotate() {
	rot := c.cam.Rotation()
	pitch := rot.Pitch() * (1 - c.cfg.PitchRelax)
	if math.Abs(pitch) < 1e-6 {
		pitch = 0
	}
	c.cam.SetRotation(rot.Yaw()+c.cfg.AutoRotateSpeed, pitch)
}

func (c *Controller) stepFocus() {
	rot := c.cam.Rotation()
	yaw := lerpAngle(rot.Yaw(), -c.focus.Lng, c.cfg.FocusEase)
	pitch := rot.Pitch() + (-c.focus.Lat-rot.Pitch())*c.cfg.FocusEase
	c.cam.SetRotation(yaw, pitch)
	c.velYaw, c.velPitch = 0, 0
}
