package flight

import (
	"errors"
	"fmt"
	"math"

	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

var (
	// ErrInvalidConfig is returned when a controller cannot be built from its configuration.
	ErrInvalidConfig = errors.New("invalid flight configuration")
	// ErrAxisNotControlled is returned when telemetry is requested for an inactive axis.
	ErrAxisNotControlled = errors.New("axis not controlled")
)

// DefaultAttitudeLimitDeg is the pitch and roll angle that trips the failsafe.
const DefaultAttitudeLimitDeg = 45.0

// ThrustLimits bounds the collective thrust handed to the mixer.
type ThrustLimits struct {
	Min, Max float64
}

// Config describes one controller instance.
type Config struct {
	// Gains selects the active axes and their PID gains.
	Gains map[Axis]Gains
	Mixer Mixer
	// AttitudeLimitDeg is the failsafe pitch and roll limit in degrees.
	AttitudeLimitDeg float64
	// ThrustLimits clamps the collective thrust when set.
	ThrustLimits *ThrustLimits
}

// DefaultConfig returns a configuration with the default mixer and failsafe
// limit and no active axes.
func DefaultConfig() Config {
	return Config{
		Gains:            map[Axis]Gains{},
		Mixer:            DefaultMixer(),
		AttitudeLimitDeg: DefaultAttitudeLimitDeg,
	}
}

func (c Config) validate() error {
	if !(c.AttitudeLimitDeg > 0) || math.IsInf(c.AttitudeLimitDeg, 0) {
		return fmt.Errorf("attitude limit %v: %w", c.AttitudeLimitDeg, ErrInvalidConfig)
	}
	if c.Mixer.PitchRollLimit < 0 || c.Mixer.YawLimit < 0 {
		return fmt.Errorf("negative mixer limit: %w", ErrInvalidConfig)
	}
	if c.ThrustLimits != nil && !(c.ThrustLimits.Min < c.ThrustLimits.Max) {
		return fmt.Errorf("thrust limits [%v, %v]: %w", c.ThrustLimits.Min, c.ThrustLimits.Max, ErrInvalidConfig)
	}
	return nil
}

// Controller turns sensed state and set-points into motor commands.
// It is not safe for concurrent use.
type Controller struct {
	bank          *AxisBank
	mixer         Mixer
	profile       Profile
	attitudeLimit float64
	thrustLimits  *ThrustLimits
	failSafe      bool
}

// New validates cfg and builds a controller flying profile.
func New(cfg Config, profile Profile) (*Controller, error) {
	if profile == nil {
		return nil, fmt.Errorf("no flight profile: %w", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	bank, err := NewAxisBank(cfg.Gains)
	if err != nil {
		return nil, err
	}
	for _, axis := range profile.RequiredAxes() {
		if !bank.Has(axis) {
			return nil, fmt.Errorf("profile %s needs the %s axis: %w", profile.Name(), axis, ErrInvalidConfig)
		}
	}

	var limits *ThrustLimits
	if cfg.ThrustLimits != nil {
		l := *cfg.ThrustLimits
		limits = &l
	}
	profile.Reset()
	return &Controller{
		bank:          bank,
		mixer:         cfg.Mixer,
		profile:       profile,
		attitudeLimit: mathx.Deg2Rad(cfg.AttitudeLimitDeg),
		thrustLimits:  limits,
	}, nil
}

// Iterate runs one control tick.
//
// The failsafe is checked first, then the profile advances, then the PID loops
// and the mixer run if the profile asks for it. Any tick that does not drive
// the motors returns zero commands.
func (c *Controller) Iterate(state QuadState, sp SetPoints) Commands {
	if !c.failSafe && c.attitudeExceeded(state) {
		c.failSafe = true
	}
	if c.failSafe {
		return Commands{}
	}

	plan := c.profile.Plan(state, sp)
	if !plan.Active {
		return Commands{}
	}

	for _, axis := range AllAxes {
		c.bank.SetSetPoint(axis, plan.Targets[axis])
	}
	corr := c.bank.Update(Sensed(state), state.DeltaTime)

	thrust := plan.Thrust + corr[AxisHeight]
	if c.thrustLimits != nil {
		thrust = mathx.Constrain(thrust, c.thrustLimits.Min, c.thrustLimits.Max)
	}
	return c.mixer.Mix(thrust, corr[AxisPitch], corr[AxisRoll], corr[AxisYaw])
}

// NaN attitude counts as exceeded.
func (c *Controller) attitudeExceeded(state QuadState) bool {
	return !(math.Abs(state.Pitch) <= c.attitudeLimit) || !(math.Abs(state.Roll) <= c.attitudeLimit)
}

// Halt forces the failsafe. Calling it again has no further effect.
func (c *Controller) Halt() {
	c.failSafe = true
}

// Reset leaves the failsafe and restarts the profile with cleared controllers.
func (c *Controller) Reset() {
	c.failSafe = false
	c.profile.Reset()
	c.bank.Reset()
}

// Mode returns ModeFailSafe while the failsafe is latched, otherwise the profile mode.
func (c *Controller) Mode() Mode {
	if c.failSafe {
		return ModeFailSafe
	}
	return c.profile.Mode()
}

func (c *Controller) FailSafe() bool         { return c.failSafe }
func (c *Controller) Profile() Profile       { return c.profile }
func (c *Controller) Bank() *AxisBank        { return c.bank }
func (c *Controller) Mixer() Mixer           { return c.mixer }
func (c *Controller) AttitudeLimit() float64 { return c.attitudeLimit }
