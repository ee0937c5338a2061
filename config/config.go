// Package config loads controller descriptions from YAML files and built-in presets.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

// SupportedVersions is the file format range this build reads.
const SupportedVersions = "^1.0"

var (
	ErrUnsupportedVersion = errors.New("config: unsupported file version")
	ErrUnknownProfile     = errors.New("config: unknown profile")
	ErrUnknownPreset      = errors.New("config: unknown preset")
)

//go:embed presets/*.yaml
var presets embed.FS

// File is the on-disk controller description.
type File struct {
	Version      string               `yaml:"version"`
	Name         string               `yaml:"name"`
	Axes         map[string]GainsFile `yaml:"axes"`
	Mixer        MixerFile            `yaml:"mixer"`
	FailSafe     FailSafeFile         `yaml:"failsafe"`
	ThrustLimits *ThrustLimitsFile    `yaml:"thrust_limits"`
	Profile      ProfileFile          `yaml:"profile"`
	Sim          SimFile              `yaml:"sim"`
}

type GainsFile struct {
	Kp               float64 `yaml:"kp"`
	Ki               float64 `yaml:"ki"`
	Kd               float64 `yaml:"kd"`
	IntegralDisabled bool    `yaml:"integral_disabled"`
	IntegralLimit    float64 `yaml:"integral_limit"`
}

// MixerFile leaves unset fields at the flight.DefaultMixer values.
type MixerFile struct {
	PitchRollLimit *float64 `yaml:"pitch_roll_limit"`
	YawLimit       *float64 `yaml:"yaw_limit"`
	YawSign        *float64 `yaml:"yaw_sign"`
}

type FailSafeFile struct {
	AttitudeLimitDeg float64 `yaml:"attitude_limit_deg"`
}

type ThrustLimitsFile struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type ProfileFile struct {
	Kind      string        `yaml:"kind"`
	Stabilize StabilizeFile `yaml:"stabilize"`
	Mission   *MissionFile  `yaml:"mission"`
	Waypoints WaypointsFile `yaml:"waypoints"`
}

type StabilizeFile struct {
	Height float64 `yaml:"height"`
}

// MissionFile leaves zero fields at flight.DefaultMissionParams values.
type MissionFile struct {
	TakeoffAfter float64 `yaml:"takeoff_after"`
	TargetHeight float64 `yaml:"target_height"`
	Tolerance    float64 `yaml:"tolerance"`
	Hold         float64 `yaml:"hold"`
	DescentRate  float64 `yaml:"descent_rate"`
	Floor        float64 `yaml:"floor"`
	BaseThrust   float64 `yaml:"base_thrust"`
	PitchDeg     float64 `yaml:"pitch_deg"`
	RollDeg      float64 `yaml:"roll_deg"`
	YawDeg       float64 `yaml:"yaw_deg"`
}

type WaypointsFile struct {
	StartAfter float64        `yaml:"start_after"`
	EndAfter   float64        `yaml:"end_after"`
	BaseThrust float64        `yaml:"base_thrust"`
	Points     []WaypointFile `yaml:"points"`
}

type WaypointFile struct {
	At       float64 `yaml:"at"`
	Height   float64 `yaml:"height"`
	PitchDeg float64 `yaml:"pitch_deg"`
	RollDeg  float64 `yaml:"roll_deg"`
	YawDeg   float64 `yaml:"yaw_deg"`
}

// SimFile holds simulator defaults carried alongside the controller.
type SimFile struct {
	DeltaTime       float64 `yaml:"dt"`
	Duration        float64 `yaml:"duration"`
	InitialPitchDeg float64 `yaml:"initial_pitch_deg"`
	InitialRollDeg  float64 `yaml:"initial_roll_deg"`
}

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a YAML document and checks its version.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}
	return &f, nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("missing version: %w", ErrUnsupportedVersion)
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("version %q: %v: %w", v, err, ErrUnsupportedVersion)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("version constraint: %w", err)
	}
	if !c.Check(version) {
		return fmt.Errorf("version %s outside %s: %w", version, SupportedVersions, ErrUnsupportedVersion)
	}
	return nil
}

// Preset returns one of the built-in controller descriptions.
func Preset(name string) (*File, error) {
	data, err := presets.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%q (have %s): %w", name, strings.Join(Presets(), ", "), ErrUnknownPreset)
	}
	return Parse(data)
}

// Presets lists the built-in preset names.
func Presets() []string {
	entries, err := presets.ReadDir("presets")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// FlightConfig converts the file into a flight.Config.
func (f *File) FlightConfig() (flight.Config, error) {
	cfg := flight.DefaultConfig()
	for name, g := range f.Axes {
		axis, err := flight.ParseAxis(name)
		if err != nil {
			return cfg, err
		}
		cfg.Gains[axis] = flight.Gains{
			Kp:               g.Kp,
			Ki:               g.Ki,
			Kd:               g.Kd,
			IntegralDisabled: g.IntegralDisabled,
			IntegralLimit:    g.IntegralLimit,
		}
	}
	if f.Mixer.PitchRollLimit != nil {
		cfg.Mixer.PitchRollLimit = *f.Mixer.PitchRollLimit
	}
	if f.Mixer.YawLimit != nil {
		cfg.Mixer.YawLimit = *f.Mixer.YawLimit
	}
	if f.Mixer.YawSign != nil {
		cfg.Mixer.YawSign = *f.Mixer.YawSign
	}
	if f.FailSafe.AttitudeLimitDeg != 0 {
		cfg.AttitudeLimitDeg = f.FailSafe.AttitudeLimitDeg
	}
	if f.ThrustLimits != nil {
		cfg.ThrustLimits = &flight.ThrustLimits{Min: f.ThrustLimits.Min, Max: f.ThrustLimits.Max}
	}
	return cfg, nil
}

// FlightProfile builds the profile named by profile.kind.
func (f *File) FlightProfile() (flight.Profile, error) {
	switch f.Profile.Kind {
	case "stabilize", "":
		return &flight.Stabilize{Height: f.Profile.Stabilize.Height}, nil
	case "mission":
		return flight.NewMission(f.missionParams()), nil
	case "waypoints":
		w := f.Profile.Waypoints
		p := flight.WaypointParams{
			StartAfter: w.StartAfter,
			EndAfter:   w.EndAfter,
			BaseThrust: w.BaseThrust,
		}
		for _, pt := range w.Points {
			p.Waypoints = append(p.Waypoints, flight.Waypoint{
				At:     pt.At,
				Height: pt.Height,
				Pitch:  mathx.Deg2Rad(pt.PitchDeg),
				Roll:   mathx.Deg2Rad(pt.RollDeg),
				Yaw:    mathx.Deg2Rad(pt.YawDeg),
			})
		}
		return flight.NewWaypoints(p)
	default:
		return nil, fmt.Errorf("%q: %w", f.Profile.Kind, ErrUnknownProfile)
	}
}

func (f *File) missionParams() flight.MissionParams {
	p := flight.DefaultMissionParams()
	m := f.Profile.Mission
	if m == nil {
		return p
	}
	set := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	set(&p.TakeoffAfter, m.TakeoffAfter)
	set(&p.TargetHeight, m.TargetHeight)
	set(&p.Tolerance, m.Tolerance)
	set(&p.Hold, m.Hold)
	set(&p.DescentRate, m.DescentRate)
	set(&p.Floor, m.Floor)
	p.BaseThrust = m.BaseThrust
	p.Pitch = mathx.Deg2Rad(m.PitchDeg)
	p.Roll = mathx.Deg2Rad(m.RollDeg)
	p.Yaw = mathx.Deg2Rad(m.YawDeg)
	return p
}

// Build creates the controller described by the file.
func (f *File) Build() (*flight.Controller, error) {
	cfg, err := f.FlightConfig()
	if err != nil {
		return nil, err
	}
	profile, err := f.FlightProfile()
	if err != nil {
		return nil, err
	}
	c, err := flight.New(cfg, profile)
	if err != nil {
		return nil, fmt.Errorf("build %s controller: %w", f.Name, err)
	}
	return c, nil
}
