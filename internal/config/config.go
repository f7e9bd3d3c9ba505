// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the car profile: a read-only, per-component set of
// tuning parameters partitioned by INI-like [section] headers grouping
// keys under [vehicle], [abs], [hill_hold], and so on.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Profile holds every tuning parameter for the controller chain,
// partitioned by the component that owns it.
type Profile struct {
	Vehicle   VehicleParams
	Direction DirectionParams
	Traction  TractionParams
	Yaw       YawParams
	SlipWatch SlipWatchParams
	ABS       ABSParams
	HillHold  HillHoldParams
	Coast     CoastParams
	Steering  SteeringParams
	Surface   SurfaceParams
	IMU       IMUParams
	Wheel     WheelParams
	GPS       GPSParams
	MQTT      MQTTParams
	Transport TransportParams
}

type VehicleParams struct {
	WheelbaseM              float64
	MaxSteerAngleDeg        float64
	DisconnectTimeoutMs     int
	StationaryTimeoutMs     int
	ImuAccelNoiseThreshold  float64
	WheelspinDetectRatio    float64
	WheelspinMaxRatio       float64
	WheelspinDebounceMs     int
	GPSTrustFloorKmh        float64
	GPSDriftCorrectionRate  float64
	HeadingImuOnlySpeedKmh  float64
	HeadingGpsTrustSpeedKmh float64
	SpeedLowPassAlpha       float64
	HeadingLowPassAlpha     float64
}

type DirectionParams struct {
	ImuBiasLowPassAlpha         float64
	SeedThrottleThreshold       int16
	SeedForwardAccelMS2         float64
	SeedSpeedMS                 float64
	YawDisagreementThresholdDps float64
	YawDisagreementHoldMs       int
	StationaryDecayFactor       float64
	StationaryThrottle          int16
	StationaryAccelMS2          float64
	HysteresisForwardKmh        float64
	HysteresisStoppedKmh        float64
}

type TractionParams struct {
	LaunchMaxSpeedKmh       float64
	CruiseMinSpeedKmh       float64
	TargetSlipRatio         float64
	SlipHighCutRatio        float64
	SlipHoldBandRatio       float64
	LaunchRampRatePerSec    float64
	LaunchCeiling           float64
	LaunchHighCutRatio      float64
	CruiseSlipThreshold     float64
	CruiseFallRatePerSec    float64
	CruiseRecoverRatePerSec float64
	TurnYawThresholdDps     float64
	TurnFactorMultiplier    float64
}

type YawParams struct {
	UndersteerCoefficient     float64
	OversteerThresholdDps     float64
	UndersteerThresholdDps    float64
	ThrottleCutStepOversteer  float64
	ThrottleCutStepUndersteer float64
	RecoverRateSlow           float64
	RecoverRateFast           float64
	SettleTimeMs              int
	MinSpeedKmh               float64
	VirtualBrakeScale         float64
	YawLowPassAlpha           float64
	CutFloor                  float64
}

type SlipWatchParams struct {
	ThresholdMS2  float64
	DurationMs    int
	DecayRate     float64
	RecoverRate   float64
	MinMultiplier float64
	MinSpeedKmh   float64
	MinThrottle   int16
	LowPassAlpha  float64
}

type ABSParams struct {
	MinBrakeThrottle    int16
	MinSpeedKmh         float64
	BaseSlipThreshold   float64
	CycleTimeMs         int
	ApplyRatio          float64
	ReleaseRatio        float64
	MinRetardationRatio float64
	SlipLowPassAlpha    float64
}

type HillHoldParams struct {
	PitchThresholdDeg         float64
	SpeedThresholdKmh         float64
	DeadzoneThrottle          int16
	SettlingTimeMs            int
	HoldStrength              float64
	MaxHoldForce              float64
	ImmediateReleaseThreshold int16
	BlendBaseRate             float64
	BlendFastMultiplier       float64
	BlendSlowMultiplier       float64
	TimeoutMs                 int
}

type CoastParams struct {
	ReleaseUpperThrottle int16
	ReleaseLowerThrottle int16
	MinSpeedKmh          float64
	CoastDurationMs      int
	InitialInjection     int16
	DeadzoneThrottle     int16
}

type SteeringParams struct {
	LowSpeedFactor              float64
	HighSpeedFactor             float64
	HighSpeedKmh                float64
	CounterSteerMinSpeedKmh     float64
	CounterSteerNeutralBand     int16
	CounterSteerYawThresholdDps float64
	CounterSteerStrength        float64
	CounterSteerMaxCorrection   int16
	RateLimitToCenterPerSec     float64
	RateLimitToLockPerSec       float64
	LowPassAlpha                float64
}

type SurfaceParams struct {
	MinSpeedKmh  float64
	MinSteerAbs  int16
	GripMin      float64
	GripMax      float64
	WindowSize   int
	MinSamples   int
	LowPassAlpha float64
}

type IMUParams struct {
	SPIDevice           string
	CSPin               string
	MountPitchInverted  bool
	GyroZNegate         bool
	LateralXNegate      bool
	CalibrationBlobPath string
	PollIntervalMs      int
}

type WheelParams struct {
	GPIOPin             string
	MagnetsPerRev       int
	PulseStaleMs        int
	HeadlightGPIOPin    string
	CircumferenceM      float64
}

type GPSParams struct {
	SerialPort string
	BaudRate   int
}

type MQTTParams struct {
	Broker      string
	ClientID    string
	StatusTopic string
}

type TransportParams struct {
	ListenAddr string
}

// Package-level singleton so every package can call Get without passing
// the profile around explicitly.
var (
	global     *Profile
	globalOnce sync.Once
	globalMu   sync.RWMutex
)

// InitGlobal resolves CAR_PROFILE to a file under profilesDir and loads
// it exactly once.
func InitGlobal(profilesDir string) error {
	var err error
	globalOnce.Do(func() {
		name := os.Getenv("CAR_PROFILE")
		if name == "" {
			err = fmt.Errorf("CAR_PROFILE is not set")
			return
		}
		globalMu.Lock()
		defer globalMu.Unlock()
		global, err = Load(filepath.Join(profilesDir, name+".ini"))
	})
	return err
}

// Get returns the global profile. InitGlobal must be called first.
func Get() *Profile {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// requiredKeys lists every "section.key" the profile must define. Missing
// keys are a startup error.
var requiredKeys = []string{
	"vehicle.wheelbase_m", "vehicle.max_steer_angle_deg", "vehicle.disconnect_timeout_ms",
	"vehicle.stationary_timeout_ms", "vehicle.imu_accel_noise_threshold",
	"vehicle.wheelspin_detect_ratio", "vehicle.wheelspin_max_ratio", "vehicle.wheelspin_debounce_ms",
	"vehicle.gps_trust_floor_kmh", "vehicle.gps_drift_correction_rate",
	"vehicle.heading_imu_only_speed_kmh", "vehicle.heading_gps_trust_speed_kmh",
	"vehicle.speed_low_pass_alpha", "vehicle.heading_low_pass_alpha",

	"direction.imu_bias_low_pass_alpha", "direction.seed_throttle_threshold",
	"direction.seed_forward_accel_ms2", "direction.seed_speed_ms",
	"direction.yaw_disagreement_threshold_dps", "direction.yaw_disagreement_hold_ms",
	"direction.stationary_decay_factor", "direction.stationary_throttle",
	"direction.stationary_accel_ms2", "direction.hysteresis_forward_kmh",
	"direction.hysteresis_stopped_kmh",

	"traction.launch_max_speed_kmh", "traction.cruise_min_speed_kmh", "traction.target_slip_ratio",
	"traction.slip_high_cut_ratio", "traction.slip_hold_band_ratio", "traction.launch_ramp_rate_per_sec",
	"traction.launch_ceiling", "traction.launch_high_cut_ratio", "traction.cruise_slip_threshold",
	"traction.cruise_fall_rate_per_sec", "traction.cruise_recover_rate_per_sec",
	"traction.turn_yaw_threshold_dps", "traction.turn_factor_multiplier",

	"yaw.understeer_coefficient", "yaw.oversteer_threshold_dps", "yaw.understeer_threshold_dps",
	"yaw.throttle_cut_step_oversteer", "yaw.throttle_cut_step_understeer", "yaw.recover_rate_slow",
	"yaw.recover_rate_fast", "yaw.settle_time_ms", "yaw.min_speed_kmh", "yaw.virtual_brake_scale",
	"yaw.yaw_low_pass_alpha", "yaw.cut_floor",

	"slipwatch.threshold_ms2", "slipwatch.duration_ms", "slipwatch.decay_rate",
	"slipwatch.recover_rate", "slipwatch.min_multiplier", "slipwatch.min_speed_kmh",
	"slipwatch.min_throttle", "slipwatch.low_pass_alpha",

	"abs.min_brake_throttle", "abs.min_speed_kmh", "abs.base_slip_threshold", "abs.cycle_time_ms",
	"abs.apply_ratio", "abs.release_ratio", "abs.min_retardation_ratio", "abs.slip_low_pass_alpha",

	"hill_hold.pitch_threshold_deg", "hill_hold.speed_threshold_kmh", "hill_hold.deadzone_throttle",
	"hill_hold.settling_time_ms", "hill_hold.hold_strength", "hill_hold.max_hold_force",
	"hill_hold.immediate_release_threshold", "hill_hold.blend_base_rate",
	"hill_hold.blend_fast_multiplier", "hill_hold.blend_slow_multiplier", "hill_hold.timeout_ms",

	"coast.release_upper_throttle", "coast.release_lower_throttle", "coast.min_speed_kmh",
	"coast.coast_duration_ms", "coast.initial_injection", "coast.deadzone_throttle",

	"steering.low_speed_factor", "steering.high_speed_factor", "steering.high_speed_kmh",
	"steering.counter_steer_min_speed_kmh", "steering.counter_steer_neutral_band",
	"steering.counter_steer_yaw_threshold_dps", "steering.counter_steer_strength",
	"steering.counter_steer_max_correction", "steering.rate_limit_to_center_per_sec",
	"steering.rate_limit_to_lock_per_sec", "steering.low_pass_alpha",

	"surface.min_speed_kmh", "surface.min_steer_abs", "surface.grip_min", "surface.grip_max",
	"surface.window_size", "surface.min_samples", "surface.low_pass_alpha",

	"imu.spi_device", "imu.cs_pin", "imu.mount_pitch_inverted", "imu.gyro_z_negate",
	"imu.lateral_x_negate", "imu.calibration_blob_path", "imu.poll_interval_ms",

	"wheel.gpio_pin", "wheel.magnets_per_rev", "wheel.pulse_stale_ms", "wheel.headlight_gpio_pin",
	"wheel.circumference_m",

	"gps.serial_port", "gps.baud_rate",

	"mqtt.broker", "mqtt.client_id", "mqtt.status_topic",

	"transport.listen_addr",
}

// Load reads an INI-like car profile file, partitioned by [section]
// headers, and returns the parsed Profile.
func Load(path string) (*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open car profile: %w", err)
	}
	defer file.Close()

	p := &Profile{}
	seen := map[string]bool{}
	section := ""
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid profile line %d: %q", lineNum, line)
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		if err := p.setValue(section, key, value); err != nil {
			return nil, fmt.Errorf("profile line %d: %w", lineNum, err)
		}
		seen[section+"."+key] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading car profile: %w", err)
	}

	var missing []string
	for _, k := range requiredKeys {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("car profile missing required keys: %s", strings.Join(missing, ", "))
	}
	return p, nil
}

func (p *Profile) setValue(section, key, value string) error {
	switch section {
	case "vehicle":
		return p.setVehicle(key, value)
	case "direction":
		return p.setDirection(key, value)
	case "traction":
		return p.setTraction(key, value)
	case "yaw":
		return p.setYaw(key, value)
	case "slipwatch":
		return p.setSlipWatch(key, value)
	case "abs":
		return p.setABS(key, value)
	case "hill_hold":
		return p.setHillHold(key, value)
	case "coast":
		return p.setCoast(key, value)
	case "steering":
		return p.setSteering(key, value)
	case "surface":
		return p.setSurface(key, value)
	case "imu":
		return p.setIMU(key, value)
	case "wheel":
		return p.setWheel(key, value)
	case "gps":
		return p.setGPS(key, value)
	case "mqtt":
		return p.setMQTT(key, value)
	case "transport":
		return p.setTransport(key, value)
	default:
		return fmt.Errorf("unknown profile section: %q", section)
	}
}

func parseFloat(section, key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s.%s %q: %w", section, key, value, err)
	}
	return v, nil
}

func parseInt(section, key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s.%s %q: %w", section, key, value, err)
	}
	return v, nil
}

func parseInt16(section, key, value string) (int16, error) {
	v, err := strconv.ParseInt(value, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s.%s %q: %w", section, key, value, err)
	}
	return int16(v), nil
}

func parseBool(section, key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s.%s %q: %w", section, key, value, err)
	}
	return v, nil
}

func (p *Profile) setVehicle(key, value string) (err error) {
	v := &p.Vehicle
	switch key {
	case "wheelbase_m":
		v.WheelbaseM, err = parseFloat("vehicle", key, value)
	case "max_steer_angle_deg":
		v.MaxSteerAngleDeg, err = parseFloat("vehicle", key, value)
	case "disconnect_timeout_ms":
		v.DisconnectTimeoutMs, err = parseInt("vehicle", key, value)
	case "stationary_timeout_ms":
		v.StationaryTimeoutMs, err = parseInt("vehicle", key, value)
	case "imu_accel_noise_threshold":
		v.ImuAccelNoiseThreshold, err = parseFloat("vehicle", key, value)
	case "wheelspin_detect_ratio":
		v.WheelspinDetectRatio, err = parseFloat("vehicle", key, value)
	case "wheelspin_max_ratio":
		v.WheelspinMaxRatio, err = parseFloat("vehicle", key, value)
	case "wheelspin_debounce_ms":
		v.WheelspinDebounceMs, err = parseInt("vehicle", key, value)
	case "gps_trust_floor_kmh":
		v.GPSTrustFloorKmh, err = parseFloat("vehicle", key, value)
	case "gps_drift_correction_rate":
		v.GPSDriftCorrectionRate, err = parseFloat("vehicle", key, value)
	case "heading_imu_only_speed_kmh":
		v.HeadingImuOnlySpeedKmh, err = parseFloat("vehicle", key, value)
	case "heading_gps_trust_speed_kmh":
		v.HeadingGpsTrustSpeedKmh, err = parseFloat("vehicle", key, value)
	case "speed_low_pass_alpha":
		v.SpeedLowPassAlpha, err = parseFloat("vehicle", key, value)
	case "heading_low_pass_alpha":
		v.HeadingLowPassAlpha, err = parseFloat("vehicle", key, value)
	default:
		return fmt.Errorf("unknown vehicle key: %q", key)
	}
	return err
}

func (p *Profile) setDirection(key, value string) (err error) {
	v := &p.Direction
	switch key {
	case "imu_bias_low_pass_alpha":
		v.ImuBiasLowPassAlpha, err = parseFloat("direction", key, value)
	case "seed_throttle_threshold":
		v.SeedThrottleThreshold, err = parseInt16("direction", key, value)
	case "seed_forward_accel_ms2":
		v.SeedForwardAccelMS2, err = parseFloat("direction", key, value)
	case "seed_speed_ms":
		v.SeedSpeedMS, err = parseFloat("direction", key, value)
	case "yaw_disagreement_threshold_dps":
		v.YawDisagreementThresholdDps, err = parseFloat("direction", key, value)
	case "yaw_disagreement_hold_ms":
		v.YawDisagreementHoldMs, err = parseInt("direction", key, value)
	case "stationary_decay_factor":
		v.StationaryDecayFactor, err = parseFloat("direction", key, value)
	case "stationary_throttle":
		v.StationaryThrottle, err = parseInt16("direction", key, value)
	case "stationary_accel_ms2":
		v.StationaryAccelMS2, err = parseFloat("direction", key, value)
	case "hysteresis_forward_kmh":
		v.HysteresisForwardKmh, err = parseFloat("direction", key, value)
	case "hysteresis_stopped_kmh":
		v.HysteresisStoppedKmh, err = parseFloat("direction", key, value)
	default:
		return fmt.Errorf("unknown direction key: %q", key)
	}
	return err
}

func (p *Profile) setTraction(key, value string) (err error) {
	v := &p.Traction
	switch key {
	case "launch_max_speed_kmh":
		v.LaunchMaxSpeedKmh, err = parseFloat("traction", key, value)
	case "cruise_min_speed_kmh":
		v.CruiseMinSpeedKmh, err = parseFloat("traction", key, value)
	case "target_slip_ratio":
		v.TargetSlipRatio, err = parseFloat("traction", key, value)
	case "slip_high_cut_ratio":
		v.SlipHighCutRatio, err = parseFloat("traction", key, value)
	case "slip_hold_band_ratio":
		v.SlipHoldBandRatio, err = parseFloat("traction", key, value)
	case "launch_ramp_rate_per_sec":
		v.LaunchRampRatePerSec, err = parseFloat("traction", key, value)
	case "launch_ceiling":
		v.LaunchCeiling, err = parseFloat("traction", key, value)
	case "launch_high_cut_ratio":
		v.LaunchHighCutRatio, err = parseFloat("traction", key, value)
	case "cruise_slip_threshold":
		v.CruiseSlipThreshold, err = parseFloat("traction", key, value)
	case "cruise_fall_rate_per_sec":
		v.CruiseFallRatePerSec, err = parseFloat("traction", key, value)
	case "cruise_recover_rate_per_sec":
		v.CruiseRecoverRatePerSec, err = parseFloat("traction", key, value)
	case "turn_yaw_threshold_dps":
		v.TurnYawThresholdDps, err = parseFloat("traction", key, value)
	case "turn_factor_multiplier":
		v.TurnFactorMultiplier, err = parseFloat("traction", key, value)
	default:
		return fmt.Errorf("unknown traction key: %q", key)
	}
	return err
}

func (p *Profile) setYaw(key, value string) (err error) {
	v := &p.Yaw
	switch key {
	case "understeer_coefficient":
		v.UndersteerCoefficient, err = parseFloat("yaw", key, value)
	case "oversteer_threshold_dps":
		v.OversteerThresholdDps, err = parseFloat("yaw", key, value)
	case "understeer_threshold_dps":
		v.UndersteerThresholdDps, err = parseFloat("yaw", key, value)
	case "throttle_cut_step_oversteer":
		v.ThrottleCutStepOversteer, err = parseFloat("yaw", key, value)
	case "throttle_cut_step_understeer":
		v.ThrottleCutStepUndersteer, err = parseFloat("yaw", key, value)
	case "recover_rate_slow":
		v.RecoverRateSlow, err = parseFloat("yaw", key, value)
	case "recover_rate_fast":
		v.RecoverRateFast, err = parseFloat("yaw", key, value)
	case "settle_time_ms":
		v.SettleTimeMs, err = parseInt("yaw", key, value)
	case "min_speed_kmh":
		v.MinSpeedKmh, err = parseFloat("yaw", key, value)
	case "virtual_brake_scale":
		v.VirtualBrakeScale, err = parseFloat("yaw", key, value)
	case "yaw_low_pass_alpha":
		v.YawLowPassAlpha, err = parseFloat("yaw", key, value)
	case "cut_floor":
		v.CutFloor, err = parseFloat("yaw", key, value)
	default:
		return fmt.Errorf("unknown yaw key: %q", key)
	}
	return err
}

func (p *Profile) setSlipWatch(key, value string) (err error) {
	v := &p.SlipWatch
	switch key {
	case "threshold_ms2":
		v.ThresholdMS2, err = parseFloat("slipwatch", key, value)
	case "duration_ms":
		v.DurationMs, err = parseInt("slipwatch", key, value)
	case "decay_rate":
		v.DecayRate, err = parseFloat("slipwatch", key, value)
	case "recover_rate":
		v.RecoverRate, err = parseFloat("slipwatch", key, value)
	case "min_multiplier":
		v.MinMultiplier, err = parseFloat("slipwatch", key, value)
	case "min_speed_kmh":
		v.MinSpeedKmh, err = parseFloat("slipwatch", key, value)
	case "min_throttle":
		v.MinThrottle, err = parseInt16("slipwatch", key, value)
	case "low_pass_alpha":
		v.LowPassAlpha, err = parseFloat("slipwatch", key, value)
	default:
		return fmt.Errorf("unknown slipwatch key: %q", key)
	}
	return err
}

func (p *Profile) setABS(key, value string) (err error) {
	v := &p.ABS
	switch key {
	case "min_brake_throttle":
		v.MinBrakeThrottle, err = parseInt16("abs", key, value)
	case "min_speed_kmh":
		v.MinSpeedKmh, err = parseFloat("abs", key, value)
	case "base_slip_threshold":
		v.BaseSlipThreshold, err = parseFloat("abs", key, value)
	case "cycle_time_ms":
		v.CycleTimeMs, err = parseInt("abs", key, value)
	case "apply_ratio":
		v.ApplyRatio, err = parseFloat("abs", key, value)
	case "release_ratio":
		v.ReleaseRatio, err = parseFloat("abs", key, value)
	case "min_retardation_ratio":
		v.MinRetardationRatio, err = parseFloat("abs", key, value)
	case "slip_low_pass_alpha":
		v.SlipLowPassAlpha, err = parseFloat("abs", key, value)
	default:
		return fmt.Errorf("unknown abs key: %q", key)
	}
	return err
}

func (p *Profile) setHillHold(key, value string) (err error) {
	v := &p.HillHold
	switch key {
	case "pitch_threshold_deg":
		v.PitchThresholdDeg, err = parseFloat("hill_hold", key, value)
	case "speed_threshold_kmh":
		v.SpeedThresholdKmh, err = parseFloat("hill_hold", key, value)
	case "deadzone_throttle":
		v.DeadzoneThrottle, err = parseInt16("hill_hold", key, value)
	case "settling_time_ms":
		v.SettlingTimeMs, err = parseInt("hill_hold", key, value)
	case "hold_strength":
		v.HoldStrength, err = parseFloat("hill_hold", key, value)
	case "max_hold_force":
		v.MaxHoldForce, err = parseFloat("hill_hold", key, value)
	case "immediate_release_threshold":
		v.ImmediateReleaseThreshold, err = parseInt16("hill_hold", key, value)
	case "blend_base_rate":
		v.BlendBaseRate, err = parseFloat("hill_hold", key, value)
	case "blend_fast_multiplier":
		v.BlendFastMultiplier, err = parseFloat("hill_hold", key, value)
	case "blend_slow_multiplier":
		v.BlendSlowMultiplier, err = parseFloat("hill_hold", key, value)
	case "timeout_ms":
		v.TimeoutMs, err = parseInt("hill_hold", key, value)
	default:
		return fmt.Errorf("unknown hill_hold key: %q", key)
	}
	return err
}

func (p *Profile) setCoast(key, value string) (err error) {
	v := &p.Coast
	switch key {
	case "release_upper_throttle":
		v.ReleaseUpperThrottle, err = parseInt16("coast", key, value)
	case "release_lower_throttle":
		v.ReleaseLowerThrottle, err = parseInt16("coast", key, value)
	case "min_speed_kmh":
		v.MinSpeedKmh, err = parseFloat("coast", key, value)
	case "coast_duration_ms":
		v.CoastDurationMs, err = parseInt("coast", key, value)
	case "initial_injection":
		v.InitialInjection, err = parseInt16("coast", key, value)
	case "deadzone_throttle":
		v.DeadzoneThrottle, err = parseInt16("coast", key, value)
	default:
		return fmt.Errorf("unknown coast key: %q", key)
	}
	return err
}

func (p *Profile) setSteering(key, value string) (err error) {
	v := &p.Steering
	switch key {
	case "low_speed_factor":
		v.LowSpeedFactor, err = parseFloat("steering", key, value)
	case "high_speed_factor":
		v.HighSpeedFactor, err = parseFloat("steering", key, value)
	case "high_speed_kmh":
		v.HighSpeedKmh, err = parseFloat("steering", key, value)
	case "counter_steer_min_speed_kmh":
		v.CounterSteerMinSpeedKmh, err = parseFloat("steering", key, value)
	case "counter_steer_neutral_band":
		v.CounterSteerNeutralBand, err = parseInt16("steering", key, value)
	case "counter_steer_yaw_threshold_dps":
		v.CounterSteerYawThresholdDps, err = parseFloat("steering", key, value)
	case "counter_steer_strength":
		v.CounterSteerStrength, err = parseFloat("steering", key, value)
	case "counter_steer_max_correction":
		v.CounterSteerMaxCorrection, err = parseInt16("steering", key, value)
	case "rate_limit_to_center_per_sec":
		v.RateLimitToCenterPerSec, err = parseFloat("steering", key, value)
	case "rate_limit_to_lock_per_sec":
		v.RateLimitToLockPerSec, err = parseFloat("steering", key, value)
	case "low_pass_alpha":
		v.LowPassAlpha, err = parseFloat("steering", key, value)
	default:
		return fmt.Errorf("unknown steering key: %q", key)
	}
	return err
}

func (p *Profile) setSurface(key, value string) (err error) {
	v := &p.Surface
	switch key {
	case "min_speed_kmh":
		v.MinSpeedKmh, err = parseFloat("surface", key, value)
	case "min_steer_abs":
		v.MinSteerAbs, err = parseInt16("surface", key, value)
	case "grip_min":
		v.GripMin, err = parseFloat("surface", key, value)
	case "grip_max":
		v.GripMax, err = parseFloat("surface", key, value)
	case "window_size":
		v.WindowSize, err = parseInt("surface", key, value)
	case "min_samples":
		v.MinSamples, err = parseInt("surface", key, value)
	case "low_pass_alpha":
		v.LowPassAlpha, err = parseFloat("surface", key, value)
	default:
		return fmt.Errorf("unknown surface key: %q", key)
	}
	return err
}

func (p *Profile) setIMU(key, value string) (err error) {
	v := &p.IMU
	switch key {
	case "spi_device":
		v.SPIDevice = value
	case "cs_pin":
		v.CSPin = value
	case "mount_pitch_inverted":
		v.MountPitchInverted, err = parseBool("imu", key, value)
	case "gyro_z_negate":
		v.GyroZNegate, err = parseBool("imu", key, value)
	case "lateral_x_negate":
		v.LateralXNegate, err = parseBool("imu", key, value)
	case "calibration_blob_path":
		v.CalibrationBlobPath = value
	case "poll_interval_ms":
		v.PollIntervalMs, err = parseInt("imu", key, value)
	default:
		return fmt.Errorf("unknown imu key: %q", key)
	}
	return err
}

func (p *Profile) setWheel(key, value string) (err error) {
	v := &p.Wheel
	switch key {
	case "gpio_pin":
		v.GPIOPin = value
	case "magnets_per_rev":
		v.MagnetsPerRev, err = parseInt("wheel", key, value)
	case "pulse_stale_ms":
		v.PulseStaleMs, err = parseInt("wheel", key, value)
	case "headlight_gpio_pin":
		v.HeadlightGPIOPin = value
	case "circumference_m":
		v.CircumferenceM, err = parseFloat("wheel", key, value)
	default:
		return fmt.Errorf("unknown wheel key: %q", key)
	}
	return err
}

func (p *Profile) setGPS(key, value string) (err error) {
	v := &p.GPS
	switch key {
	case "serial_port":
		v.SerialPort = value
	case "baud_rate":
		v.BaudRate, err = parseInt("gps", key, value)
	default:
		return fmt.Errorf("unknown gps key: %q", key)
	}
	return err
}

func (p *Profile) setMQTT(key, value string) (err error) {
	v := &p.MQTT
	switch key {
	case "broker":
		v.Broker = value
	case "client_id":
		v.ClientID = value
	case "status_topic":
		v.StatusTopic = value
	default:
		return fmt.Errorf("unknown mqtt key: %q", key)
	}
	return err
}

func (p *Profile) setTransport(key, value string) (err error) {
	v := &p.Transport
	switch key {
	case "listen_addr":
		v.ListenAddr = value
	default:
		return fmt.Errorf("unknown transport key: %q", key)
	}
	return err
}
