// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package imuadapter wraps a single MPU9250 over SPI (periph.io) and
// turns its raw readings into the mount-corrected heading/yaw/accel/
// pitch fields vehicle.State expects. The mount-offset transform is
// applied here, once, at the sensor boundary, rather than deeper in the
// fusion stage.
package imuadapter

import (
	"fmt"
	"log"
	"math"

	"github.com/relabs-tech/truckcore/internal/calibration"
	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// Adapter owns the MPU9250 handle and the mount-offset transform.
type Adapter struct {
	cfg    config.IMUParams
	dev    *mpu9250.MPU9250
	magCal *mpu9250.MagCal

	heading float64 // integrated from gyro-Z, degrees
	primed  bool

	restored    calibration.Data
	hasRestored bool
}

// New opens the SPI device named in cfg, runs self-test and calibration,
// and loads any persisted calibration blob before returning. The loaded
// blob is only reported back through CalibrationStatus; its offsets and
// biases are not written to the device and are not used by Poll.
func New(cfg config.IMUParams) (*Adapter, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("imu: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("imu: CS pin %q not found", cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("imu: SPI transport (%s): %w", cfg.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("imu: device creation: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("imu: initialization: %w", err)
	}

	testResult, err := dev.SelfTest()
	if err != nil {
		log.Printf("imu: self-test failed: %v", err)
	} else {
		log.Printf("imu: self-test accel deviation X:%.2f%% Y:%.2f%% Z:%.2f%%",
			testResult.AccelDeviation.X, testResult.AccelDeviation.Y, testResult.AccelDeviation.Z)
	}

	if err := dev.Calibrate(); err != nil {
		log.Printf("imu: calibration failed: %v", err)
	}

	magCal, err := dev.InitMag()
	if err != nil {
		log.Printf("imu: magnetometer init failed, continuing without mag: %v", err)
	}

	a := &Adapter{cfg: cfg, dev: dev, magCal: magCal}

	if blob, ok, err := calibration.Load(cfg.CalibrationBlobPath); err != nil {
		return nil, fmt.Errorf("imu: restoring calibration blob: %w", err)
	} else if ok {
		log.Printf("imu: restored calibration blob (sys=%d gyro=%d accel=%d mag=%d)",
			blob.SysStatus, blob.GyroStatus, blob.AccelStatus, blob.MagStatus)
		a.restored = blob
		a.hasRestored = true
	}

	return a, nil
}

// CalibrationStatus reports confidence and bias/offset values in the
// calibration blob's layout, treating a successful self-test plus
// gyro/accel calibration as full (3) confidence on those channels and a
// successful magnetometer init as full confidence on mag; a restored
// blob from a previous session is reported as-is.
func (a *Adapter) CalibrationStatus() CalibrationStatus {
	if a.hasRestored {
		return CalibrationStatus{
			Sys: a.restored.SysStatus, Gyro: a.restored.GyroStatus,
			Accel: a.restored.AccelStatus, Mag: a.restored.MagStatus,
			GyroBiasX: a.restored.GyroBiasX, GyroBiasY: a.restored.GyroBiasY, GyroBiasZ: a.restored.GyroBiasZ,
			AccelBiasX: a.restored.AccelBiasX, AccelBiasY: a.restored.AccelBiasY, AccelBiasZ: a.restored.AccelBiasZ,
			MagOffsetX: a.restored.MagOffsetX, MagOffsetY: a.restored.MagOffsetY, MagOffsetZ: a.restored.MagOffsetZ,
		}
	}

	status := CalibrationStatus{Sys: 3, Gyro: 3, Accel: 3}
	if a.magCal != nil {
		status.Mag = 3
	}
	return status
}

// CalibrationStatus is the in-memory mirror of the persisted
// calibration blob's fields.
type CalibrationStatus struct {
	Sys, Gyro, Accel, Mag                uint8
	GyroBiasX, GyroBiasY, GyroBiasZ       int16
	AccelBiasX, AccelBiasY, AccelBiasZ    int16
	MagOffsetX, MagOffsetY, MagOffsetZ    int16
}

// Poll reads the IMU once and writes the mount-corrected fields into st.
// dtSeconds is the elapsed time since the previous poll, used to
// integrate the heading from gyro-Z.
func (a *Adapter) Poll(st *vehicle.State, dtSeconds float64) error {
	ax, err := a.dev.GetAccelerationX()
	if err != nil {
		st.ImuAvailable = false
		return fmt.Errorf("imu: accel X: %w", err)
	}
	ay, err := a.dev.GetAccelerationY()
	if err != nil {
		st.ImuAvailable = false
		return fmt.Errorf("imu: accel Y: %w", err)
	}
	az, err := a.dev.GetAccelerationZ()
	if err != nil {
		st.ImuAvailable = false
		return fmt.Errorf("imu: accel Z: %w", err)
	}
	gz, err := a.dev.GetRotationZ()
	if err != nil {
		st.ImuAvailable = false
		return fmt.Errorf("imu: gyro Z: %w", err)
	}

	yawRate := float64(gz)
	if a.cfg.GyroZNegate {
		yawRate = -yawRate
	}

	lateral := float64(ax)
	if a.cfg.LateralXNegate {
		lateral = -lateral
	}
	forward := float64(ay)

	pitch := math.Atan2(-float64(az), math.Hypot(float64(ax), float64(ay))) * 180.0 / math.Pi
	if a.cfg.MountPitchInverted {
		pitch = mountInvert(pitch)
	}

	if !a.primed {
		a.heading = 0
		a.primed = true
	} else {
		a.heading += yawRate * dtSeconds
	}
	a.heading = math.Mod(a.heading+360, 360)

	st.ImuHeadingDeg = a.heading
	st.YawRateDps = yawRate
	st.ForwardAccelMS2 = forward
	st.LateralAccelMS2 = lateral
	st.PitchDeg = pitch
	st.ImuAvailable = true
	return nil
}

// mountInvert applies the sign(p)*(180-|p|) correction for an IMU
// mounted upside down relative to the nominal orientation.
func mountInvert(pitch float64) float64 {
	if pitch == 0 {
		return 0
	}
	sign := 1.0
	if pitch < 0 {
		sign = -1.0
	}
	return sign * (180 - math.Abs(pitch))
}
