// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command calibrate runs the IMU's self-test and calibration routines
// and persists the result as the fixed calibration blob, so vehicled can
// restore it on every subsequent start without re-running calibration.
package main

import (
	"log"
	"os"

	"github.com/relabs-tech/truckcore/internal/calibration"
	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/sensors/imuadapter"
)

func main() {
	profilesDir := os.Getenv("CAR_PROFILE_DIR")
	if profilesDir == "" {
		profilesDir = "profiles"
	}
	if err := config.InitGlobal(profilesDir); err != nil {
		log.Fatalf("calibrate: loading car profile: %v", err)
	}
	cfg := config.Get()

	log.Println("calibrate: opening IMU and running self-test + calibration")
	imu, err := imuadapter.New(cfg.IMU)
	if err != nil {
		log.Fatalf("calibrate: imu init failed: %v", err)
	}

	status := imu.CalibrationStatus()
	data := calibration.Data{
		SysStatus:   status.Sys,
		GyroStatus:  status.Gyro,
		AccelStatus: status.Accel,
		MagStatus:   status.Mag,
		GyroBiasX:   status.GyroBiasX,
		GyroBiasY:   status.GyroBiasY,
		GyroBiasZ:   status.GyroBiasZ,
		AccelBiasX:  status.AccelBiasX,
		AccelBiasY:  status.AccelBiasY,
		AccelBiasZ:  status.AccelBiasZ,
		MagOffsetX:  status.MagOffsetX,
		MagOffsetY:  status.MagOffsetY,
		MagOffsetZ:  status.MagOffsetZ,
	}

	if !data.FullyCalibrated() {
		log.Fatalf("calibrate: incomplete calibration (sys=%d gyro=%d accel=%d mag=%d), not saving",
			data.SysStatus, data.GyroStatus, data.AccelStatus, data.MagStatus)
	}

	if err := calibration.Save(cfg.IMU.CalibrationBlobPath, data); err != nil {
		log.Fatalf("calibrate: saving calibration blob: %v", err)
	}
	log.Printf("calibrate: saved calibration blob to %s", cfg.IMU.CalibrationBlobPath)
}
