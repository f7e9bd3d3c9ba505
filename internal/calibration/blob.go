// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration persists the IMU's mag/gyro/accel calibration as a
// small fixed-size blob, written at most once per session once the
// sensor reports full calibration confidence, and restored before
// fusion is armed.
package calibration

import (
	"encoding/binary"
	"fmt"
	"os"
)

// blobSize is 3x2 bytes mag offset + 3x2 bytes gyro bias + 3x2 bytes
// accel bias + 4 status bytes (sys, gyro, accel, mag; 0-3 each).
const blobSize = 22

// Data is the parsed calibration blob.
type Data struct {
	MagOffsetX, MagOffsetY, MagOffsetZ    int16
	GyroBiasX, GyroBiasY, GyroBiasZ       int16
	AccelBiasX, AccelBiasY, AccelBiasZ    int16
	SysStatus, GyroStatus, AccelStatus, MagStatus uint8
}

// FullyCalibrated reports whether every status byte has reached the
// sensor's maximum confidence level (3).
func (d Data) FullyCalibrated() bool {
	return d.SysStatus == 3 && d.GyroStatus == 3 && d.AccelStatus == 3 && d.MagStatus == 3
}

// Load reads and parses the calibration blob from path. A missing file
// is not an error: callers treat it as "uncalibrated" and fall back to
// the self-test defaults, since missing calibration is recoverable, not
// fatal.
func Load(path string) (Data, bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Data{}, false, nil
	}
	if err != nil {
		return Data{}, false, fmt.Errorf("failed to read calibration blob: %w", err)
	}
	if len(raw) != blobSize {
		return Data{}, false, fmt.Errorf("calibration blob %s has %d bytes, want %d", path, len(raw), blobSize)
	}

	d := Data{
		MagOffsetX: int16(binary.LittleEndian.Uint16(raw[0:2])),
		MagOffsetY: int16(binary.LittleEndian.Uint16(raw[2:4])),
		MagOffsetZ: int16(binary.LittleEndian.Uint16(raw[4:6])),
		GyroBiasX:  int16(binary.LittleEndian.Uint16(raw[6:8])),
		GyroBiasY:  int16(binary.LittleEndian.Uint16(raw[8:10])),
		GyroBiasZ:  int16(binary.LittleEndian.Uint16(raw[10:12])),
		AccelBiasX: int16(binary.LittleEndian.Uint16(raw[12:14])),
		AccelBiasY: int16(binary.LittleEndian.Uint16(raw[14:16])),
		AccelBiasZ: int16(binary.LittleEndian.Uint16(raw[16:18])),
		SysStatus:   raw[18],
		GyroStatus:  raw[19],
		AccelStatus: raw[20],
		MagStatus:   raw[21],
	}
	return d, true, nil
}

// Save writes the blob to path, overwriting any previous calibration.
// Callers only invoke this once FullyCalibrated reports true.
func Save(path string, d Data) error {
	raw := make([]byte, blobSize)
	binary.LittleEndian.PutUint16(raw[0:2], uint16(d.MagOffsetX))
	binary.LittleEndian.PutUint16(raw[2:4], uint16(d.MagOffsetY))
	binary.LittleEndian.PutUint16(raw[4:6], uint16(d.MagOffsetZ))
	binary.LittleEndian.PutUint16(raw[6:8], uint16(d.GyroBiasX))
	binary.LittleEndian.PutUint16(raw[8:10], uint16(d.GyroBiasY))
	binary.LittleEndian.PutUint16(raw[10:12], uint16(d.GyroBiasZ))
	binary.LittleEndian.PutUint16(raw[12:14], uint16(d.AccelBiasX))
	binary.LittleEndian.PutUint16(raw[14:16], uint16(d.AccelBiasY))
	binary.LittleEndian.PutUint16(raw[16:18], uint16(d.AccelBiasZ))
	raw[18] = d.SysStatus
	raw[19] = d.GyroStatus
	raw[20] = d.AccelStatus
	raw[21] = d.MagStatus

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration blob: %w", err)
	}
	return nil
}
