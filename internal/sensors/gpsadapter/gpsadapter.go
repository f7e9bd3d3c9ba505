// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gpsadapter opens the GPS serial port, parses NMEA sentences,
// and accumulates them into a gps.Fix, while also writing the handful
// of fields the fusion stage reads directly off vehicle.State: position,
// validity, course, and ground speed.
package gpsadapter

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/gps"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Adapter owns the open GPS serial port, its line reader, and the
// multi-sentence fix accumulated across RMC/GGA/GSA/VTG/GSV.
type Adapter struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader

	fix       gps.Fix
	gsvBuffer []gps.Satellite
}

// Open configures and opens the GPS serial port named in cfg.
func Open(cfg config.GPSParams) (*Adapter, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("gps: opening serial port %s: %w", cfg.SerialPort, err)
	}
	return &Adapter{port: port, reader: bufio.NewReader(port)}, nil
}

// Close releases the serial port.
func (a *Adapter) Close() error {
	return a.port.Close()
}

// Fix returns the most recently accumulated multi-sentence GPS fix.
func (a *Adapter) Fix() gps.Fix {
	return a.fix
}

// ReadFix blocks for the next usable NMEA sentence, folds it into the
// accumulated fix, and applies the subset fusion consumes onto st.
// Callers loop calling ReadFix continuously.
func (a *Adapter) ReadFix(st *vehicle.State) error {
	for {
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("gps: serial read: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeRMC:
			m := sentence.(nmea.RMC)
			a.fix.Time = m.Time.String()
			a.fix.Date = m.Date.String()
			a.fix.Latitude = m.Latitude
			a.fix.Longitude = m.Longitude
			a.fix.SpeedKnots = m.Speed
			a.fix.CourseDeg = m.Course
			a.fix.Validity = string(m.Validity)

			st.GPSLat = m.Latitude
			st.GPSLon = m.Longitude
			st.GPSCourse = m.Course
			st.GPSSpeedKmh = m.Speed * 1.852 // knots -> km/h
			st.GPSValid = m.Validity == "A"
			st.GPSUpdated = time.Now()
			return nil

		case nmea.TypeGGA:
			m := sentence.(nmea.GGA)
			a.fix.Altitude = m.Altitude
			a.fix.NumSatellites = m.NumSatellites
			a.fix.HDOP = m.HDOP
			a.fix.FixQuality = fixQualityString(m.FixQuality)
			return nil

		case nmea.TypeGSA:
			m := sentence.(nmea.GSA)
			a.fix.FixType = fixTypeString(m.FixType)
			a.fix.PDOP = m.PDOP
			a.fix.HDOP = m.HDOP
			a.fix.VDOP = m.VDOP
			return nil

		case nmea.TypeVTG:
			m := sentence.(nmea.VTG)
			a.fix.SpeedKmh = m.GroundSpeedKPH
			st.GPSSpeedKmh = m.GroundSpeedKPH
			st.GPSUpdated = time.Now()
			return nil

		case nmea.TypeGSV:
			m := sentence.(nmea.GSV)
			if m.MessageNumber == 1 {
				a.gsvBuffer = a.gsvBuffer[:0]
			}
			for _, sv := range m.Info {
				a.gsvBuffer = append(a.gsvBuffer, gps.Satellite{
					SVNumber:  sv.SVPRNNumber,
					Elevation: sv.Elevation,
					Azimuth:   sv.Azimuth,
					SNR:       sv.SNR,
				})
			}
			if m.MessageNumber == m.TotalMessages {
				a.fix.GPSSatellitesInView = append([]gps.Satellite(nil), a.gsvBuffer...)
			}
			return nil

		default:
			// GLL and other sentence types carry nothing the fix or
			// vehicle.State need; ignored.
		}
	}
}

// fixQualityString maps GGA's numeric fix-quality code to its
// descriptive name.
func fixQualityString(code string) string {
	switch code {
	case "0":
		return "invalid"
	case "1":
		return "GPS"
	case "2":
		return "DGPS"
	case "4":
		return "RTK fixed"
	case "5":
		return "RTK float"
	default:
		return code
	}
}

// fixTypeString maps GSA's numeric fix-type code to its descriptive name.
func fixTypeString(code string) string {
	switch code {
	case "1":
		return "no fix"
	case "2":
		return "2D"
	case "3":
		return "3D"
	default:
		return code
	}
}
