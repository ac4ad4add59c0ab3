// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_sentry/internal/config"
	"github.com/relabs-tech/gesture_sentry/internal/gyro"
)

// drdyTimeout bounds the wait for the data-ready edge so a wedged
// sensor surfaces as an error instead of a hang.
const drdyTimeout = time.Second

// L3GD20 reads a single L3GD20 gyroscope over SPI. Acquisitions are
// gated by the sensor's data-ready signal on the configured GPIO pin.
type L3GD20 struct {
	port spi.PortCloser
	conn spi.Conn
	drdy gpio.PinIn
}

// NewL3GD20 opens the configured SPI device, verifies the device ID,
// and programs the control registers: 200 Hz ODR with 50 Hz cutoff,
// data-ready on INT2, and the configured full-scale range.
func NewL3GD20() (*L3GD20, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("l3gd20: periph host init: %w", err)
	}

	fsBits, err := fullScaleBits(cfg.GyroFullScale)
	if err != nil {
		return nil, fmt.Errorf("l3gd20: %w", err)
	}

	drdy := gpioreg.ByName(cfg.GyroDRDYPin)
	if drdy == nil {
		return nil, fmt.Errorf("l3gd20: DRDY pin %q not found", cfg.GyroDRDYPin)
	}
	if err := drdy.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("l3gd20: DRDY pin setup: %w", err)
	}

	port, err := spireg.Open(cfg.GyroSPIDevice)
	if err != nil {
		return nil, fmt.Errorf("l3gd20: SPI open (%s): %w", cfg.GyroSPIDevice, err)
	}

	// 1 MHz, mode 3, 8 bits per frame, matching the part's SPI timing.
	conn, err := port.Connect(physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("l3gd20: SPI connect: %w", err)
	}

	s := &L3GD20{port: port, conn: conn, drdy: drdy}

	id, err := s.ReadRegister(regWhoAmI)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("l3gd20: WHO_AM_I read: %w", err)
	}
	switch id {
	case whoAmIL3GD20, whoAmIL3GD20H, whoAmII3G4250D:
		log.Printf("l3gd20: WHO_AM_I = 0x%02X", id)
	default:
		port.Close()
		return nil, fmt.Errorf("l3gd20: unexpected WHO_AM_I 0x%02X", id)
	}

	if err := s.writeRegister(regCtrl1, odr200Cutoff50|ctrl1PowerOn); err != nil {
		port.Close()
		return nil, fmt.Errorf("l3gd20: CTRL_REG1 write: %w", err)
	}
	if err := s.writeRegister(regCtrl3, ctrl3DRDYInt2); err != nil {
		port.Close()
		return nil, fmt.Errorf("l3gd20: CTRL_REG3 write: %w", err)
	}
	if err := s.writeRegister(regCtrl4, fsBits); err != nil {
		port.Close()
		return nil, fmt.Errorf("l3gd20: CTRL_REG4 write: %w", err)
	}
	log.Printf("l3gd20: configured on %s, full scale ±%d dps, DRDY on pin %s",
		cfg.GyroSPIDevice, cfg.GyroFullScale, cfg.GyroDRDYPin)

	return s, nil
}

// Next waits for the data-ready edge and burst-reads all six output
// registers in one auto-incremented transfer, so the three axes always
// come from the same acquisition.
func (s *L3GD20) Next() (gyro.RawSample, error) {
	if !s.drdy.WaitForEdge(drdyTimeout) {
		return gyro.RawSample{}, fmt.Errorf("l3gd20: data-ready timeout after %s", drdyTimeout)
	}

	w := make([]byte, 7)
	w[0] = regOutXL | spiRead | spiAutoIncrement
	r := make([]byte, len(w))
	if err := s.conn.Tx(w, r); err != nil {
		return gyro.RawSample{}, fmt.Errorf("l3gd20: output burst read: %w", err)
	}

	return gyro.RawSample{
		X: int16(uint16(r[1]) | uint16(r[2])<<8),
		Y: int16(uint16(r[3]) | uint16(r[4])<<8),
		Z: int16(uint16(r[5]) | uint16(r[6])<<8),
	}, nil
}

// ReadRegister reads a single register.
func (s *L3GD20) ReadRegister(addr byte) (byte, error) {
	w := []byte{addr | spiRead, 0x00}
	r := make([]byte, len(w))
	if err := s.conn.Tx(w, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (s *L3GD20) writeRegister(addr, value byte) error {
	w := []byte{addr, value}
	return s.conn.Tx(w, make([]byte, len(w)))
}

// Close powers the gyro down and releases the SPI port.
func (s *L3GD20) Close() error {
	if err := s.writeRegister(regCtrl1, 0x00); err != nil {
		log.Printf("l3gd20: power-off write failed: %v", err)
	}
	return s.port.Close()
}
