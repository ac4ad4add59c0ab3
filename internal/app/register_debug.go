// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	"github.com/relabs-tech/gesture_sentry/internal/sensors"
)

// RunRegisterDebug dumps the L3GD20 register map over SPI.
func RunRegisterDebug() error {
	dev, err := sensors.NewL3GD20()
	if err != nil {
		return fmt.Errorf("L3GD20 init: %w", err)
	}
	defer dev.Close()

	log.Println("register_debug: dumping L3GD20 registers")

	for _, reg := range sensors.L3GD20RegisterMap() {
		value, err := dev.ReadRegister(reg.Address)
		if err != nil {
			return fmt.Errorf("reading %s (0x%02X): %w", reg.Name, reg.Address, err)
		}

		fmt.Printf("0x%02X %-14s = 0x%02X  %s\n", reg.Address, reg.Name, value, reg.Description)
		for _, bf := range reg.BitFields {
			fmt.Printf("     [%4s] %-8s %s\n", bf.Bits, bf.Name, bf.Description)
		}
	}

	return nil
}
