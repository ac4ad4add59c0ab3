// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// L3GD20 register addresses.
const (
	regWhoAmI    = 0x0F
	regCtrl1     = 0x20
	regCtrl2     = 0x21
	regCtrl3     = 0x22
	regCtrl4     = 0x23
	regCtrl5     = 0x24
	regReference = 0x25
	regOutTemp   = 0x26
	regStatus    = 0x27
	regOutXL     = 0x28
	regOutXH     = 0x29
	regOutYL     = 0x2A
	regOutYH     = 0x2B
	regOutZL     = 0x2C
	regOutZH     = 0x2D
	regFIFOCtrl  = 0x2E
	regFIFOSrc   = 0x2F
	regInt1Cfg   = 0x30
	regInt1Src   = 0x31
)

// SPI transaction bits: bit 7 selects read, bit 6 auto-increments the
// register address during multi-byte transfers.
const (
	spiRead          = 0x80
	spiAutoIncrement = 0x40
)

// CTRL_REG1: output data rate 200 Hz with 50 Hz bandwidth cutoff, plus
// normal power mode and all three axes enabled.
const (
	odr200Cutoff50 = 0x60
	ctrl1PowerOn   = 0x0F
)

// CTRL_REG3: route the data-ready signal to the INT2 pin.
const ctrl3DRDYInt2 = 0x08

// CTRL_REG4 full-scale selection bits.
const (
	fs245Bits  = 0x00
	fs500Bits  = 0x10
	fs2000Bits = 0x20
)

// WHO_AM_I values across the L3GD20 family. The STM32F429 Discovery
// boards shipped with either part depending on revision.
const (
	whoAmIL3GD20   = 0xD4
	whoAmIL3GD20H  = 0xD7
	whoAmII3G4250D = 0xD3
)

// Sensitivity in degrees per second per digit for each full-scale
// range, from the L3GD20 datasheet.
const (
	sensitivity245DPS  = 0.00875
	sensitivity500DPS  = 0.0175
	sensitivity2000DPS = 0.07
)

// SensitivityDPS maps a configured full-scale range (in dps) to the
// sensor's scale factor. An unrecognized range is a configuration
// error; it is never silently defaulted.
func SensitivityDPS(fullScale int) (float64, error) {
	switch fullScale {
	case 245:
		return sensitivity245DPS, nil
	case 500:
		return sensitivity500DPS, nil
	case 2000:
		return sensitivity2000DPS, nil
	default:
		return 0, fmt.Errorf("unsupported gyro full-scale range %d dps (must be 245, 500 or 2000)", fullScale)
	}
}

func fullScaleBits(fullScale int) (byte, error) {
	switch fullScale {
	case 245:
		return fs245Bits, nil
	case 500:
		return fs500Bits, nil
	case 2000:
		return fs2000Bits, nil
	default:
		return 0, fmt.Errorf("unsupported gyro full-scale range %d dps (must be 245, 500 or 2000)", fullScale)
	}
}

// BitField describes one field within a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo provides metadata for one L3GD20 register.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R" or "RW"
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// L3GD20RegisterMap returns metadata for the documented L3GD20
// registers, for the register debug tool.
func L3GD20RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: regWhoAmI, Name: "WHO_AM_I", Description: "Device identification", Access: "R"},
		{Address: regCtrl1, Name: "CTRL_REG1", Description: "Data rate, bandwidth, power, axis enable", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:6", Name: "DR", Description: "Output data rate", Values: "0=95Hz, 1=190Hz, 2=380Hz, 3=760Hz"},
				{Bits: "5:4", Name: "BW", Description: "Bandwidth cutoff"},
				{Bits: "3", Name: "PD", Description: "Power mode", Values: "0=Power down, 1=Normal"},
				{Bits: "2", Name: "Zen", Description: "Z axis enable"},
				{Bits: "1", Name: "Yen", Description: "Y axis enable"},
				{Bits: "0", Name: "Xen", Description: "X axis enable"},
			}},
		{Address: regCtrl2, Name: "CTRL_REG2", Description: "High-pass filter configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "5:4", Name: "HPM", Description: "High-pass filter mode"},
				{Bits: "3:0", Name: "HPCF", Description: "High-pass cutoff frequency"},
			}},
		{Address: regCtrl3, Name: "CTRL_REG3", Description: "Interrupt routing", Access: "RW",
			BitFields: []BitField{
				{Bits: "7", Name: "I1_Int1", Description: "Interrupt on INT1"},
				{Bits: "3", Name: "I2_DRDY", Description: "Data ready on INT2", Values: "0=Disabled, 1=Enabled"},
				{Bits: "2", Name: "I2_WTM", Description: "FIFO watermark on INT2"},
				{Bits: "1", Name: "I2_ORun", Description: "FIFO overrun on INT2"},
			}},
		{Address: regCtrl4, Name: "CTRL_REG4", Description: "Full-scale selection, endianness", Access: "RW",
			BitFields: []BitField{
				{Bits: "7", Name: "BDU", Description: "Block data update"},
				{Bits: "6", Name: "BLE", Description: "Big/little endian", Values: "0=LSB first"},
				{Bits: "5:4", Name: "FS", Description: "Full scale", Values: "0=245dps, 1=500dps, 2=2000dps, 3=2000dps"},
			}},
		{Address: regCtrl5, Name: "CTRL_REG5", Description: "FIFO enable, output selection", Access: "RW",
			BitFields: []BitField{
				{Bits: "7", Name: "BOOT", Description: "Reboot memory content"},
				{Bits: "6", Name: "FIFO_EN", Description: "FIFO enable"},
			}},
		{Address: regReference, Name: "REFERENCE", Description: "Reference value for interrupt generation", Access: "RW"},
		{Address: regOutTemp, Name: "OUT_TEMP", Description: "Temperature data", Access: "R"},
		{Address: regStatus, Name: "STATUS_REG", Description: "Axis data status", Access: "R",
			BitFields: []BitField{
				{Bits: "7", Name: "ZYXOR", Description: "X, Y, Z overrun"},
				{Bits: "3", Name: "ZYXDA", Description: "X, Y, Z new data available"},
			}},
		{Address: regOutXL, Name: "OUT_X_L", Description: "X-axis angular rate low byte", Access: "R"},
		{Address: regOutXH, Name: "OUT_X_H", Description: "X-axis angular rate high byte", Access: "R"},
		{Address: regOutYL, Name: "OUT_Y_L", Description: "Y-axis angular rate low byte", Access: "R"},
		{Address: regOutYH, Name: "OUT_Y_H", Description: "Y-axis angular rate high byte", Access: "R"},
		{Address: regOutZL, Name: "OUT_Z_L", Description: "Z-axis angular rate low byte", Access: "R"},
		{Address: regOutZH, Name: "OUT_Z_H", Description: "Z-axis angular rate high byte", Access: "R"},
		{Address: regFIFOCtrl, Name: "FIFO_CTRL_REG", Description: "FIFO mode and watermark", Access: "RW"},
		{Address: regFIFOSrc, Name: "FIFO_SRC_REG", Description: "FIFO status", Access: "R"},
		{Address: regInt1Cfg, Name: "INT1_CFG", Description: "Interrupt 1 configuration", Access: "RW"},
		{Address: regInt1Src, Name: "INT1_SRC", Description: "Interrupt 1 source", Access: "R"},
	}
}
