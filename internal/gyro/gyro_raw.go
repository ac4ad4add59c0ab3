package gyro

// RawSample represents a single raw 3-axis gyroscope reading in device
// counts, before any calibration or unit conversion.
type RawSample struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Source is anything that can deliver gyro samples over time: the SPI
// device, a serial-attached dev board, or a mock.
//
// Next blocks until the device signals data ready, then returns one
// complete, internally consistent 3-axis reading. There are no
// partial-axis reads.
type Source interface {
	Next() (RawSample, error)
}
