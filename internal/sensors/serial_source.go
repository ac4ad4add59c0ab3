package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gesture_sentry/internal/config"
	"github.com/relabs-tech/gesture_sentry/internal/gyro"
)

// SerialSource reads raw gyro counts from a serial-attached dev board,
// one sample per line as "x,y,z" signed device counts. The board emits
// lines at its output data rate, so a completed line is the data-ready
// signal.
type SerialSource struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// NewSerialSource opens the configured serial port.
func NewSerialSource() (*SerialSource, error) {
	cfg := config.Get()

	serialOpts := serial.OpenOptions{
		PortName:        cfg.GyroSerialPort,
		BaudRate:        uint(cfg.GyroSerialBaud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("gyro serial open (%s): %w", cfg.GyroSerialPort, err)
	}
	log.Printf("gyro serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return &SerialSource{port: port, reader: bufio.NewReader(port)}, nil
}

// Next returns the next parseable sample. Partial or garbled lines
// (common right after opening the port mid-stream) are skipped.
func (s *SerialSource) Next() (gyro.RawSample, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return gyro.RawSample{}, fmt.Errorf("gyro serial read: %w", err)
		}
		sample, err := parseCountLine(line)
		if err != nil {
			continue
		}
		return sample, nil
	}
}

// parseCountLine parses one "x,y,z" line of signed 16-bit counts.
func parseCountLine(line string) (gyro.RawSample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return gyro.RawSample{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	var counts [3]int16
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 16)
		if err != nil {
			return gyro.RawSample{}, fmt.Errorf("field %d: %w", i, err)
		}
		counts[i] = int16(v)
	}

	return gyro.RawSample{X: counts[0], Y: counts[1], Z: counts[2]}, nil
}

// Close releases the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
