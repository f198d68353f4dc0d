package grbl

import (
	"io"

	"github.com/tarm/serial"
)

// OpenSerial opens a serial port for use with NewAdapter.
func OpenSerial(name string, baud int) (io.ReadWriteCloser, error) {
	return serial.OpenPort(&serial.Config{Name: name, Baud: baud})
}
