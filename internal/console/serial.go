package console

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// OpenSerial opens the serial device the console runs over.
func OpenSerial(device string, baud int) (io.ReadWriteCloser, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return port, nil
}
