package runner

import (
	"fmt"
	"log/slog"

	"github.com/notargets/gocca"
)

// TestDeviceModes are tried in order by CreateTestDevice
var TestDeviceModes = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// CreateTestDevice creates the first OCCA device that initializes, preferring
// parallel modes
func CreateTestDevice() (*gocca.OCCADevice, error) {
	for _, props := range TestDeviceModes {
		device, err := gocca.NewDevice(props)
		if err == nil {
			slog.Debug("created test device", "mode", device.Mode())
			return device, nil
		}
	}
	return nil, fmt.Errorf("no OCCA device could be created from %d modes", len(TestDeviceModes))
}
