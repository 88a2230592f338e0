//go:build !cgo && !windows

package desktop

import "agentdesk/internal/device"

// New needs robotgo, which needs cgo outside Windows.
func New(n int) (device.Device, error) {
	return nil, device.ErrUnsupported
}
