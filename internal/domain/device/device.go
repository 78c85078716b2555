// Package device owns the discovered-device snapshot: it reconciles
// successive listings from the collaborator, reports what appeared and
// disappeared, and tracks which device the user is working with.
package device

import "strings"

// Transport classifies how a device is reached.
type Transport string

const (
	TransportUSB     Transport = "usb"
	TransportNetwork Transport = "network"
)

// Classify reports the transport of a device id. Network ids are
// host:port endpoints; anything else is a local serial.
func Classify(id string) Transport {
	if IsEndpoint(id) {
		return TransportNetwork
	}
	return TransportUSB
}

// IsEndpoint reports whether s has host:port form.
func IsEndpoint(s string) bool {
	i := strings.LastIndexByte(s, ':')
	return i > 0 && i < len(s)-1
}

// Info is a device id annotated for API consumers.
type Info struct {
	ID        string    `json:"id"`
	Transport Transport `json:"transport"`
	Active    bool      `json:"active"`
}
