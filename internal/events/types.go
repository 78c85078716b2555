package events

import "time"

// StatusType discriminates status payloads.
type StatusType string

const (
	StatusSession          StatusType = "session"
	StatusDownloading      StatusType = "downloading"
	StatusDownloadProgress StatusType = "download-progress"
	StatusDownloadComplete StatusType = "download-complete"
)

// Status is one status-stream payload.
type Status struct {
	Type    StatusType `json:"type"`
	Device  string     `json:"device,omitempty"`
	Running bool       `json:"running"`
	Message string     `json:"message,omitempty"`
	Percent int        `json:"percent,omitempty"`
	At      time.Time  `json:"at"`
}

// SessionStarted builds a {device, running:true} event.
func SessionStarted(device string) Status {
	return Status{Type: StatusSession, Device: device, Running: true, At: time.Now()}
}

// SessionStopped builds a {device, running:false} event.
func SessionStopped(device string) Status {
	return Status{Type: StatusSession, Device: device, Running: false, At: time.Now()}
}

// Downloading builds a download lifecycle marker.
func Downloading(message string) Status {
	return Status{Type: StatusDownloading, Message: message, At: time.Now()}
}

// DownloadProgress builds a progress marker.
func DownloadProgress(percent int) Status {
	return Status{Type: StatusDownloadProgress, Percent: percent, At: time.Now()}
}

// DownloadComplete builds the completion marker; message carries the
// install directory.
func DownloadComplete(message string) Status {
	return Status{Type: StatusDownloadComplete, Message: message, At: time.Now()}
}
