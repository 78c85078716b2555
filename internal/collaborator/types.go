package collaborator

// DeviceList is the result of a device listing. A non-empty Error means the
// collaborator ran but reported a failure.
type DeviceList struct {
	Devices []string `json:"devices"`
	Error   string   `json:"error,omitempty"`
}

// Attempt is the outcome of a connect or pair call. It is never persisted.
type Attempt struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CommandOutput is the captured output of an ad-hoc command. Binary names
// the executable that ran ("adb" or "scrcpy").
type CommandOutput struct {
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
	Binary string `json:"binary"`
}

// Transfer is the outcome of a file push or package install.
type Transfer struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BinaryStatus reports whether the mirroring executable is usable.
type BinaryStatus struct {
	Found   bool   `json:"found"`
	Message string `json:"message"`
}

// MdnsService is one advertised wireless-debugging service.
type MdnsService struct {
	Name    string `json:"name"`
	Service string `json:"service"`
	Address string `json:"address"`
}
