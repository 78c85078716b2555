// Package collaborator drives the external adb and scrcpy executables.
//
// The Collaborator interface is the only way the orchestration layer
// reaches the device transport. CLI is the production implementation; it
// shells out, parses the tools' text output, and pushes asynchronous session
// status and console lines through an events.Publisher.
//
// Every method accepts an optional path naming a folder that holds the
// executables; an empty path uses the configured folder and the default
// search order.
package collaborator

import (
	"context"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
)

// Collaborator is the contract between the orchestration layer and the
// device tooling.
type Collaborator interface {
	ListDevices(ctx context.Context, path string) (DeviceList, error)
	Connect(ctx context.Context, endpoint, path string) (Attempt, error)
	Disconnect(ctx context.Context, endpoint, path string) error
	Pair(ctx context.Context, endpoint, code, path string) (Attempt, error)
	ListOptions(ctx context.Context, device, arg, path string) (string, error)

	// StartSession launches a session and returns once the process is
	// spawned. Running state is reported later on the status topic.
	StartSession(ctx context.Context, cfg settings.SessionConfig) error
	StopSession(ctx context.Context, device string) error

	PushFile(ctx context.Context, device, file, path string) (Transfer, error)
	InstallPackage(ctx context.Context, device, file, path string) (Transfer, error)
	RunCommand(ctx context.Context, device, command, path string) (CommandOutput, error)

	CheckBinary(ctx context.Context, path string) BinaryStatus
	MdnsServices(ctx context.Context, path string) ([]MdnsService, error)
	KillServer(ctx context.Context, path string) error
}
