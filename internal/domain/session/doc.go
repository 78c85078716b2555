// Package session tracks which devices have a running mirroring session.
//
// The running set changes only when the collaborator confirms it on the
// status topic: starting a session is asynchronous, and the registry waits
// for the {device, running:true} event rather than trusting the request.
//
// Components:
//   - Registry: running set, binary download progress, start/stop intents
//   - Handle: applies one status event; the caller feeds events in arrival
//     order from a single goroutine
//
// Entries may name devices that are no longer in the discovery snapshot.
// They stay until the matching running:false event arrives.
//
// Example Usage:
//
//	reg := session.NewRegistry(collab, logs, logger)
//	unsubscribe := bus.SubscribeStatus(reg.Handle)
//	defer unsubscribe()
//	err := reg.Start(ctx, cfg)
package session
