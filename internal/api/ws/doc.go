// Package ws pushes console lines and collaborator status events to UI
// clients over a WebSocket.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Greeting sent on connect
//   - log: One console entry
//   - status: Session or download status event
//   - pong: Reply to ping
//   - error: Unrecognized client frame
//
// Each connection subscribes to the log stream and the status topic when it
// opens and removes both subscriptions when it closes.
//
// Example Usage:
//
//	handler := ws.NewHandler(ctl.Logs(), ctl.Bus(), logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
