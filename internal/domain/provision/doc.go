// Package provision turns a request for a sandbox into a live, shareable
// terminal session.
//
// Sequence for one request:
//
//	Create ──fail──▶ ErrCreate
//	  │
//	Launch ──fail──▶ teardown, ErrLaunch
//	  │
//	Extract ──none──▶ teardown, ErrCapture
//	  │
//	Record{owner, handle, command}
//
// There are no retries between steps; the only waiting happens inside the
// extractor's bounded poll. Teardown is fire-and-forget: Destroy errors are
// logged by the runtime and never reach the caller. Orchestrator.Wait lets
// the server drain pending teardowns on shutdown.
package provision
