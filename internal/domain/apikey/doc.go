// Package apikey stores the shared secret that authenticates API callers.
//
// The secret lives in a small JSON file:
//
//	{
//	    "api_key": "your_api_key_here"
//	}
//
// Load creates the file with the placeholder on first run. The Store is
// constructed once at startup and passed to the HTTP gateway; Set is used by
// the `-key` administrative entry point and Reload picks up edits made on disk.
package apikey
