// Package server implements the MCP (Model Context Protocol) server that
// exposes target location to MCP clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image information:
//   - image_load: Load image and get metadata, including working resolution
//   - image_dimensions: Get width and height
//   - image_edge_detect: The edge map the fit scores against
//
// Target location:
//   - target_fit: Search for the target pose
//   - target_score: Cost of a given pose
//   - target_overlay: Photo with the located target drawn on it
//   - target_crop: Square crop or rectified view of the target face
//
// # Image Caching
//
// Images are cached by path for the lifetime of the server process, so a
// fit followed by an overlay of the same photo decodes it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string as data. Malformed lines get -32700 and
// malformed tools/call params -32602.
//
// # Usage
//
//	srv := server.New(fit.DefaultConfig())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
