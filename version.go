// Package nebumcp holds shared metadata for the nebu MCP server.
package nebumcp

// Version is the nebu-mcp release version.
const Version = "0.3.0"
