package mcpserver

import "encoding/json"

// MCP protocol structures for the tool surface. These replace untyped
// map[string]interface{} handling on the hot path; only tool schemas stay as
// maps since they are write-only.

// Supported MCP protocol versions.
const (
	ProtocolVersionCurrent  = "2024-11-05"
	ProtocolVersionPrevious = "2024-10-07"
)

// InitializeParams represents the params of an MCP initialize request.
type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      ClientInfo `json:"clientInfo"`
}

// ClientInfo represents client information in an initialize request.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo identifies this server in the initialize response.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the payload of a successful initialize response.
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      ServerInfo             `json:"serverInfo"`
}

// ToolDescriptor describes one tool in a tools/list response.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolsListResult is the payload of a tools/list response.
type ToolsListResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// ToolCall represents an incoming tools/call invocation.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Content is a single content item in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the response envelope for a tool invocation. Failures are
// reported as IsError with human-readable text, not as protocol-level faults.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// TextResult builds a success envelope with a single text item.
func TextResult(text string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: text}},
		IsError: false,
	}
}

// ErrorResult builds an error envelope with an "Error: " text payload.
func ErrorResult(message string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: "Error: " + message}},
		IsError: true,
	}
}
