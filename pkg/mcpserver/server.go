package mcpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Version is the server version reported during initialization.
const Version = "1.0.0"

// Tool couples a tool's schema with its handler.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     func(*ToolCall) *ToolResult
}

// Server serves the MCP tool surface over a stdio transport. Messages are
// handled strictly one at a time: the dispatcher's rate-limiter state relies
// on tool calls never overlapping.
type Server struct {
	transport *StdioTransport
	logger    *Logger
	tools     map[string]*Tool
	toolOrder []string
	done      chan struct{}
	stopOnce  sync.Once
}

// NewServer creates a server over the given transport and registers the
// chatgpt tool backed by frontend.
func NewServer(transport *StdioTransport, frontend *Frontend, logger *Logger) *Server {
	s := &Server{
		transport: transport,
		logger:    logger,
		tools:     make(map[string]*Tool),
		done:      make(chan struct{}),
	}
	s.register(&Tool{
		Name: "chatgpt",
		Description: "Interact with the ChatGPT desktop application: ask a question and read " +
			"back the answer, or list the available conversations.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"description": "Operation to perform: ask or get_conversations",
					"enum":        []string{OperationAsk, OperationListConversations},
				},
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "The prompt to send to ChatGPT (required for ask)",
				},
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional conversation to continue; the active conversation is used when it cannot be found",
				},
				"delay_ms": map[string]interface{}{
					"type":        "number",
					"description": "Override of the minimum dispatch interval in milliseconds; 0 disables throttling for this call. Default: 120000",
				},
			},
			"required": []string{"operation"},
		},
		Handler: frontend.HandleToolCall,
	})
	return s
}

func (s *Server) register(tool *Tool) {
	s.tools[tool.Name] = tool
	s.toolOrder = append(s.toolOrder, tool.Name)
}

// Serve reads and handles messages until the peer closes the stream or a
// shutdown is requested.
func (s *Server) Serve() error {
	s.logger.LogServerStart(Version)

	for {
		select {
		case <-s.done:
			s.logger.Info("server stopping (shutdown requested)")
			return nil
		default:
		}

		msg, err := s.transport.ReadMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("server stopping (stdin closed)")
				return nil
			}
			s.logger.Warn("skipping unreadable message", "error", err.Error())
			continue
		}

		s.handleMessage(msg)
	}
}

// handleMessage processes a single protocol message synchronously.
func (s *Server) handleMessage(msg *Message) {
	switch msg.Method {
	case "initialize":
		s.reply(msg, s.handleInitialize(msg))

	case "notifications/initialized":
		// Client acknowledgment, no response required.

	case "ping":
		s.replyResult(msg, json.RawMessage(`{}`))

	case "tools/list":
		s.reply(msg, s.handleToolsList(msg))

	case "tools/call":
		s.reply(msg, s.handleToolsCall(msg))

	case "shutdown":
		s.replyResult(msg, json.RawMessage(`{}`))
		s.stop()

	case "exit":
		s.stop()

	default:
		if msg.IsNotification() {
			return
		}
		s.reply(msg, &Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &ErrorObj{
				Code:    ErrCodeMethodNotFound,
				Message: fmt.Sprintf("unknown method: %s", msg.Method),
			},
		})
	}
}

func (s *Server) handleInitialize(msg *Message) *Message {
	var params InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			s.logger.Warn("initialize params unparseable, using defaults", "error", err.Error())
		}
	}

	clientName := params.ClientInfo.Name
	if clientName == "" {
		clientName = "unknown"
	}
	s.logger.Info("client connected",
		"client", clientName,
		"client_version", params.ClientInfo.Version,
		"protocol_version", params.ProtocolVersion)

	result := InitializeResult{
		ProtocolVersion: ProtocolVersionCurrent,
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		ServerInfo: ServerInfo{
			Name:    "chatbridge",
			Version: Version,
		},
	}

	data, err := json.Marshal(result)
	if err != nil {
		return s.internalError(msg, "failed to marshal initialize result")
	}
	return &Message{JSONRPC: "2.0", ID: msg.ID, Result: data}
}

func (s *Server) handleToolsList(msg *Message) *Message {
	descriptors := make([]ToolDescriptor, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		tool := s.tools[name]
		descriptors = append(descriptors, ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}

	data, err := json.Marshal(ToolsListResult{Tools: descriptors})
	if err != nil {
		return s.internalError(msg, "failed to marshal tools list")
	}
	return &Message{JSONRPC: "2.0", ID: msg.ID, Result: data}
}

func (s *Server) handleToolsCall(msg *Message) *Message {
	var call ToolCall
	if err := json.Unmarshal(msg.Params, &call); err != nil {
		return &Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &ErrorObj{
				Code:    ErrCodeInvalidParams,
				Message: fmt.Sprintf("invalid params: %v", err),
			},
		}
	}

	tool, ok := s.tools[call.Name]
	if !ok {
		return &Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &ErrorObj{
				Code:    ErrCodeInvalidParams,
				Message: fmt.Sprintf("unknown tool: %s", call.Name),
			},
		}
	}

	result := tool.Handler(&call)
	s.logger.LogToolCall(call.Name, result.IsError)

	data, err := json.Marshal(result)
	if err != nil {
		return s.internalError(msg, "failed to marshal tool result")
	}
	return &Message{JSONRPC: "2.0", ID: msg.ID, Result: data}
}

// stop marks the server as shut down. Safe to call more than once; clients
// send shutdown and exit back to back.
func (s *Server) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Server) internalError(msg *Message, text string) *Message {
	return &Message{
		JSONRPC: "2.0",
		ID:      msg.ID,
		Error: &ErrorObj{
			Code:    ErrCodeInternalError,
			Message: text,
		},
	}
}

// reply writes a response unless the originating message was a notification.
func (s *Server) reply(msg *Message, response *Message) {
	if msg.IsNotification() || response == nil {
		return
	}
	if err := s.transport.WriteMessage(response); err != nil {
		s.logger.Error("failed to write response", "error", err.Error())
	}
}

func (s *Server) replyResult(msg *Message, result json.RawMessage) {
	s.reply(msg, &Message{JSONRPC: "2.0", ID: msg.ID, Result: result})
}
