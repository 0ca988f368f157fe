package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChatService is the dispatcher surface the frontend drives. Ask returns
// best-effort reply text; ListConversations returns entry names or a
// classified error that the frontend downgrades.
type ChatService interface {
	Ask(prompt, conversationID string, delayOverride *time.Duration) (string, error)
	ListConversations() ([]string, error)
}

// Operation names accepted by the chatgpt tool.
const (
	OperationAsk               = "ask"
	OperationListConversations = "get_conversations"
)

// ConversationsErrorSentinel is the single-element result returned when
// listing conversations fails. Listing never surfaces an error envelope.
const ConversationsErrorSentinel = "Error retrieving conversations"

// toolArgs is the untyped invocation payload before validation.
type toolArgs struct {
	Operation      string   `json:"operation"`
	Prompt         string   `json:"prompt"`
	ConversationID string   `json:"conversation_id"`
	DelayMs        *float64 `json:"delay_ms"`
}

// Frontend validates tool arguments into typed requests and maps dispatch
// results into response envelopes. All validation happens before the service
// is touched, so a rejected request leaves no rate-limiter state behind.
type Frontend struct {
	service ChatService
	logger  *Logger
}

// NewFrontend creates a frontend over the given chat service.
func NewFrontend(service ChatService, logger *Logger) *Frontend {
	return &Frontend{
		service: service,
		logger:  logger,
	}
}

// HandleToolCall processes one chatgpt tool invocation.
func (f *Frontend) HandleToolCall(call *ToolCall) *ToolResult {
	var args toolArgs
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return ErrorResult(fmt.Sprintf("invalid arguments: %v", err))
		}
	}

	switch args.Operation {
	case OperationAsk:
		return f.handleAsk(&args)
	case OperationListConversations:
		return f.handleListConversations()
	case "":
		return ErrorResult("operation is required")
	default:
		return ErrorResult(fmt.Sprintf("unknown operation: %q", args.Operation))
	}
}

func (f *Frontend) handleAsk(args *toolArgs) *ToolResult {
	if strings.TrimSpace(args.Prompt) == "" {
		return ErrorResult("prompt is required for the ask operation")
	}

	var delayOverride *time.Duration
	if args.DelayMs != nil {
		if *args.DelayMs < 0 {
			return ErrorResult("delay_ms must be non-negative")
		}
		d := time.Duration(*args.DelayMs) * time.Millisecond
		delayOverride = &d
	}

	reply, err := f.service.Ask(args.Prompt, args.ConversationID, delayOverride)
	if err != nil {
		if f.logger != nil {
			f.logger.Error("ask dispatch failed", "error", err.Error())
		}
		return ErrorResult(fmt.Sprintf("Failed to get response from ChatGPT: %v", err))
	}
	return TextResult(reply)
}

func (f *Frontend) handleListConversations() *ToolResult {
	names, err := f.service.ListConversations()
	if err != nil {
		// Downgraded on purpose: listing reports a sentinel value instead of
		// an error envelope.
		if f.logger != nil {
			f.logger.Warn("conversation listing failed, returning sentinel", "error", err.Error())
		}
		return TextResult(ConversationsErrorSentinel)
	}
	return TextResult(strings.Join(names, "\n"))
}
