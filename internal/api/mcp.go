package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/2339036/medication-adherence-system/internal/assistant"
	"github.com/2339036/medication-adherence-system/internal/faq"
	"github.com/2339036/medication-adherence-system/internal/intent"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Engine  ChatEngine
	FAQ     *faq.KnowledgeBase // nil uses faq.Default()
	Version string
}

// NewMCPServer creates an MCP server exposing the assistant as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.FAQ == nil {
		deps.FAQ = faq.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := server.NewMCPServer(
		"medassist",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("medassist answers medication questions, logs doses and sets reminders for a signed-in patient."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Send one message to the medication assistant and get its structured reply."),
			mcp.WithString("message", mcp.Description("The user's message"), mcp.Required()),
			mcp.WithString("history", mcp.Description("JSON array of prior {sender, text} turns, oldest first")),
			mcp.WithString("token", mcp.Description("Bearer token of the patient; omit for anonymous questions")),
		),
		mcpChat(deps),
	)

	s.AddTool(
		mcp.NewTool("faq_search",
			mcp.WithDescription("Return the FAQ answer that best matches a question."),
			mcp.WithString("query", mcp.Description("The question"), mcp.Required()),
		),
		mcpFAQSearch(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"faq://entries",
			"FAQ Entries",
			mcp.WithResourceDescription("The assistant's FAQ knowledge base as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFAQ(deps),
	)

	return s
}

func mcpChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		var history []intent.Turn
		if raw := req.GetString("history", ""); raw != "" {
			if err := json.Unmarshal([]byte(raw), &history); err != nil {
				return mcpError(fmt.Sprintf("invalid history JSON: %v", err)), nil
			}
		}

		auth := ""
		if token := req.GetString("token", ""); token != "" {
			auth = "Bearer " + token
		}

		resp, err := deps.Engine.Chat(ctx, assistant.Request{
			Message:       message,
			History:       history,
			Authorization: auth,
		})
		if err != nil {
			slog.Error("mcp chat failed", "error", err)
			return mcpError(assistant.ServerError().Message), nil
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal reply: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpFAQSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		entry, ok := deps.FAQ.Best(query)
		if !ok {
			return mcpText("No FAQ entry matches."), nil
		}
		return mcpText(entry.Answer), nil
	}
}

func mcpResourceFAQ(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.FAQ.Entries())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal faq: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
