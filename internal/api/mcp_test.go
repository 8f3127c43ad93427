package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/2339036/medication-adherence-system/internal/assistant"
	"github.com/2339036/medication-adherence-system/internal/faq"
	"github.com/2339036/medication-adherence-system/internal/intent"
)

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestMCPTool_Chat(t *testing.T) {
	eng := &mockEngine{resp: assistant.Navigate(assistant.RouteAdherence, "logged")}
	handler := mcpChat(MCPDeps{Engine: eng})

	req := makeCallToolRequest("chat", map[string]interface{}{
		"message": "8pm",
		"history": `[{"sender":"user","text":"remind me to take aspirin"},{"sender":"bot","text":"What time should I remind you?"}]`,
		"token":   "tok-7",
	})
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var resp assistant.Response
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("result is not a response envelope: %v", err)
	}
	if resp.Type != assistant.KindNavigate || resp.Route != assistant.RouteAdherence {
		t.Fatalf("unexpected response %+v", resp)
	}

	if eng.last.Authorization != "Bearer tok-7" {
		t.Fatalf("authorization = %q", eng.last.Authorization)
	}
	if len(eng.last.History) != 2 || eng.last.History[1].Speaker != intent.Bot {
		t.Fatalf("unexpected history %+v", eng.last.History)
	}
}

func TestMCPTool_Chat_Anonymous(t *testing.T) {
	eng := &mockEngine{resp: assistant.Text("hi")}
	handler := mcpChat(MCPDeps{Engine: eng})

	result, err := handler(context.Background(), makeCallToolRequest("chat", map[string]interface{}{"message": "hello"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if eng.last.Authorization != "" {
		t.Fatalf("expected no authorization, got %q", eng.last.Authorization)
	}
}

func TestMCPTool_Chat_MissingMessage(t *testing.T) {
	handler := mcpChat(MCPDeps{Engine: &mockEngine{}})

	result, err := handler(context.Background(), makeCallToolRequest("chat", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPTool_Chat_BadHistory(t *testing.T) {
	handler := mcpChat(MCPDeps{Engine: &mockEngine{}})

	result, _ := handler(context.Background(), makeCallToolRequest("chat", map[string]interface{}{
		"message": "hi",
		"history": `[{"sender":"robot","text":"x"}]`,
	}))
	if !result.IsError || !strings.Contains(toolText(t, result), "invalid history") {
		t.Fatalf("expected invalid history error, got %q", toolText(t, result))
	}
}

func TestMCPTool_Chat_EngineError(t *testing.T) {
	handler := mcpChat(MCPDeps{Engine: &mockEngine{err: errors.New("adherence is unreachable")}})

	result, _ := handler(context.Background(), makeCallToolRequest("chat", map[string]interface{}{"message": "next dose"}))
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := toolText(t, result); got != "Server error" {
		t.Fatalf("tool text = %q, want the generic server error", got)
	}
}

func TestMCPTool_FAQSearch(t *testing.T) {
	handler := mcpFAQSearch(MCPDeps{FAQ: faq.Default()})

	result, err := handler(context.Background(), makeCallToolRequest("faq_search", map[string]interface{}{
		"query": "how do I reset my password",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(toolText(t, result), "Forgot Password") {
		t.Fatalf("unexpected answer %q", toolText(t, result))
	}

	result, _ = handler(context.Background(), makeCallToolRequest("faq_search", map[string]interface{}{
		"query": "qwerty zxcv",
	}))
	if result.IsError || toolText(t, result) != "No FAQ entry matches." {
		t.Fatalf("unexpected result %q", toolText(t, result))
	}
}

func TestMCPResource_FAQ(t *testing.T) {
	kb, err := faq.New([]faq.Entry{{Triggers: []string{"ping"}, Answer: "pong"}})
	if err != nil {
		t.Fatal(err)
	}
	handler := mcpResourceFAQ(MCPDeps{FAQ: kb})

	contents, err := handler(context.Background(), makeReadResourceRequest("faq://entries"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var entries []faq.Entry
	if err := json.Unmarshal([]byte(tc.Text), &entries); err != nil {
		t.Fatalf("failed to parse entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Answer != "pong" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestNewMCPServer_Defaults(t *testing.T) {
	if s := NewMCPServer(MCPDeps{Engine: &mockEngine{}}); s == nil {
		t.Fatal("expected server")
	}
}
