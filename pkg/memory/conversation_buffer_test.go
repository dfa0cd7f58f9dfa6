package memory_test

import (
	"context"
	"testing"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/memory"
)

func TestConversationBuffer(t *testing.T) {
	buffer := memory.NewConversationBuffer()
	ctx := memory.WithConversationID(context.Background(), "conv1")

	messages := []interfaces.Message{
		{Role: "user", Content: "I want vegetarian lunch"},
		{Role: "assistant", Content: "Here are some options"},
		{Role: "user", Content: "Anything under ten dollars?"},
	}
	for _, msg := range messages {
		if err := buffer.AddMessage(ctx, msg); err != nil {
			t.Fatalf("Failed to add message: %v", err)
		}
	}

	got, err := buffer.GetMessages(ctx)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(got))
	}
	for i, msg := range got {
		if msg.Content != messages[i].Content {
			t.Errorf("Message %d: expected %q, got %q", i, messages[i].Content, msg.Content)
		}
	}
}

func TestConversationBufferAppendOrder(t *testing.T) {
	buffer := memory.NewConversationBuffer()
	ctx := memory.WithConversationID(context.Background(), "conv1")

	for _, content := range []string{"first", "second", "third"} {
		if err := buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: content}); err != nil {
			t.Fatalf("Failed to add message: %v", err)
		}
	}

	got, err := buffer.GetMessages(ctx)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if got[0].Content != "first" || got[2].Content != "third" {
		t.Errorf("Messages out of order: %v", got)
	}
}

func TestConversationBufferRoleFilter(t *testing.T) {
	buffer := memory.NewConversationBuffer()
	ctx := memory.WithConversationID(context.Background(), "conv1")

	_ = buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: "question"})
	_ = buffer.AddMessage(ctx, interfaces.Message{Role: "assistant", Content: "answer"})
	_ = buffer.AddMessage(ctx, interfaces.Message{Role: "tool", Content: "result", ToolCallID: "call1"})

	got, err := buffer.GetMessages(ctx, interfaces.WithRoles("user", "assistant"))
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got))
	}
	for _, msg := range got {
		if msg.Role == "tool" {
			t.Errorf("Tool message should have been filtered out")
		}
	}
}

func TestConversationBufferLimit(t *testing.T) {
	buffer := memory.NewConversationBuffer()
	ctx := memory.WithConversationID(context.Background(), "conv1")

	for _, content := range []string{"one", "two", "three", "four"} {
		_ = buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: content})
	}

	got, err := buffer.GetMessages(ctx, interfaces.WithLimit(2))
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "three" || got[1].Content != "four" {
		t.Errorf("Expected the most recent messages, got %v", got)
	}
}

func TestConversationBufferIsolation(t *testing.T) {
	buffer := memory.NewConversationBuffer()
	ctx1 := memory.WithConversationID(context.Background(), "user1:session1")
	ctx2 := memory.WithConversationID(context.Background(), "user2:session1")

	_ = buffer.AddMessage(ctx1, interfaces.Message{Role: "user", Content: "I am allergic to peanuts"})

	got, err := buffer.GetMessages(ctx2)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty transcript for other conversation, got %d messages", len(got))
	}
}

func TestConversationBufferClear(t *testing.T) {
	buffer := memory.NewConversationBuffer()
	ctx := memory.WithConversationID(context.Background(), "conv1")

	_ = buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: "hello"})
	if err := buffer.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}

	got, err := buffer.GetMessages(ctx)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty transcript after clear, got %d messages", len(got))
	}
}

func TestConversationBufferMissingConversationID(t *testing.T) {
	buffer := memory.NewConversationBuffer()

	err := buffer.AddMessage(context.Background(), interfaces.Message{Role: "user", Content: "hello"})
	if err == nil {
		t.Error("Expected an error when the context carries no conversation ID")
	}
}

func TestConversationBufferMaxSize(t *testing.T) {
	buffer := memory.NewConversationBuffer(memory.WithMaxSize(2))
	ctx := memory.WithConversationID(context.Background(), "conv1")

	for _, content := range []string{"one", "two", "three"} {
		_ = buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: content})
	}

	got, err := buffer.GetMessages(ctx)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "two" {
		t.Errorf("Expected oldest message to be dropped, got %q first", got[0].Content)
	}
}
