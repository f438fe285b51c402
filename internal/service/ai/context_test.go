package ai

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	"github.com/chenweiyi/roleverse/backend/internal/model/chat"
)

func TestBuildIncludesSceneSetting(t *testing.T) {
	character := &catalog.Character{SystemPrompt: "你是艾米莉亚。"}
	scene := &catalog.Scene{BackgroundPrompt: "你身处魔法城堡。"}

	msgs := NewAssembler(4).Build(character, scene, nil, "你好")

	if len(msgs) != 2 {
		t.Fatalf("expected system + user, got %d messages", len(msgs))
	}
	if msgs[0].Role != schema.System {
		t.Fatalf("first message role = %v", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "你是艾米莉亚。") {
		t.Errorf("system prompt missing character prompt")
	}
	if !strings.Contains(msgs[0].Content, "\n\n场景设定：你身处魔法城堡。") {
		t.Errorf("system prompt missing scene setting, got %q", msgs[0].Content)
	}
	if msgs[1].Role != schema.User || msgs[1].Content != "你好" {
		t.Errorf("last message should be current user text")
	}
}

func TestBuildWithoutCharacterUsesDefaultPrompt(t *testing.T) {
	msgs := NewAssembler(4).Build(nil, nil, nil, "hi")
	if msgs[0].Content != defaultSystemPrompt {
		t.Fatalf("got %q", msgs[0].Content)
	}
}

func TestBuildFiltersAndLimitsHistory(t *testing.T) {
	history := []chat.Message{
		{Sender: chat.SenderUser, Content: "第一条，应被截掉"},
		{Sender: chat.SenderUser, Content: "问题一"},
		{Sender: chat.SenderCharacter, Content: "回答一"},
		{Sender: "system", Content: "未知发送方，应过滤"},
		{Sender: chat.SenderUser, Content: "   "},
		{Sender: chat.SenderCharacter, Content: "回答二"},
	}

	msgs := NewAssembler(5).Build(nil, nil, history, "当前输入")

	// system + (问题一, 回答一, 回答二) + 当前输入
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "问题一" || msgs[1].Role != schema.User {
		t.Errorf("history[0] = %+v", msgs[1])
	}
	if msgs[2].Content != "回答一" || msgs[2].Role != schema.Assistant {
		t.Errorf("history[1] = %+v", msgs[2])
	}
	if msgs[3].Content != "回答二" {
		t.Errorf("history[2] = %+v", msgs[3])
	}
}

func TestBuildKeepsChronologicalOrder(t *testing.T) {
	history := []chat.Message{
		{Sender: chat.SenderUser, Content: "1"},
		{Sender: chat.SenderCharacter, Content: "2"},
		{Sender: chat.SenderUser, Content: "3"},
		{Sender: chat.SenderCharacter, Content: "4"},
		{Sender: chat.SenderUser, Content: "5"},
	}

	msgs := NewAssembler(4).Build(nil, nil, history, "6")

	var got []string
	for _, m := range msgs[1:] {
		got = append(got, m.Content)
	}
	want := []string{"2", "3", "4", "5", "6"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
