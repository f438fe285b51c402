// Package ai 负责对话上下文组装与大模型补全。
package ai

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	"github.com/chenweiyi/roleverse/backend/internal/model/chat"
)

// defaultSystemPrompt 角色缺失时的兜底人设。
const defaultSystemPrompt = "你是一个友善的AI助手，请用中文回答用户的问题。"

// Assembler 把角色、场景与历史拼成发给模型的消息序列。
type Assembler struct {
	historyLimit int
}

// NewAssembler 创建上下文组装器，limit 为携带的历史条数上限。
func NewAssembler(historyLimit int) *Assembler {
	if historyLimit <= 0 {
		historyLimit = 4
	}
	return &Assembler{historyLimit: historyLimit}
}

// Limit 返回携带的历史条数上限，供取数方按需裁剪查询。
func (a *Assembler) Limit() int { return a.historyLimit }

// Build 生成 [system, history..., user] 消息序列。
// 历史按时间正序取最近 N 条，未知发送方或空内容的记录直接过滤。
func (a *Assembler) Build(character *catalog.Character, scene *catalog.Scene, history []chat.Message, userText string) []*schema.Message {
	system := defaultSystemPrompt
	if character != nil && strings.TrimSpace(character.SystemPrompt) != "" {
		system = character.SystemPrompt
	}
	if scene != nil && strings.TrimSpace(scene.BackgroundPrompt) != "" {
		system += "\n\n场景设定：" + scene.BackgroundPrompt
	}

	messages := make([]*schema.Message, 0, a.historyLimit+2)
	messages = append(messages, schema.SystemMessage(system))

	start := 0
	if len(history) > a.historyLimit {
		start = len(history) - a.historyLimit
	}
	for _, msg := range history[start:] {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Sender {
		case chat.SenderUser:
			messages = append(messages, schema.UserMessage(msg.Content))
		case chat.SenderCharacter:
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		}
	}

	messages = append(messages, schema.UserMessage(userText))
	return messages
}
