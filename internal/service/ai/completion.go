package ai

import (
	"context"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reply 补全结果。Degraded 为真表示模型没有给出可用内容，
// Text 是固定的兜底话术。
type Reply struct {
	Text     string
	Degraded bool
}

// Completer 调用大模型生成回复，任何失败都降级为兜底话术。
type Completer struct {
	chatModel model.ChatModel
	fallback  string
}

// NewCompleter 创建补全器。chatModel 为 nil 时所有请求直接降级。
func NewCompleter(chatModel model.ChatModel, fallback string) *Completer {
	if strings.TrimSpace(fallback) == "" {
		fallback = "抱歉，我现在无法回答您的问题，请稍后再试。"
	}
	return &Completer{chatModel: chatModel, fallback: fallback}
}

// Complete 对组装好的消息执行一次补全。
// 补全失败不向上抛错：调用方拿到兜底文本和 Degraded 标记后继续走完整条流水线。
func (c *Completer) Complete(ctx context.Context, messages []*schema.Message) Reply {
	if c.chatModel == nil {
		return Reply{Text: c.fallback, Degraded: true}
	}

	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		log.Printf("[ai] 模型调用失败: %v", err)
		return Reply{Text: c.fallback, Degraded: true}
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		log.Printf("[ai] 模型返回空回复")
		return Reply{Text: c.fallback, Degraded: true}
	}

	return Reply{Text: resp.Content}
}
