// wsprobe 手动验证对话网关：连上 /ws/chat，发一条文本或语音消息，
// 把网关回发的全部信封打印出来，直到收到 response 或 error。
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	MessageID string          `json:"messageId"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	endpoint := flag.String("url", "ws://localhost:8082/ws/chat", "网关地址")
	sessionID := flag.String("session", "", "会话ID，必填")
	text := flag.String("text", "", "文本消息内容")
	audioPath := flag.String("audio", "", "语音消息的音频文件路径")
	format := flag.String("format", "", "音频格式（可选，嗅探失败时使用）")
	voice := flag.String("voice", "", "指定音色，留空则不合成语音")
	timeout := flag.Duration("timeout", 60*time.Second, "等待响应的超时时间")

	flag.Parse()

	if *sessionID == "" {
		flag.Usage()
		log.Fatal("请通过 -session 指定会话ID")
	}
	if (*text == "") == (*audioPath == "") {
		flag.Usage()
		log.Fatal("请通过 -text 或 -audio 指定一条消息（二选一）")
	}

	conn, _, err := websocket.DefaultDialer.Dial(*endpoint, nil)
	if err != nil {
		log.Fatalf("连接网关失败: %v", err)
	}
	defer conn.Close()

	var msgType string
	var data map[string]any
	if *text != "" {
		msgType = "text"
		data = map[string]any{"sessionId": *sessionID, "text": *text, "voiceType": *voice}
	} else {
		raw, err := os.ReadFile(*audioPath)
		if err != nil {
			log.Fatalf("读取音频文件失败: %v", err)
		}
		msgType = "audio"
		data = map[string]any{
			"sessionId": *sessionID,
			"audioData": base64.StdEncoding.EncodeToString(raw),
			"format":    *format,
			"voiceType": *voice,
		}
	}

	rawData, _ := json.Marshal(data)
	out := envelope{
		Type:      msgType,
		Data:      rawData,
		Timestamp: time.Now().UnixMilli(),
		MessageID: fmt.Sprintf("probe_%d", time.Now().UnixMilli()),
	}
	if err := conn.WriteJSON(out); err != nil {
		log.Fatalf("发送消息失败: %v", err)
	}
	log.Printf("已发送 %s 消息 messageId=%s", msgType, out.MessageID)

	deadline := time.Now().Add(*timeout)
	for {
		conn.SetReadDeadline(deadline)
		var in envelope
		if err := conn.ReadJSON(&in); err != nil {
			log.Fatalf("读取响应失败: %v", err)
		}
		log.Printf("<- type=%s messageId=%s data=%s", in.Type, in.MessageID, string(in.Data))
		if in.Type == "response" || in.Type == "error" {
			return
		}
	}
}
