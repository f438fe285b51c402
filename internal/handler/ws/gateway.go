// Package ws 提供对话网关的 WebSocket 接入层。
// 客户端与服务端之间的所有消息都走统一的信封格式，
// 回合内的进度与最终响应按产生顺序经由单写协程下发。
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chenweiyi/roleverse/backend/internal/service/turn"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	outboundSize = 16
)

// Runner 执行一次对话回合，由编排器实现。
type Runner interface {
	TextTurn(ctx context.Context, n turn.Notifier, in turn.Input) (turn.Result, error)
	VoiceTurn(ctx context.Context, n turn.Notifier, in turn.Input) (turn.Result, error)
}

// Gateway 管理 WebSocket 连接的生命周期并把消息分发给回合编排器。
type Gateway struct {
	turns    Runner
	upgrader websocket.Upgrader
}

// NewGateway 创建网关。
func NewGateway(turns Runner) *Gateway {
	return &Gateway{
		turns: turns,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP 升级连接并进入读循环。
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] 升级连接失败: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	out := make(chan outEnvelope, outboundSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.writeLoop(conn, out, cancel)
	}()
	go g.pingLoop(ctx, conn)

	out <- newOutEnvelope(TypeConnection, map[string]any{"status": "connected"}, "")

	g.readLoop(ctx, conn, out)

	close(out)
	wg.Wait()
}

// readLoop 逐条读取信封并同步处理，结构不完整的消息直接丢弃。
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- outEnvelope) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[gateway] 读取消息失败: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("[gateway] 信封解析失败，丢弃: %v", err)
			continue
		}
		if !env.Valid() {
			log.Printf("[gateway] 信封缺少必要字段，丢弃: type=%q", env.Type)
			continue
		}

		g.dispatch(ctx, out, env)
	}
}

// dispatch 按信封类型路由到对应处理。
func (g *Gateway) dispatch(ctx context.Context, out chan<- outEnvelope, env Envelope) {
	switch env.Type {
	case TypeConnectionAck:
		out <- newOutEnvelope(TypeConnectionAckOK, map[string]any{"status": "acknowledged"}, env.MessageID)

	case TypeText:
		g.handleText(ctx, out, env)

	case TypeAudio:
		g.handleAudio(ctx, out, env)

	default:
		log.Printf("[gateway] 未知消息类型，丢弃: %q", env.Type)
	}
}

func (g *Gateway) handleText(ctx context.Context, out chan<- outEnvelope, env Envelope) {
	var payload textPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		sendError(out, env.MessageID, "消息格式错误", stepTextFailed)
		return
	}

	res, err := g.turns.TextTurn(ctx, progressNotifier{out: out, messageID: env.MessageID}, turn.Input{
		SessionID:   payload.SessionID,
		CharacterID: payload.CharacterID,
		Text:        payload.Text,
		VoiceType:   payload.VoiceType,
	})
	if err != nil {
		log.Printf("[gateway] 文本回合失败: %v", err)
		sendError(out, env.MessageID, err.Error(), stepTextFailed)
		return
	}
	sendResponse(out, env.MessageID, res)
}

func (g *Gateway) handleAudio(ctx context.Context, out chan<- outEnvelope, env Envelope) {
	var payload audioPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		sendError(out, env.MessageID, "消息格式错误", stepAudioFailed)
		return
	}

	res, err := g.turns.VoiceTurn(ctx, progressNotifier{out: out, messageID: env.MessageID}, turn.Input{
		SessionID: payload.SessionID,
		AudioData: payload.AudioData,
		Format:    payload.Format,
		VoiceType: payload.VoiceType,
	})
	if err != nil {
		log.Printf("[gateway] 语音回合失败: %v", err)
		sendError(out, env.MessageID, err.Error(), stepAudioFailed)
		return
	}
	sendResponse(out, env.MessageID, res)
}

// writeLoop 独占连接的写端，保证下发顺序与入队顺序一致。
func (g *Gateway) writeLoop(conn *websocket.Conn, out <-chan outEnvelope, cancel context.CancelFunc) {
	for env := range out {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(env); err != nil {
			log.Printf("[gateway] 写入失败: %v", err)
			cancel()
			return
		}
	}
}

// pingLoop 定期发送 Ping 保活，客户端的 Pong 会重置读超时。
func (g *Gateway) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// 错误信封的 step 字段，客户端据此区分失败阶段。
const (
	stepAudioFailed = "audio_processing_failed"
	stepTextFailed  = "text_processing_failed"
)

func sendError(out chan<- outEnvelope, messageID, message, step string) {
	out <- newOutEnvelope(TypeError, map[string]any{
		"error": message,
		"step":  step,
	}, messageID)
}

func sendResponse(out chan<- outEnvelope, messageID string, res turn.Result) {
	out <- newOutEnvelope(TypeResponse, responsePayload{
		Text:         res.Text,
		AudioData:    res.AudioData,
		AudioURL:     res.AudioURL,
		OriginalText: res.OriginalText,
		Emotion:      res.Emotion,
		Degraded:     res.Degraded,
	}, messageID)
}

// progressNotifier 把回合进度转成 processing 信封，messageId 对齐触发消息。
type progressNotifier struct {
	out       chan<- outEnvelope
	messageID string
}

func (p progressNotifier) Progress(step, message string, extra map[string]any) {
	data := map[string]any{"step": step}
	if message != "" {
		data["message"] = message
	}
	for k, v := range extra {
		data[k] = v
	}
	p.out <- newOutEnvelope(TypeProcessing, data, p.messageID)
}
