// Package audio 负责语音消息的解码与格式探测。
package audio

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
)

// Format 音频容器格式标签。
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOGG     Format = "ogg"
	FormatFLAC    Format = "flac"
	FormatWebM    Format = "webm"
	FormatUnknown Format = "unknown"
)

// minAudioSize WAV 文件头的最小字节数，小于它的载荷不可能是有效音频。
const minAudioSize = 44

// Decode 将 base64 载荷还原成原始字节。
// 客户端可能携带 "data:audio/webm;base64," 前缀，逗号之前的部分一律丢弃。
func Decode(payload string) ([]byte, error) {
	data := payload
	if idx := strings.Index(data, ","); idx >= 0 {
		data = data[idx+1:]
	}
	data = strings.TrimSpace(data)

	if data == "" {
		return nil, fault.New(fault.Validation, "音频数据为空")
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, "音频数据不是有效的 base64", err)
	}
	if len(raw) == 0 {
		return nil, fault.New(fault.Validation, "音频数据为空")
	}
	return raw, nil
}

// DetectFormat 用魔数嗅探容器格式。未知格式不算错误，由上游决定如何兜底；
// 小于 44 字节直接判定无效。
func DetectFormat(data []byte) (Format, error) {
	if len(data) < minAudioSize {
		return FormatUnknown, fault.New(fault.Validation, "音频文件过小，可能不是有效的音频数据")
	}

	switch {
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case bytes.HasPrefix(data, []byte("ID3")), data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3, nil
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOGG, nil
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC, nil
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWebM, nil
	default:
		return FormatUnknown, nil
	}
}

// Ext 返回带点的文件扩展名，未知格式按 webm 处理（浏览器录音的默认容器）。
func (f Format) Ext() string {
	switch f {
	case FormatWAV:
		return ".wav"
	case FormatMP3:
		return ".mp3"
	case FormatOGG:
		return ".ogg"
	case FormatFLAC:
		return ".flac"
	default:
		return ".webm"
	}
}

// ContentType 返回上传对象存储时使用的 MIME 类型。
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	case FormatOGG:
		return "audio/ogg"
	case FormatFLAC:
		return "audio/flac"
	default:
		return "audio/webm"
	}
}
