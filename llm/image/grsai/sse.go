package grsai

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/Waym1ng/imagegen/types"
)

var (
	dataPrefix = []byte("data: ")
	doneMarker = []byte("[DONE]")
)

// lastChunk 选出响应体中最后一个有效的 JSON 对象。
// 依次检查 "data: " 行，跳过 [DONE] 和无法解析的行；
// 没有任何有效行时把整个响应体当作 JSON。
func lastChunk(body []byte) ([]byte, error) {
	var last []byte
	for _, line := range bytes.Split(bytes.TrimSpace(body), []byte("\n")) {
		line = bytes.TrimSpace(line)
		if !bytes.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := bytes.TrimSpace(bytes.TrimPrefix(line, dataPrefix))
		if bytes.Equal(payload, doneMarker) {
			continue
		}
		if gjson.ValidBytes(payload) && gjson.ParseBytes(payload).IsObject() {
			last = payload
		}
	}
	if last != nil {
		return last, nil
	}

	whole := bytes.TrimSpace(body)
	if !gjson.ValidBytes(whole) || !gjson.ParseBytes(whole).IsObject() {
		return nil, types.NewError(types.ErrParse, "response contains no valid JSON payload").WithProvider(Name)
	}
	return whole, nil
}

// ParseSSE 解析 SSE 响应，返回最后一个有效的 JSON 对象
func ParseSSE(body []byte) (map[string]any, error) {
	chunk, err := lastChunk(body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(chunk, &out); err != nil {
		return nil, types.NewError(types.ErrParse, "failed to decode response").WithCause(err).WithProvider(Name)
	}
	return out, nil
}
