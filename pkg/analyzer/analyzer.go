// Package analyzer 封装 AI 分析服务的 HTTP 客户端
package analyzer

import (
	"encoding/json"
	"net/http"
	"time"
)

type Config struct {
	URL string
}

type Engine struct {
	cfg Config
	cli *http.Client
	// streamCli 不设整体超时，事件流是长连接
	streamCli *http.Client
}

func NewEngine() Engine {
	transport := &http.Transport{
		MaxIdleConns:        30,
		MaxIdleConnsPerHost: 30,
		MaxConnsPerHost:     100,
	}
	return Engine{
		cli: &http.Client{
			Timeout:   5 * time.Second,
			Transport: transport,
		},
		streamCli: &http.Client{
			Transport: transport,
		},
	}
}

func (e Engine) SetConfig(cfg Config) Engine {
	e.cfg = cfg
	return e
}

// FixedHeader 分析服务的统一响应头
type FixedHeader struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// isJSONResponse 检查响应体是否是 JSON 格式
func isJSONResponse(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	return body[0] == '{' || body[0] == '['
}

// decodeErrHeader 尝试从响应体解析错误头，成功且带错误码时返回 true
func decodeErrHeader(body []byte) (FixedHeader, bool) {
	var h FixedHeader
	if err := json.Unmarshal(body, &h); err != nil {
		return h, false
	}
	return h, h.Code != 0
}
