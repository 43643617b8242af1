package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const apiEventStream = "/api/events/stream"

// OpenEvents 打开检测事件流（text/event-stream 长连接）
// offset 为服务端回放偏移量，新连接可收到最近的部分历史事件
// 返回的 ReadCloser 由调用方负责关闭
func (e *Engine) OpenEvents(ctx context.Context, offset int) (io.ReadCloser, error) {
	url := e.cfg.URL + apiEventStream
	if offset > 0 {
		url += "?offset=" + strconv.Itoa(offset)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("analyzer: create request failed: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := e.streamCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer: open event stream failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("analyzer: unexpected status code %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}
