package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const apiFrameSnapshot = "/api/frames/%s/image"

// GetSnapshot 按帧 ID 获取快照图片（PNG 格式）
// 用法示例：
//
//	engine := analyzer.NewEngine().SetConfig(analyzer.Config{URL: "http://localhost:8090"})
//	imageData, err := engine.GetSnapshot(ctx, "frame-001")
//	if err != nil {
//	    log.Fatal(err)
//	}
func (e *Engine) GetSnapshot(ctx context.Context, frameID string) ([]byte, error) {
	if frameID == "" {
		return nil, fmt.Errorf("analyzer: frame_id is required")
	}

	url := e.cfg.URL + fmt.Sprintf(apiFrameSnapshot, frameID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("analyzer: create request failed: %w", err)
	}

	resp, err := e.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("analyzer: read response failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// 服务端可能在 200 状态码下返回 JSON 错误
		contentType := resp.Header.Get("Content-Type")
		if strings.Contains(contentType, "application/json") || isJSONResponse(body) {
			if h, bad := decodeErrHeader(body); bad {
				return nil, fmt.Errorf("analyzer: %s", h.Msg)
			}
		}
		return body, nil
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("analyzer: snapshot is being generated, please try again later")
	case http.StatusNotFound:
		return nil, fmt.Errorf("analyzer: frame not found: %s", frameID)
	default:
		return nil, fmt.Errorf("analyzer: unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}
