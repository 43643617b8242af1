package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// TestGetSnapshot 测试获取快照图片
func TestGetSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/api/frames/f1/image"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngHeader)
		case strings.Contains(r.URL.Path, "/api/frames/busy/image"):
			w.WriteHeader(http.StatusTooManyRequests)
		case strings.Contains(r.URL.Path, "/api/frames/err/image"):
			// 200 状态码下返回 JSON 错误
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":1,"msg":"frame expired"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	engine := NewEngine().SetConfig(Config{URL: srv.URL})
	ctx := context.Background()

	data, err := engine.GetSnapshot(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(pngHeader) {
		t.Fatalf("返回数据大小不符: %d", len(data))
	}

	if _, err := engine.GetSnapshot(ctx, "busy"); err == nil {
		t.Fatal("429 应当返回错误")
	}
	if _, err := engine.GetSnapshot(ctx, "missing"); err == nil {
		t.Fatal("404 应当返回错误")
	}
	if _, err := engine.GetSnapshot(ctx, "err"); err == nil {
		t.Fatal("JSON 错误体应当返回错误")
	}
	if _, err := engine.GetSnapshot(ctx, ""); err == nil {
		t.Fatal("空 frame_id 应当返回错误")
	}
}

// TestOpenEvents 测试打开事件流
func TestOpenEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "5" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"type\":\"\"}\n\n"))
	}))
	defer srv.Close()

	engine := NewEngine().SetConfig(Config{URL: srv.URL})
	body, err := engine.OpenEvents(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()

	buf := make([]byte, 64)
	n, _ := body.Read(buf)
	if n == 0 {
		t.Fatal("事件流没有数据")
	}
}
