package detect

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedSource 按调用次序返回预置的事件流
type scriptedSource struct {
	bodies []string
	opens  atomic.Int32
}

func (s *scriptedSource) OpenEvents(_ context.Context, _ int) (io.ReadCloser, error) {
	n := int(s.opens.Add(1)) - 1
	if n >= len(s.bodies) {
		return nil, errors.New("no more bodies")
	}
	return io.NopCloser(strings.NewReader(s.bodies[n])), nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("等待条件超时")
}

// TestConsumerDispatch 消费者解析 SSE 并分发到关联器
func TestConsumerDispatch(t *testing.T) {
	body := "data: {\"type\":\"detection\",\"data\":{\"id\":1,\"frame_id\":\"f1\",\"label\":\"truck\",\"confidence\":0.92}}\n" +
		"\n" +
		"data: {\"type\":\"frame\",\"data\":{\"id\":\"f1\",\"stream_id\":\"cam1\"}}\n" +
		"\n" +
		"data: {\"type\":\"\"}\n" + // 心跳
		"\n" +
		"data: {\"type\":\"unknown_kind\"}\n" + // 未知类型忽略
		"\n"

	var completed atomic.Int32
	correlator := NewCorrelator(func(f Frame, fd *FrameDetections) {
		completed.Add(1)
		if f.StreamID != "cam1" {
			t.Errorf("stream_id 不符: %s", f.StreamID)
		}
		if fd.Labels["truck"] != 0.92 {
			t.Errorf("truck 置信度不符: %v", fd.Labels["truck"])
		}
	}, 0)

	src := &scriptedSource{bodies: []string{body}}
	c := NewConsumer(src, correlator, 0, time.Hour)
	defer c.Close()
	c.Start()

	waitFor(t, time.Second, func() bool { return completed.Load() == 1 })
}

// TestConsumerReconnect 传输层断开后按固定延迟重连
func TestConsumerReconnect(t *testing.T) {
	src := &scriptedSource{bodies: []string{"", ""}}
	c := NewConsumer(src, NewCorrelator(func(Frame, *FrameDetections) {}, 0), 0, 10*time.Millisecond)
	defer c.Close()
	c.Start()

	waitFor(t, time.Second, func() bool { return src.opens.Load() >= 2 })
}

// TestConsumerPauseStopsReconnect 暂停后不再重连
func TestConsumerPauseStopsReconnect(t *testing.T) {
	src := &scriptedSource{bodies: []string{""}}
	// 重连延迟取长一些，保证暂停动作发生在重连触发之前
	c := NewConsumer(src, NewCorrelator(func(Frame, *FrameDetections) {}, 0), 0, 200*time.Millisecond)
	defer c.Close()
	c.Start()

	waitFor(t, time.Second, func() bool { return src.opens.Load() == 1 })
	c.SetLive(false)

	status, _ := c.Status()
	if status != StatusPaused {
		t.Fatalf("暂停后状态应为 paused，实际 %s", status)
	}

	time.Sleep(300 * time.Millisecond)
	if got := src.opens.Load(); got != 1 {
		t.Fatalf("暂停后不应再发起连接，实际连接 %d 次", got)
	}
	if c.IsLive() {
		t.Fatal("应处于暂停模式")
	}
}

// pipeSource 用管道控制事件流的写入节奏
type pipeSource struct {
	r *io.PipeReader
}

func (s *pipeSource) OpenEvents(_ context.Context, _ int) (io.ReadCloser, error) {
	if s.r == nil {
		return nil, errors.New("stream closed")
	}
	r := s.r
	s.r = nil
	return r, nil
}

// TestConsumerErrorEnvelope 服务端错误消息置为 error，收到有效消息后恢复
func TestConsumerErrorEnvelope(t *testing.T) {
	pr, pw := io.Pipe()
	correlator := NewCorrelator(func(Frame, *FrameDetections) {}, 0)
	c := NewConsumer(&pipeSource{r: pr}, correlator, 0, time.Hour)
	defer c.Close()
	defer pw.Close()
	c.Start()

	_, _ = io.WriteString(pw, "data: {\"type\":\"detection\",\"error\":\"model overloaded\"}\n\n")
	waitFor(t, time.Second, func() bool {
		status, msg := c.Status()
		return status == StatusError && msg == "model overloaded"
	})

	// 收到有效业务消息后恢复 connected；零检测帧只进等待区，不完成
	_, _ = io.WriteString(pw, "data: {\"type\":\"frame\",\"data\":{\"id\":\"f1\",\"stream_id\":\"cam1\"}}\n\n")
	waitFor(t, time.Second, func() bool {
		status, _ := c.Status()
		_, pf := correlator.PendingStats()
		return status == StatusConnected && pf == 1
	})
}

// TestConsumerMalformedMessage 无法解析的消息只丢弃自身
func TestConsumerMalformedMessage(t *testing.T) {
	body := "data: {not json}\n" +
		"\n" +
		"data: {\"type\":\"frame\",\"data\":{\"id\":\"f1\",\"stream_id\":\"cam1\"}}\n" +
		"\n"

	correlator := NewCorrelator(func(Frame, *FrameDetections) {}, 0)
	src := &scriptedSource{bodies: []string{body}}
	c := NewConsumer(src, correlator, 0, time.Hour)
	defer c.Close()
	c.Start()

	waitFor(t, time.Second, func() bool {
		_, pf := correlator.PendingStats()
		return pf == 1
	})
}
