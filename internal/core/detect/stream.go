package detect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Status 连接状态，直接用于界面展示
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusPaused       Status = "paused"
	StatusError        Status = "error"
)

// EventSource 检测事件流来源
type EventSource interface {
	// OpenEvents 打开事件流，offset 为服务端回放偏移量
	OpenEvents(ctx context.Context, offset int) (io.ReadCloser, error)
}

// Consumer 事件流消费者
//
// 维护到分析服务的单条长连接，支持实时/暂停切换。传输层出错时
// 固定延迟重连（刻意的简化，非指数退避），期间状态对外可见。
// 消息处理严格按到达顺序串行执行。
type Consumer struct {
	source     EventSource
	correlator *Correlator
	offset     int
	delay      time.Duration
	log        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	m       sync.Mutex
	live    bool
	closed  bool
	status  Status
	lastErr string
	body    io.ReadCloser
	timer   *time.Timer
	gen     int // 连接代数，旧读协程不允许覆盖新连接的状态
}

// NewConsumer 创建消费者，不会自动连接，调用 Start 后进入实时模式
func NewConsumer(source EventSource, correlator *Correlator, offset int, delay time.Duration) *Consumer {
	if delay <= 0 {
		delay = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		source:     source,
		correlator: correlator,
		offset:     offset,
		delay:      delay,
		log:        slog.With("module", "detect_stream"),
		ctx:        ctx,
		cancel:     cancel,
		status:     StatusIdle,
	}
}

// Start 进入实时模式并建立连接
func (c *Consumer) Start() {
	c.SetLive(true)
}

// SetLive 切换实时/暂停
// 暂停关闭连接并取消待执行的重连；已在途的快照获取不受影响，
// 其结果依旧要通过聚合器的单调性检查
func (c *Consumer) SetLive(live bool) {
	c.m.Lock()
	if c.closed || c.live == live {
		c.m.Unlock()
		return
	}
	c.live = live
	if !live {
		c.gen++
		c.stopTimerLocked()
		c.closeBodyLocked()
		c.status = StatusPaused
		c.m.Unlock()
		return
	}
	c.m.Unlock()
	c.connect()
}

// Status 返回当前连接状态与最近一次错误描述
func (c *Consumer) Status() (Status, string) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.status, c.lastErr
}

// IsLive 是否处于实时模式
func (c *Consumer) IsLive() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.live
}

// Close 组件销毁时调用，关闭连接并取消重连定时器，不可再用
func (c *Consumer) Close() {
	c.m.Lock()
	defer c.m.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.stopTimerLocked()
	c.closeBodyLocked()
	c.cancel()
	c.status = StatusIdle
}

func (c *Consumer) connect() {
	c.m.Lock()
	if c.closed || !c.live {
		c.m.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.status = StatusConnecting
	c.m.Unlock()

	go c.readLoop(gen)
}

func (c *Consumer) readLoop(gen int) {
	body, err := c.source.OpenEvents(c.ctx, c.offset)
	if err != nil {
		c.transportError(gen, err)
		return
	}

	c.m.Lock()
	if gen != c.gen {
		c.m.Unlock()
		body.Close()
		return
	}
	c.body = body
	c.status = StatusConnected
	c.lastErr = ""
	c.m.Unlock()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() > 0 {
				c.handleMessage(data.Bytes())
				data.Reset()
			}
			continue
		}
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimSpace(after))
		}
		// event/id/retry 字段与注释行忽略
	}
	if data.Len() > 0 {
		c.handleMessage(data.Bytes())
	}

	err = scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.transportError(gen, err)
}

// transportError 传输层故障处理：实时模式下固定延迟后重连
func (c *Consumer) transportError(gen int, err error) {
	c.m.Lock()
	if gen != c.gen || c.closed || !c.live {
		c.m.Unlock()
		return
	}
	c.closeBodyLocked()
	c.status = StatusReconnecting
	c.lastErr = err.Error()
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.delay, c.connect)
	c.m.Unlock()

	c.log.Warn("事件流连接断开，准备重连", "err", err, "delay", c.delay.String())
}

// handleMessage 解析并分发单条消息
// 解析失败只丢弃这一条，不影响连接与后续消息
func (c *Consumer) handleMessage(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn("丢弃无法解析的消息", "err", err)
		return
	}

	if env.Error != "" {
		c.m.Lock()
		c.status = StatusError
		c.lastErr = env.Error
		c.m.Unlock()
		c.log.Warn("服务端上报错误", "err", env.Error)
		return
	}

	switch env.Type {
	case "":
		// 心跳
	case TypeDetection:
		var d Detection
		if err := json.Unmarshal(env.Data, &d); err != nil {
			c.log.Warn("丢弃无法解析的检测事件", "err", err)
			return
		}
		c.correlator.HandleDetection(d)
		c.markHealthy()
	case TypeFrame:
		var f Frame
		if err := json.Unmarshal(env.Data, &f); err != nil {
			c.log.Warn("丢弃无法解析的帧事件", "err", err)
			return
		}
		c.correlator.HandleFrame(f)
		c.markHealthy()
	default:
		// 未知类型安全忽略，方便服务端扩展
	}
}

// markHealthy 收到有效业务消息后把状态从 error 恢复为 connected
func (c *Consumer) markHealthy() {
	c.m.Lock()
	if c.status == StatusError {
		c.status = StatusConnected
		c.lastErr = ""
	}
	c.m.Unlock()
}

func (c *Consumer) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Consumer) closeBodyLocked() {
	if c.body != nil {
		_ = c.body.Close()
		c.body = nil
	}
}
