package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ixugo/goddd/pkg/conc"
)

// pendingFrame 等待首个检测到达的帧
type pendingFrame struct {
	frame      Frame
	bufferedAt time.Time
}

// Correlator 关联检测事件与帧事件
//
// 两类事件独立乱序到达，以 frame_id 为共享键；无论到达顺序如何，
// 每帧只完成一次。没有任何检测的帧永远不会被完成（策略，非缺陷）。
type Correlator struct {
	m                 sync.Mutex
	pendingDetections map[string]*FrameDetections
	pendingFrames     map[string]*pendingFrame

	complete func(Frame, *FrameDetections)
	ttl      time.Duration
	log      *slog.Logger
}

// NewCorrelator 创建关联器，complete 在帧完成时回调（持锁外调用）
// ttl 为待关联缓冲的最大驻留时长，0 表示不清理
func NewCorrelator(complete func(Frame, *FrameDetections), ttl time.Duration) *Correlator {
	return &Correlator{
		pendingDetections: make(map[string]*FrameDetections),
		pendingFrames:     make(map[string]*pendingFrame),
		complete:          complete,
		ttl:               ttl,
		log:               slog.With("module", "correlator"),
	}
}

// HandleDetection 缓冲一条检测；若对应帧已在等待，立即完成该帧
func (c *Correlator) HandleDetection(d Detection) {
	if d.FrameID == "" {
		return
	}

	c.m.Lock()
	fd, ok := c.pendingDetections[d.FrameID]
	if !ok {
		fd = newFrameDetections()
		c.pendingDetections[d.FrameID] = fd
	}
	fd.add(d)

	pf, waiting := c.pendingFrames[d.FrameID]
	if waiting {
		delete(c.pendingFrames, d.FrameID)
		delete(c.pendingDetections, d.FrameID)
	}
	c.m.Unlock()

	if waiting {
		c.complete(pf.frame, fd)
	}
}

// HandleFrame 处理帧事件
// 还没有检测缓冲时帧进入等待区；否则立即带着已缓冲的检测完成
func (c *Correlator) HandleFrame(f Frame) {
	if f.StreamID == "" || f.ID == "" {
		return
	}

	c.m.Lock()
	fd, ok := c.pendingDetections[f.ID]
	if !ok || fd.Count() == 0 {
		c.pendingFrames[f.ID] = &pendingFrame{frame: f, bufferedAt: time.Now()}
		c.m.Unlock()
		return
	}
	delete(c.pendingDetections, f.ID)
	c.m.Unlock()

	c.complete(f, fd)
}

// PendingStats 返回两个待关联缓冲的当前大小
func (c *Correlator) PendingStats() (detections, frames int) {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.pendingDetections), len(c.pendingFrames)
}

// StartEvictionWorker 启动过期清理协程
// 超过 ttl 仍未配对的孤儿条目被丢弃并记录日志
func (c *Correlator) StartEvictionWorker(ctx context.Context) {
	if c.ttl <= 0 {
		return
	}
	interval := c.ttl
	if interval > time.Minute {
		interval = time.Minute
	}
	go conc.Timer(ctx, interval, interval, c.evictExpired)
}

func (c *Correlator) evictExpired() {
	cutoff := time.Now().Add(-c.ttl)
	var dropped int

	c.m.Lock()
	for id, fd := range c.pendingDetections {
		if fd.bufferedAt.Before(cutoff) {
			delete(c.pendingDetections, id)
			dropped++
		}
	}
	for id, pf := range c.pendingFrames {
		if pf.bufferedAt.Before(cutoff) {
			delete(c.pendingFrames, id)
			dropped++
		}
	}
	c.m.Unlock()

	if dropped > 0 {
		c.log.Info("丢弃过期的待关联条目", "count", dropped, "ttl", c.ttl.String())
	}
}
