package detect

import (
	"testing"
	"time"
)

func newTestDetection(frameID, label string, conf float64) Detection {
	return Detection{
		ID:         1,
		FrameID:    frameID,
		Timestamp:  time.Now(),
		Label:      label,
		Confidence: conf,
		BBox:       [4]float64{100, 100, 300, 300},
	}
}

func newTestFrame(id, streamID string) Frame {
	return Frame{ID: id, StreamID: streamID, Timestamp: time.Now()}
}

// TestCorrelatorDetectionFirst 检测先到，帧后到
func TestCorrelatorDetectionFirst(t *testing.T) {
	var completed []Frame
	c := NewCorrelator(func(f Frame, fd *FrameDetections) {
		completed = append(completed, f)
		if fd.Count() != 2 {
			t.Errorf("期望 2 条检测，实际 %d", fd.Count())
		}
	}, 0)

	c.HandleDetection(newTestDetection("f1", "person", 0.9))
	c.HandleDetection(newTestDetection("f1", "truck", 0.8))
	if len(completed) != 0 {
		t.Fatal("帧未到达不应完成")
	}

	c.HandleFrame(newTestFrame("f1", "cam1"))
	if len(completed) != 1 {
		t.Fatalf("期望完成 1 帧，实际 %d", len(completed))
	}

	pd, pf := c.PendingStats()
	if pd != 0 || pf != 0 {
		t.Fatalf("完成后缓冲应为空: detections=%d frames=%d", pd, pf)
	}
}

// TestCorrelatorFrameFirst 帧先到，检测后到
func TestCorrelatorFrameFirst(t *testing.T) {
	var completed []Frame
	c := NewCorrelator(func(f Frame, fd *FrameDetections) {
		completed = append(completed, f)
	}, 0)

	c.HandleFrame(newTestFrame("f1", "cam1"))
	if len(completed) != 0 {
		t.Fatal("没有检测的帧不应完成")
	}

	c.HandleDetection(newTestDetection("f1", "person", 0.9))
	if len(completed) != 1 {
		t.Fatalf("期望完成 1 帧，实际 %d", len(completed))
	}
	if completed[0].StreamID != "cam1" {
		t.Fatalf("stream_id 不符: %s", completed[0].StreamID)
	}
}

// TestCorrelatorZeroDetectionFrame 没有任何检测的帧永远不完成
func TestCorrelatorZeroDetectionFrame(t *testing.T) {
	var completed int
	c := NewCorrelator(func(Frame, *FrameDetections) { completed++ }, 0)

	c.HandleFrame(newTestFrame("empty", "cam1"))
	c.HandleFrame(newTestFrame("empty2", "cam2"))
	if completed != 0 {
		t.Fatalf("零检测帧不应完成，实际完成 %d", completed)
	}

	_, pf := c.PendingStats()
	if pf != 2 {
		t.Fatalf("期望 2 个等待帧，实际 %d", pf)
	}
}

// TestCorrelatorLabelAggregation 同标签取最高置信度，混用刻度统一归一
func TestCorrelatorLabelAggregation(t *testing.T) {
	c := NewCorrelator(func(_ Frame, fd *FrameDetections) {
		if got := fd.Labels["person"]; got != 0.92 {
			t.Errorf("person 期望 0.92，实际 %v", got)
		}
		if got := fd.Labels["truck"]; got != 0.87 {
			t.Errorf("truck 百分制应归一为 0.87，实际 %v", got)
		}
	}, 0)

	c.HandleDetection(newTestDetection("f1", "person", 0.92))
	c.HandleDetection(newTestDetection("f1", "person", 0.5))
	c.HandleDetection(newTestDetection("f1", "truck", 87)) // 百分制
	c.HandleFrame(newTestFrame("f1", "cam1"))
}

// TestCorrelatorMissingFrameID 缺少 frame_id 的检测被丢弃
func TestCorrelatorMissingFrameID(t *testing.T) {
	c := NewCorrelator(func(Frame, *FrameDetections) {}, 0)
	c.HandleDetection(Detection{Label: "person", Confidence: 0.9})
	pd, _ := c.PendingStats()
	if pd != 0 {
		t.Fatalf("无 frame_id 的检测不应入缓冲，实际 %d", pd)
	}
}

// TestCorrelatorEviction 过期的孤儿条目被清理
func TestCorrelatorEviction(t *testing.T) {
	c := NewCorrelator(func(Frame, *FrameDetections) {}, 10*time.Millisecond)
	c.HandleDetection(newTestDetection("f1", "person", 0.9))
	c.HandleFrame(newTestFrame("f2", "cam1"))

	time.Sleep(20 * time.Millisecond)
	c.evictExpired()

	pd, pf := c.PendingStats()
	if pd != 0 || pf != 0 {
		t.Fatalf("过期条目应被清理: detections=%d frames=%d", pd, pf)
	}
}
