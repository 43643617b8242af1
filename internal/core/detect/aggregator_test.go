package detect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) GetSnapshot(_ context.Context, _ string) ([]byte, error) {
	f.calls.Add(1)
	return f.data, f.err
}

type fakeNotifier struct {
	streams []string
}

func (n *fakeNotifier) NotifyNewStream(_ context.Context, streamID string) {
	n.streams = append(n.streams, streamID)
}

func completeTestFrame(a *Aggregator, streamID, frameID string, at time.Time, labels map[string]float64) {
	fd := newFrameDetections()
	for label, conf := range labels {
		fd.add(Detection{FrameID: frameID, Label: label, Confidence: conf})
	}
	a.CompleteFrame(context.Background(), Frame{ID: frameID, StreamID: streamID, Timestamp: at}, fd)
}

// TestAggregatorMonotonic 卡片按帧事件时间戳单调更新，与完成顺序无关
func TestAggregatorMonotonic(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("png")}
	a := NewAggregator(fetcher)

	t1 := time.Now()
	t2 := t1.Add(time.Second)

	// 旧帧先完成，新帧后完成
	completeTestFrame(a, "cam1", "f1", t1, map[string]float64{"person": 0.9})
	completeTestFrame(a, "cam1", "f2", t2, map[string]float64{"truck": 0.8})
	card, ok := a.GetCard("cam1")
	if !ok || card.Frame.Frame.ID != "f2" {
		t.Fatal("新帧应当替换旧帧")
	}

	// 乱序：旧帧最后完成，不得覆盖
	completeTestFrame(a, "cam1", "f1", t1, map[string]float64{"person": 0.9})
	card, _ = a.GetCard("cam1")
	if card.Frame.Frame.ID != "f2" {
		t.Fatal("过期帧不应覆盖最新卡片")
	}
}

// TestAggregatorSortedCards 卡片按 stream_id 不区分大小写排序
func TestAggregatorSortedCards(t *testing.T) {
	a := NewAggregator(&fakeFetcher{})
	now := time.Now()
	completeTestFrame(a, "camB", "f1", now, map[string]float64{"a": 0.1})
	completeTestFrame(a, "cama", "f2", now, map[string]float64{"a": 0.1})
	completeTestFrame(a, "CamC", "f3", now, map[string]float64{"a": 0.1})

	cards := a.ListCards()
	got := make([]string, 0, len(cards))
	for _, c := range cards {
		got = append(got, c.StreamID)
	}
	want := []string{"cama", "camB", "CamC"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("排序不符: got=%v want=%v", got, want)
		}
	}
}

// TestAggregatorLabels 标签按置信度降序，同分按字典序
func TestAggregatorLabels(t *testing.T) {
	a := NewAggregator(&fakeFetcher{})
	completeTestFrame(a, "cam1", "f1", time.Now(), map[string]float64{
		"person": 0.92,
		"truck":  0.92,
		"dog":    0.5,
	})

	items := a.LabelsForStream("cam1")
	if len(items) != 3 {
		t.Fatalf("期望 3 个标签，实际 %d", len(items))
	}
	if items[0].Label != "person" || items[1].Label != "truck" || items[2].Label != "dog" {
		t.Fatalf("标签排序不符: %+v", items)
	}

	if got := a.LabelsForStream("missing"); got == nil || len(got) != 0 {
		t.Fatal("不存在的流应返回空列表而非 nil")
	}
}

// TestAggregatorFetchFailure 快照获取失败时帧仍然完成，只是无图
func TestAggregatorFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	a := NewAggregator(fetcher)

	completeTestFrame(a, "cam1", "f1", time.Now(), map[string]float64{"person": 0.9})
	card, ok := a.GetCard("cam1")
	if !ok {
		t.Fatal("快照失败不应阻止卡片生成")
	}
	if card.Frame.Image != nil {
		t.Fatal("失败时图片应为 nil")
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("期望尝试获取 1 次，实际 %d", fetcher.calls.Load())
	}
}

// TestAggregatorNotifyOnce 每个新流只通知一次
func TestAggregatorNotifyOnce(t *testing.T) {
	n := &fakeNotifier{}
	a := NewAggregator(&fakeFetcher{}, WithNotifier(n, true))

	now := time.Now()
	completeTestFrame(a, "cam1", "f1", now, map[string]float64{"a": 0.1})
	completeTestFrame(a, "cam1", "f2", now.Add(time.Second), map[string]float64{"a": 0.1})
	completeTestFrame(a, "cam2", "f3", now, map[string]float64{"a": 0.1})

	if len(n.streams) != 2 {
		t.Fatalf("期望 2 次通知，实际 %d: %v", len(n.streams), n.streams)
	}
}

// TestPipelineEndToEnd 关联器与聚合器串联的完整链路
func TestPipelineEndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("png")}
	a := NewAggregator(fetcher)
	c := NewCorrelator(func(f Frame, fd *FrameDetections) {
		a.CompleteFrame(context.Background(), f, fd)
	}, 0)

	c.HandleDetection(Detection{ID: 1, FrameID: "f1", Label: "truck", Confidence: 0.92})
	c.HandleFrame(Frame{ID: "f1", StreamID: "cam1", Timestamp: time.Now()})

	card, ok := a.GetCard("cam1")
	if !ok {
		t.Fatal("cam1 卡片应存在")
	}
	if card.Frame.Labels["truck"] != 0.92 {
		t.Fatalf("truck 置信度不符: %v", card.Frame.Labels["truck"])
	}
	if fetcher.calls.Load() != 1 {
		t.Fatal("应当尝试获取快照")
	}
	if len(card.Frame.Image) == 0 {
		t.Fatal("快照应当写入卡片")
	}
}
