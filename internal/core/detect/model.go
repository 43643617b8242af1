package detect

import (
	"encoding/json"
	"time"
)

// 事件流消息类型
const (
	TypeDetection = "detection"
	TypeFrame     = "frame"
)

// Envelope 事件流消息信封
// type 为空视为心跳，error 非空为服务端上报的错误
type Envelope struct {
	Type  string          `json:"type"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// Detection 单条目标检测结果，创建后不可变
type Detection struct {
	ID         int64      `json:"id"`
	FrameID    string     `json:"frame_id"`
	Timestamp  time.Time  `json:"timestamp"`
	Label      string     `json:"label"`
	ClassID    int        `json:"class_id"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"` // x1,y1,x2,y2 原图像素坐标
}

// Frame 一帧画面的元数据，id 是与检测事件关联的键
type Frame struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	IngestTimestamp time.Time `json:"ingest_timestamp"`
	UpdateTimestamp time.Time `json:"update_timestamp"`
	StreamID        string    `json:"stream_id"`
	FPS             float64   `json:"fps"`
	Scale           float64   `json:"scale"`
}

// FrameDetections 同一帧的检测聚合，帧完成前可变，完成后冻结
type FrameDetections struct {
	Items  []Detection
	Labels map[string]float64 // label -> 归一化后的最高置信度

	bufferedAt time.Time
}

func newFrameDetections() *FrameDetections {
	return &FrameDetections{
		Labels:     make(map[string]float64),
		bufferedAt: time.Now(),
	}
}

func (fd *FrameDetections) add(d Detection) {
	fd.Items = append(fd.Items, d)
	score := NormalizeConfidence(d.Confidence)
	if score > fd.Labels[d.Label] {
		fd.Labels[d.Label] = score
	}
}

// Count 已缓冲的检测数量
func (fd *FrameDetections) Count() int {
	return len(fd.Items)
}

// NormalizeConfidence 统一置信度刻度
// 上游混用 0-1 和 0-100 两种表示，大于 1 视为百分制
func NormalizeConfidence(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

// CompletedFrame 关联完成的帧：元数据 + 检测集合 + 已尝试获取的快照
// Image 为 nil 表示快照获取失败，帧仍然有效
type CompletedFrame struct {
	Frame      Frame
	Detections []Detection
	Labels     map[string]float64
	Image      []byte
}

// Card 每个视频流的渲染单元，只保留该流最新完成的一帧
type Card struct {
	StreamID  string
	Frame     CompletedFrame
	MessageAt time.Time // 帧事件时间戳，旧于该时间的更新会被拒绝
	UpdatedAt time.Time
}

// LabelScore 标签与置信度
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
