package api

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/gowvp/argus/internal/core/detect"
	"github.com/ixugo/goddd/pkg/system"
)

// cardView 卡片的对外视图
// 快照图片不内联在 JSON 里，通过 snapshot_url 单独加载
type cardView struct {
	StreamID       string               `json:"stream_id"`
	FrameID        string               `json:"frame_id"`
	MessageAt      time.Time            `json:"message_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	FPS            float64              `json:"fps"`
	Scale          float64              `json:"scale"`
	DetectionCount int                  `json:"detection_count"`
	Labels         []detect.LabelScore  `json:"labels"`
	Detections     []detectionView      `json:"detections"`
	SnapshotURL    string               `json:"snapshot_url,omitempty"`
}

type detectionView struct {
	Label      string     `json:"label"`
	ClassID    int        `json:"class_id"`
	Confidence float64    `json:"confidence"` // 归一化置信度 (0.0 - 1.0)
	Percent    float64    `json:"percent"`    // 百分比显示值
	BBox       [4]float64 `json:"bbox"`
}

func newCardView(card *detect.Card) cardView {
	labels := make([]detect.LabelScore, 0, len(card.Frame.Labels))
	for label, score := range card.Frame.Labels {
		labels = append(labels, detect.LabelScore{Label: label, Score: score})
	}

	detections := make([]detectionView, 0, len(card.Frame.Detections))
	for _, d := range card.Frame.Detections {
		detections = append(detections, detectionView{
			Label:      d.Label,
			ClassID:    d.ClassID,
			Confidence: detect.NormalizeConfidence(d.Confidence),
			Percent:    detect.ConfidencePercent(d.Confidence),
			BBox:       d.BBox,
		})
	}

	out := cardView{
		StreamID:       card.StreamID,
		FrameID:        card.Frame.Frame.ID,
		MessageAt:      card.MessageAt,
		UpdatedAt:      card.UpdatedAt,
		FPS:            card.Frame.Frame.FPS,
		Scale:          card.Frame.Frame.Scale,
		DetectionCount: len(card.Frame.Detections),
		Labels:         labels,
		Detections:     detections,
	}
	if len(card.Frame.Image) > 0 {
		out.SnapshotURL = "/detect/snapshot/" + card.Frame.Frame.ID
	}
	return out
}

type listCardsOutput struct {
	Items []cardView `json:"items"`
	Total int        `json:"total"`
}

type streamLabelsOutput struct {
	StreamID string              `json:"stream_id"`
	Items    []detect.LabelScore `json:"items"`
}

type detectStatusOutput struct {
	Status            detect.Status `json:"status"`
	Error             string        `json:"error,omitempty"`
	Live              bool          `json:"live"`
	Streams           int           `json:"streams"`
	PendingDetections int           `json:"pending_detections"`
	PendingFrames     int           `json:"pending_frames"`
	AnalyzerServing   bool          `json:"analyzer_serving"`
}

type setLiveInput struct {
	Live *bool `json:"live" binding:"required"`
}

type overlayInput struct {
	StreamID      string  `json:"stream_id" binding:"required"`
	NaturalWidth  float64 `json:"natural_width" binding:"required"`
	NaturalHeight float64 `json:"natural_height" binding:"required"`
	DisplayWidth  float64 `json:"display_width" binding:"required"`
	DisplayHeight float64 `json:"display_height" binding:"required"`
}

// saveAlertSnapshot 将快照保存到 configs/snapshots/{stream_id}/ 目录
// 返回相对路径: stream_id/年月日时分秒_随机6位.png
func saveAlertSnapshot(streamID string, t time.Time, data []byte) (string, error) {
	snapshotsDir := filepath.Join(system.Getwd(), "configs", "snapshots")

	randomSuffix := fmt.Sprintf("%06d", rand.IntN(1000000))
	filename := fmt.Sprintf("%s_%s.png", t.Format("20060102150405"), randomSuffix)

	relativePath := filepath.Join(streamID, filename)
	fullPath := filepath.Join(snapshotsDir, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create snapshots dir: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return relativePath, nil
}
