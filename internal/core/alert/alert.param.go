package alert

import (
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
)

type FindAlertsInput struct {
	web.PagerFilter
	web.DateFilter
	StreamID string `form:"stream_id"` // 视频流 ID
	Label    string `form:"label"`     // 物体类别
}

type AddAlertInput struct {
	StreamID   string   `json:"stream_id"`
	FrameID    string   `json:"frame_id"`
	Label      string   `json:"label"`
	Score      float64  `json:"score"`
	ClassID    int      `json:"class_id"`
	Zones      string   `json:"zones"`
	ImagePath  string   `json:"image_path"`
	HappenedAt orm.Time `json:"happened_at"`
}

// CountByLabelInput 标签统计查询参数
type CountByLabelInput struct {
	web.DateFilter
	StreamID string `form:"stream_id"` // 视频流 ID（可选）
}
