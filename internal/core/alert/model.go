package alert

import (
	"github.com/ixugo/goddd/pkg/orm"
)

// Alert 检测告警，一条记录对应某个流某一帧上的一个标签
type Alert struct {
	ID         string   `gorm:"primaryKey" json:"id"`
	StreamID   string   `gorm:"column:stream_id;index" json:"stream_id"`  // 视频流 ID
	FrameID    string   `gorm:"column:frame_id" json:"frame_id"`          // 帧 ID
	Label      string   `gorm:"column:label;index" json:"label"`          // 物体类别
	Score      float64  `gorm:"column:score" json:"score"`                // 归一化置信度 (0.0 - 1.0)
	ClassID    int      `gorm:"column:class_id" json:"class_id"`          // 模型类别编号
	Zones      string   `gorm:"column:zones" json:"zones"`                // 边界框 JSON
	ImagePath  string   `gorm:"column:image_path" json:"image_path"`     // 快照相对路径
	HappenedAt orm.Time `gorm:"column:happened_at;index" json:"happened_at"` // 帧事件时间
	CreatedAt  orm.Time `json:"created_at"`
	UpdatedAt  orm.Time `json:"updated_at"`
}

func (*Alert) TableName() string {
	return "alerts"
}

// LabelCount 按标签统计告警数量
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}
