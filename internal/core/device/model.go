package device

import (
	"github.com/ixugo/goddd/pkg/orm"
)

const (
	KindCamera      = "camera"      // 摄像头
	KindThermometer = "thermometer" // 温度传感器
	KindGateway     = "gateway"     // 边缘网关
)

// Device 接入仪表盘的物联网设备
type Device struct {
	ID          string   `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"column:name" json:"name"`                      // 设备名称
	Kind        string   `gorm:"column:kind" json:"kind"`                      // 设备类型
	StreamID    string   `gorm:"column:stream_id;index" json:"stream_id"`      // 关联的视频流 ID（摄像头类设备）
	IsOnline    bool     `gorm:"column:is_online" json:"is_online"`            // 在线状态
	Temperature float64  `gorm:"column:temperature" json:"temperature"`        // 最近上报温度（摄氏度）
	KeepaliveAt orm.Time `gorm:"column:keepalive_at" json:"keepalive_at"`      // 最近心跳时间
	CreatedAt   orm.Time `json:"created_at"`
	UpdatedAt   orm.Time `json:"updated_at"`
}

func (*Device) TableName() string {
	return "devices"
}
