package device

import (
	"context"
	"log/slog"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// KeepaliveInterval 超过该时长未收到心跳即判定离线
const KeepaliveInterval = 2 * 15 * time.Second

// StartOfflineChecker 定时将心跳超时的设备标记为离线
func (c Core) StartOfflineChecker(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.markOfflineDevices(ctx)
		}
	}
}

func (c Core) markOfflineDevices(ctx context.Context) {
	deadline := time.Now().Add(-KeepaliveInterval)
	err := c.store.Device().Session(ctx, func(db *gorm.DB) error {
		return db.Model(&Device{}).
			Where("is_online = ? AND keepalive_at < ?", true, orm.Time{Time: deadline}).
			Update("is_online", false).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "标记离线设备失败", "err", err)
	}
}
