package alert

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// StartCleanupWorker 启动定时清理协程，每 24 小时执行一次
// days 参数指定保留的天数，超过该天数的告警将被删除
func (c Core) StartCleanupWorker(days int) {
	if days <= 0 {
		slog.Info("alert cleanup disabled", "days", days)
		return
	}

	slog.Info("alert cleanup worker started", "retain_days", days)

	// 启动时先执行一次清理
	c.cleanupExpiredAlerts(days)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanupExpiredAlerts(days)
	}
}

// cleanupExpiredAlerts 清理过期的告警，先删除本地快照文件，再删除数据库记录
func (c Core) cleanupExpiredAlerts(days int) {
	ctx := context.Background()
	cutoffTime := time.Now().AddDate(0, 0, -days)
	cutoffMs := cutoffTime.UnixMilli()

	slog.Info("starting alert cleanup", "cutoff_time", cutoffTime.Format(time.DateTime), "retain_days", days)

	// 分批查询并删除，避免一次性加载过多数据
	batchSize := 100
	totalDeleted := 0
	totalFilesDeleted := 0

	for {
		var alerts []*Alert
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Alert().Find(ctx, &alerts, &pager,
			orm.Where("happened_at < ?", cutoffMs),
		)
		if err != nil {
			slog.Error("failed to query expired alerts", "err", err)
			break
		}

		if len(alerts) == 0 {
			break
		}

		// 收集需要删除的快照路径（同一帧的多条告警共用一张快照，需去重）
		imagePaths := make(map[string]struct{})
		alertIDs := make([]string, 0, len(alerts))
		for _, a := range alerts {
			alertIDs = append(alertIDs, a.ID)
			if a.ImagePath != "" {
				imagePaths[a.ImagePath] = struct{}{}
			}
		}

		// 先删除本地快照文件
		snapshotsDir := filepath.Join(system.Getwd(), "configs", "snapshots")
		for imagePath := range imagePaths {
			fullPath := filepath.Join(snapshotsDir, imagePath)
			if err := os.Remove(fullPath); err != nil {
				if !os.IsNotExist(err) {
					slog.Warn("failed to delete alert snapshot", "path", fullPath, "err", err)
				}
			} else {
				totalFilesDeleted++
			}
		}

		// 批量删除数据库记录，使用 WHERE IN 一次性删除
		err = c.store.Alert().Session(ctx, func(tx *gorm.DB) error {
			return tx.Where("id IN ?", alertIDs).Delete(&Alert{}).Error
		})
		if err != nil {
			slog.Warn("failed to batch delete alerts", "count", len(alertIDs), "err", err)
		} else {
			totalDeleted += len(alertIDs)
		}
	}

	// 清理空目录
	cleanupEmptyDirs(filepath.Join(system.Getwd(), "configs", "snapshots"))

	slog.Info("alert cleanup completed",
		"alerts_deleted", totalDeleted,
		"files_deleted", totalFilesDeleted,
	)
}

// cleanupEmptyDirs 递归删除空目录
func cleanupEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			subDir := filepath.Join(dir, entry.Name())
			cleanupEmptyDirs(subDir)

			subEntries, err := os.ReadDir(subDir)
			if err == nil && len(subEntries) == 0 {
				if err := os.Remove(subDir); err == nil {
					slog.Debug("removed empty directory", "path", subDir)
				}
			}
		}
	}
}
