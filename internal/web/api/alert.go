package api

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/argus/internal/conf"
	"github.com/gowvp/argus/internal/core/alert"
	"github.com/gowvp/argus/internal/core/alert/store/alertdb"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// AlertAPI 为 http 提供业务方法
type AlertAPI struct {
	alertCore alert.Core
}

// NewAlertCore 创建告警核心服务，并启动过期清理协程
func NewAlertCore(db *gorm.DB, cfg *conf.Bootstrap) alert.Core {
	core := alert.NewCore(alertdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()))
	go core.StartCleanupWorker(cfg.Server.Alert.RetainDays)
	return core
}

func NewAlertAPI(core alert.Core) AlertAPI {
	return AlertAPI{alertCore: core}
}

func RegisterAlert(g gin.IRouter, api AlertAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/alerts", handler...)
	group.GET("", web.WrapH(api.findAlerts))
	group.GET("/stats", web.WrapH(api.countByLabel))
	group.GET("/:id", web.WrapH(api.getAlert))
	group.DELETE("/:id", web.WrapH(api.delAlert))

	// 告警快照静态服务，路径格式: /static/snapshots/{stream_id}/xxx.png
	g.Static("/static/snapshots", filepath.Join(system.Getwd(), "configs", "snapshots"))
}

// findAlerts 分页查询告警列表
func (a AlertAPI) findAlerts(c *gin.Context, in *alert.FindAlertsInput) (any, error) {
	items, total, err := a.alertCore.FindAlerts(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

// countByLabel 按标签统计告警数量
func (a AlertAPI) countByLabel(c *gin.Context, in *alert.CountByLabelInput) (any, error) {
	items, err := a.alertCore.CountByLabel(c.Request.Context(), in)
	return gin.H{"items": items}, err
}

func (a AlertAPI) getAlert(c *gin.Context, _ *struct{}) (*alert.Alert, error) {
	return a.alertCore.GetAlert(c.Request.Context(), c.Param("id"))
}

// delAlert 删除告警，同时尝试删除对应的快照文件
func (a AlertAPI) delAlert(c *gin.Context, _ *struct{}) (*alert.Alert, error) {
	out, err := a.alertCore.DelAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if out.ImagePath != "" {
		fullPath := filepath.Join(system.Getwd(), "configs", "snapshots", out.ImagePath)
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			slog.WarnContext(c.Request.Context(), "删除告警快照失败", "path", fullPath, "err", err)
		}
	}
	return out, nil
}
