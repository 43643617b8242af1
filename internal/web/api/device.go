package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/argus/internal/core/device"
	"github.com/gowvp/argus/internal/core/device/store/devicedb"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// DeviceAPI 为 http 提供业务方法
type DeviceAPI struct {
	deviceCore device.Core
}

// NewDeviceCore 创建设备核心服务，并启动离线检查协程
func NewDeviceCore(db *gorm.DB, uni uniqueid.Core) device.Core {
	core := device.NewCore(devicedb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()), uni)
	go core.StartOfflineChecker(context.Background())
	return core
}

func NewDeviceAPI(core device.Core) DeviceAPI {
	return DeviceAPI{deviceCore: core}
}

func RegisterDevice(g gin.IRouter, api DeviceAPI, handler ...gin.HandlerFunc) {
	// 心跳上报来自设备端，不走浏览器登录态
	g.POST("/devices/report", web.WrapH(api.report))

	group := g.Group("/devices", handler...)
	group.GET("", web.WrapH(api.findDevices))
	group.GET("/:id", web.WrapH(api.getDevice))
	group.PUT("/:id", web.WrapH(api.editDevice))
	group.DELETE("/:id", web.WrapH(api.delDevice))
}

// report 设备心跳上报，首次上报时完成注册
func (a DeviceAPI) report(c *gin.Context, in *device.ReportInput) (*device.Device, error) {
	return a.deviceCore.Report(c.Request.Context(), in)
}

// findDevices 分页查询设备列表
func (a DeviceAPI) findDevices(c *gin.Context, in *device.FindDevicesInput) (any, error) {
	items, total, err := a.deviceCore.FindDevices(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a DeviceAPI) getDevice(c *gin.Context, _ *struct{}) (*device.Device, error) {
	return a.deviceCore.GetDevice(c.Request.Context(), c.Param("id"))
}

func (a DeviceAPI) editDevice(c *gin.Context, in *device.EditDeviceInput) (*device.Device, error) {
	return a.deviceCore.EditDevice(c.Request.Context(), in, c.Param("id"))
}

func (a DeviceAPI) delDevice(c *gin.Context, _ *struct{}) (*device.Device, error) {
	return a.deviceCore.DelDevice(c.Request.Context(), c.Param("id"))
}
