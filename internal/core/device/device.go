package device

import (
	"context"
	"log/slog"

	"github.com/gowvp/argus/internal/core/bz"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/jinzhu/copier"
)

type FindDevicesInput struct {
	web.PagerFilter
	Kind     string `form:"kind"`      // 设备类型
	StreamID string `form:"stream_id"` // 关联的视频流 ID
}

type ReportInput struct {
	DeviceID    string  `json:"device_id"`   // 设备 ID，为空表示首次上报
	Name        string  `json:"name"`        // 设备名称
	Kind        string  `json:"kind"`        // 设备类型
	StreamID    string  `json:"stream_id"`   // 关联的视频流 ID
	Temperature float64 `json:"temperature"` // 温度（摄氏度）
}

type EditDeviceInput struct {
	Name     string `json:"name"`
	StreamID string `json:"stream_id"`
}

// FindDevices 分页查询设备列表
func (c Core) FindDevices(ctx context.Context, in *FindDevicesInput) ([]*Device, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at DESC")
	if in.Kind != "" {
		query.Where("kind = ?", in.Kind)
	}
	if in.StreamID != "" {
		query.Where("stream_id = ?", in.StreamID)
	}

	items := make([]*Device, 0, in.Limit())
	total, err := c.store.Device().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetDevice Query a single object
func (c Core) GetDevice(ctx context.Context, id string) (*Device, error) {
	var out Device
	if err := c.store.Device().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// Report 设备心跳上报，不存在则注册，存在则刷新在线状态与温度
func (c Core) Report(ctx context.Context, in *ReportInput) (*Device, error) {
	if in.DeviceID == "" {
		var out Device
		if err := copier.Copy(&out, in); err != nil {
			slog.ErrorContext(ctx, "Copy", "err", err)
		}
		out.ID = c.uni.UniqueID(bz.IDPrefixDevice)
		out.IsOnline = true
		out.KeepaliveAt = orm.Now()
		if err := c.store.Device().Add(ctx, &out); err != nil {
			return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
		}
		return &out, nil
	}

	var out Device
	if err := c.store.Device().Edit(ctx, &out, func(d *Device) {
		d.IsOnline = true
		d.Temperature = in.Temperature
		d.KeepaliveAt = orm.Now()
		if in.Name != "" {
			d.Name = in.Name
		}
		if in.StreamID != "" {
			d.StreamID = in.StreamID
		}
	}, orm.Where("id=?", in.DeviceID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Report id[%v]`, in.DeviceID)
		}
		return nil, reason.ErrDB.Withf(`Report id[%v] err[%s]`, in.DeviceID, err.Error())
	}
	return &out, nil
}

// EditDevice Update object information
func (c Core) EditDevice(ctx context.Context, in *EditDeviceInput, id string) (*Device, error) {
	var out Device
	if err := c.store.Device().Edit(ctx, &out, func(d *Device) {
		if err := copier.Copy(d, in); err != nil {
			slog.ErrorContext(ctx, "Copy", "err", err)
		}
	}, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Edit id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// DelDevice Delete object
func (c Core) DelDevice(ctx context.Context, id string) (*Device, error) {
	var out Device
	if err := c.store.Device().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}
