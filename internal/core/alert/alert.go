package alert

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// FindAlerts 分页查询告警列表，支持流 ID / 标签 / 时间范围筛选
func (c Core) FindAlerts(ctx context.Context, in *FindAlertsInput) ([]*Alert, int64, error) {
	query := orm.NewQuery(4).OrderBy("happened_at DESC")

	if in.StreamID != "" {
		query.Where("stream_id = ?", in.StreamID)
	}
	if in.Label != "" {
		query.Where("label = ?", in.Label)
	}
	if in.StartMs > 0 && in.EndMs > 0 {
		query.Where("happened_at >= ? AND happened_at <= ?", in.StartAt(), in.EndAt())
	}

	items := make([]*Alert, 0, in.Limit())
	total, err := c.store.Alert().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetAlert Query a single object
func (c Core) GetAlert(ctx context.Context, id string) (*Alert, error) {
	var out Alert
	if err := c.store.Alert().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddAlert Insert into database
func (c Core) AddAlert(ctx context.Context, in *AddAlertInput) (*Alert, error) {
	var out Alert
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.ID = uuid.NewString()

	if err := c.store.Alert().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// DelAlert Delete object
func (c Core) DelAlert(ctx context.Context, id string) (*Alert, error) {
	var out Alert
	if err := c.store.Alert().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// labelCount 用于接收 GROUP BY 查询结果
type labelCount struct {
	Label string `gorm:"column:label"`
	Count int64  `gorm:"column:cnt"`
}

// CountByLabel 按标签统计告警数量，用于仪表盘概览
func (c Core) CountByLabel(ctx context.Context, in *CountByLabelInput) ([]LabelCount, error) {
	var counts []labelCount
	err := c.store.Alert().Session(ctx, func(db *gorm.DB) error {
		tx := db.Model(&Alert{}).Select("label, COUNT(*) as cnt")
		if in.StreamID != "" {
			tx = tx.Where("stream_id = ?", in.StreamID)
		}
		if in.StartMs > 0 && in.EndMs > 0 {
			tx = tx.Where("happened_at >= ? AND happened_at <= ?", in.StartAt(), in.EndAt())
		}
		return tx.Group("label").Order("cnt DESC").Find(&counts).Error
	})
	if err != nil {
		return nil, reason.ErrDB.Withf(`CountByLabel err[%s]`, err.Error())
	}

	result := make([]LabelCount, 0, len(counts))
	for _, v := range counts {
		result = append(result, LabelCount{Label: v.Label, Count: v.Count})
	}
	return result, nil
}
