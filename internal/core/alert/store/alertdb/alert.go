package alertdb

import (
	"context"

	"github.com/gowvp/argus/internal/core/alert"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ alert.Storer = DB{}

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 按需自动建表
func (d DB) AutoMigrate(ok bool) DB {
	if ok {
		if err := d.db.AutoMigrate(new(alert.Alert)); err != nil {
			panic(err)
		}
	}
	return d
}

func (d DB) Alert() alert.AlertStorer {
	return NewAlert(d.db)
}

var _ alert.AlertStorer = Alert{}

type Alert struct {
	db *gorm.DB
}

func NewAlert(db *gorm.DB) Alert {
	return Alert{db: db}
}

func (a Alert) apply(ctx context.Context, opts ...orm.QueryOption) *gorm.DB {
	db := a.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

// Find implements alert.AlertStorer.
func (a Alert) Find(ctx context.Context, items *[]*alert.Alert, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := a.apply(ctx, opts...).Model(new(alert.Alert))
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Offset(pager.Offset()).Limit(pager.Limit()).Find(items).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Get implements alert.AlertStorer.
func (a Alert) Get(ctx context.Context, out *alert.Alert, opts ...orm.QueryOption) error {
	return a.apply(ctx, opts...).First(out).Error
}

// Add implements alert.AlertStorer.
func (a Alert) Add(ctx context.Context, in *alert.Alert) error {
	return a.db.WithContext(ctx).Create(in).Error
}

// Del implements alert.AlertStorer.
func (a Alert) Del(ctx context.Context, out *alert.Alert, opts ...orm.QueryOption) error {
	db := a.apply(ctx, opts...)
	if err := db.First(out).Error; err != nil {
		return err
	}
	return db.Delete(out).Error
}

// Count implements alert.AlertStorer.
func (a Alert) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := a.apply(ctx, opts...).Model(new(alert.Alert)).Count(&total).Error
	return total, err
}

// Session implements alert.AlertStorer.
func (a Alert) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
