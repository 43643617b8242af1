package devicedb

import (
	"context"

	"github.com/gowvp/argus/internal/core/device"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ device.Storer = DB{}

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 按需自动建表
func (d DB) AutoMigrate(ok bool) DB {
	if ok {
		if err := d.db.AutoMigrate(new(device.Device)); err != nil {
			panic(err)
		}
	}
	return d
}

func (d DB) Device() device.DeviceStorer {
	return NewDevice(d.db)
}

var _ device.DeviceStorer = Device{}

type Device struct {
	db *gorm.DB
}

func NewDevice(db *gorm.DB) Device {
	return Device{db: db}
}

func (s Device) apply(ctx context.Context, opts ...orm.QueryOption) *gorm.DB {
	db := s.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

// Find implements device.DeviceStorer.
func (s Device) Find(ctx context.Context, items *[]*device.Device, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := s.apply(ctx, opts...).Model(new(device.Device))
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Offset(pager.Offset()).Limit(pager.Limit()).Find(items).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Get implements device.DeviceStorer.
func (s Device) Get(ctx context.Context, out *device.Device, opts ...orm.QueryOption) error {
	return s.apply(ctx, opts...).First(out).Error
}

// Add implements device.DeviceStorer.
func (s Device) Add(ctx context.Context, in *device.Device) error {
	return s.db.WithContext(ctx).Create(in).Error
}

// Edit implements device.DeviceStorer.
func (s Device) Edit(ctx context.Context, out *device.Device, changeFn func(*device.Device), opts ...orm.QueryOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx
		for _, opt := range opts {
			db = opt(db)
		}
		if err := db.First(out).Error; err != nil {
			return err
		}
		changeFn(out)
		return tx.Save(out).Error
	})
}

// Del implements device.DeviceStorer.
func (s Device) Del(ctx context.Context, out *device.Device, opts ...orm.QueryOption) error {
	db := s.apply(ctx, opts...)
	if err := db.First(out).Error; err != nil {
		return err
	}
	return db.Delete(out).Error
}

// Count implements device.DeviceStorer.
func (s Device) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := s.apply(ctx, opts...).Model(new(device.Device)).Count(&total).Error
	return total, err
}

// Session implements device.DeviceStorer.
func (s Device) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
