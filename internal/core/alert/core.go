package alert

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// Storer data persistence
type Storer interface {
	Alert() AlertStorer
}

// AlertStorer Instantiation interface
type AlertStorer interface {
	Find(context.Context, *[]*Alert, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Alert, ...orm.QueryOption) error
	Add(context.Context, *Alert) error
	Del(context.Context, *Alert, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Core business domain
type Core struct {
	store Storer
}

// NewCore create business domain
func NewCore(store Storer) Core {
	return Core{store: store}
}
