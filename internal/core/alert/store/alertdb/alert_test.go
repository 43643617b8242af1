package alertdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gowvp/argus/internal/core/alert"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func generateMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	if err != nil {
		return nil, nil, err
	}
	return db, mock, nil
}

func TestAlertGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	alertDB := NewAlert(db)

	mock.ExpectQuery(`SELECT \* FROM "alerts" WHERE id=\$1 (.+) LIMIT \$2`).
		WithArgs("a1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stream_id", "label"}).AddRow("a1", "cam1", "person"))
	var out alert.Alert
	if err := alertDB.Get(context.Background(), &out, orm.Where("id=?", "a1")); err != nil {
		t.Fatal(err)
	}
	if out.StreamID != "cam1" || out.Label != "person" {
		t.Fatalf("unexpected row: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestAlertAdd(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	alertDB := NewAlert(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "alerts"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	in := alert.Alert{ID: "a1", StreamID: "cam1", FrameID: "f1", Label: "truck", Score: 0.92}
	if err := alertDB.Add(context.Background(), &in); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
