package database

import (
	"fmt"
	"io"
	"testing"

	"go-stock-ledger/internal/models"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestOpenSQLiteMigratesSchema(t *testing.T) {
	db, err := OpenSQLite(":memory:", quietLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	for _, table := range []any{
		&models.User{}, &models.InventoryRecord{}, &models.SubCategory{}, &models.PurchaseBatch{},
		&models.SaleRecord{}, &models.CapitalLedger{}, &models.Transaction{}, &models.Vendor{},
	} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table for %T", table)
		}
	}
}

func TestUniqueViolationIsDuplicateKey(t *testing.T) {
	db, err := OpenSQLite(":memory:", quietLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	if err := db.Create(&models.InventoryRecord{Category: "Cables"}).Error; err != nil {
		t.Fatalf("first create: %v", err)
	}
	err = db.Create(&models.InventoryRecord{Category: "Cables"}).Error
	if err == nil {
		t.Fatalf("expected unique violation")
	}
	if !IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"mysql 1062", fmt.Errorf("insert: %w", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}), true},
		{"mysql other", &gomysql.MySQLError{Number: 1452}, false},
		{"not found", gorm.ErrRecordNotFound, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKey(tt.err); got != tt.want {
				t.Fatalf("IsDuplicateKey(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	if _, err := Connect("", quietLogger()); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
