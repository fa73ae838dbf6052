package repository

// Test index:
// 1. TestHealingRepositoryCreate - insert goes through with the healing fields
// 2. TestHealingRepositoryFindLatest - newest-first query with the default limit
// 3. TestAuditorRoutesRecords - the combined sink writes through both repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"precisioncalc/src/model"
)

func TestHealingRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := (&HealingRepository{}).WithDB(db)

	record := &model.HealingRecord{
		HealingID:      "heal-1",
		CalculationID:  "calc-1",
		ErrorMessage:   "divide: division by zero: 10 / 0",
		Patterns:       "div_by_zero",
		Success:        true,
		AutoFixed:      true,
		Recommendation: "auto_fix_applied",
		ElapsedMs:      3.2,
		CreatedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "healing_records" (`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestHealingRepositoryFindLatest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := (&HealingRepository{}).WithDB(db)

	rows := sqlmock.NewRows([]string{"id", "healing_id", "success"}).
		AddRow(2, "heal-2", true).
		AddRow(1, "heal-1", false)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "healing_records" ORDER BY id DESC LIMIT $1`)).
		WithArgs(20).
		WillReturnRows(rows)

	records, err := repo.FindLatest(context.Background(), 0)
	if err != nil {
		t.Fatalf("expected FindLatest to succeed, got %v", err)
	}
	if len(records) != 2 || records[0].HealingID != "heal-2" {
		t.Fatalf("unexpected records: %+v", records)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestAuditorRoutesRecords(t *testing.T) {
	db, mock := newMockDB(t)
	auditor := NewAuditorWith(
		(&CalculationRepository{}).WithDB(db),
		(&HealingRepository{}).WithDB(db),
	)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "calculation_records" (`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	if err := auditor.RecordCalculation(context.Background(), &model.CalculationRecord{CalculationID: "calc-1"}); err != nil {
		t.Fatalf("expected calculation write to succeed, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "healing_records" (`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	if err := auditor.RecordHealing(context.Background(), &model.HealingRecord{HealingID: "heal-1"}); err != nil {
		t.Fatalf("expected healing write to succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}
