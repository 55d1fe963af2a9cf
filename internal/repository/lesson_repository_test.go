package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rizqapp/rizq-server/internal/model"
)

// newMockTx opens a mocked pool and an open transaction on it so the Tx
// variants can be exercised without a database.
func newMockTx(t *testing.T) (sqlmock.Sqlmock, *sql.Tx) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin error = %v", err)
	}
	return mock, tx
}

func TestAcceptTxReturnsConfirmedStart(t *testing.T) {
	mock, tx := newMockTx(t)
	confirmed := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE lessons SET status = 'confirmed', confirmed_start_at = requested_start_at").
		WithArgs("les-1", "tut-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT confirmed_start_at FROM lessons").
		WithArgs("les-1").
		WillReturnRows(sqlmock.NewRows([]string{"confirmed_start_at"}).AddRow(confirmed))

	repo := &LessonRepo{}
	got, err := repo.AcceptTx(context.Background(), tx, "les-1", "tut-1")
	if err != nil {
		t.Fatalf("AcceptTx error = %v", err)
	}
	if !got.Equal(confirmed) {
		t.Fatalf("AcceptTx confirmed = %v, want %v", got, confirmed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAcceptTxConflictOnZeroRows(t *testing.T) {
	mock, tx := newMockTx(t)
	mock.ExpectExec("UPDATE lessons SET status = 'confirmed', confirmed_start_at = requested_start_at").
		WithArgs("les-1", "tut-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &LessonRepo{}
	if _, err := repo.AcceptTx(context.Background(), tx, "les-1", "tut-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("AcceptTx error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionTxConflictOnZeroRows(t *testing.T) {
	mock, tx := newMockTx(t)
	mock.ExpectExec("UPDATE lessons SET status = ").
		WithArgs("canceled", "les-1", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &LessonRepo{}
	err := repo.TransitionTx(context.Background(), tx, "les-1", model.StatusConfirmed, model.StatusCanceled)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("TransitionTx error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionByTutorTxGuardsOwnership(t *testing.T) {
	mock, tx := newMockTx(t)
	mock.ExpectExec("UPDATE lessons SET status = ").
		WithArgs("completed", "les-1", "tut-1", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lessons SET status = ").
		WithArgs("completed", "les-1", "tut-2", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &LessonRepo{}
	if err := repo.TransitionByTutorTx(context.Background(), tx, "les-1", "tut-1",
		model.StatusConfirmed, model.StatusCompleted); err != nil {
		t.Fatalf("TransitionByTutorTx error = %v", err)
	}
	err := repo.TransitionByTutorTx(context.Background(), tx, "les-1", "tut-2",
		model.StatusConfirmed, model.StatusCompleted)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("TransitionByTutorTx for non-owner = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
