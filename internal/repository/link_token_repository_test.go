package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMarkUsedTxBurnsTokenOnce(t *testing.T) {
	mock, tx := newMockTx(t)
	mock.ExpectExec("UPDATE link_tokens SET used_at = ").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE link_tokens SET used_at = ").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &LinkTokenRepo{}
	if err := repo.MarkUsedTx(context.Background(), tx, "tok-1"); err != nil {
		t.Fatalf("first MarkUsedTx error = %v", err)
	}
	if err := repo.MarkUsedTx(context.Background(), tx, "tok-1"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second MarkUsedTx error = %v, want ErrInvalidToken", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByHashTxUnknownHash(t *testing.T) {
	mock, tx := newMockTx(t)
	mock.ExpectQuery("SELECT t.id, t.lesson_id, t.token_hash").
		WithArgs("deadbeef").
		WillReturnError(sql.ErrNoRows)

	repo := &LinkTokenRepo{}
	if _, err := repo.FindByHashTx(context.Background(), tx, "deadbeef"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("FindByHashTx error = %v, want ErrInvalidToken", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
