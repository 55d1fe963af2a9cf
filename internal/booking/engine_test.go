package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/rizqapp/rizq-server/internal/repository"
)

var engineNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// newTestEngine builds an engine over a mocked pool with a fixed clock and
// no publisher.
func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Engine{
		lessons: repository.NewLessonRepo(db),
		tokens:  repository.NewLinkTokenRepo(db),
		resched: repository.NewRescheduleRepo(db),
		ratings: repository.NewRatingRepo(db),
		tutors:  repository.NewTutorRepo(db),
		notes:   repository.NewNotificationRepo(db),
		log:     zap.NewNop(),
		now:     func() time.Time { return engineNow },
	}, mock
}

func TestDecideRescheduleDeclineMintsNoTokens(t *testing.T) {
	e, mock := newTestEngine(t)
	confirmed := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)
	proposed := time.Date(2026, 9, 12, 15, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE lessons SET status = ").
		WithArgs("confirmed", "les-1", "tut-1", "reschedule_requested").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, proposed_start_at FROM reschedule_requests").
		WithArgs("les-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "proposed_start_at"}).AddRow("rr-1", proposed))
	mock.ExpectExec("UPDATE reschedule_requests SET status = ").
		WithArgs("declined", "rr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT confirmed_start_at FROM lessons").
		WithArgs("les-1").
		WillReturnRows(sqlmock.NewRows([]string{"confirmed_start_at"}).AddRow(confirmed))
	mock.ExpectCommit()

	res, err := e.DecideReschedule(context.Background(), "les-1", "tut-1", false)
	if err != nil {
		t.Fatalf("DecideReschedule error = %v", err)
	}
	if res.CancelToken != "" || res.RescheduleToken != "" {
		t.Fatal("decline must not mint new parent tokens")
	}
	if !res.ConfirmedStartAt.Equal(confirmed) {
		t.Fatalf("confirmed start = %v, want original %v", res.ConfirmedStartAt, confirmed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDecideRescheduleApproveMovesStartAndMintsTokens(t *testing.T) {
	e, mock := newTestEngine(t)
	proposed := time.Date(2026, 9, 12, 15, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE lessons SET status = ").
		WithArgs("confirmed", "les-1", "tut-1", "reschedule_requested").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, proposed_start_at FROM reschedule_requests").
		WithArgs("les-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "proposed_start_at"}).AddRow("rr-1", proposed))
	mock.ExpectExec("UPDATE reschedule_requests SET status = ").
		WithArgs("approved", "rr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lessons SET confirmed_start_at = ").
		WithArgs(proposed, "les-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT confirmed_start_at FROM lessons").
		WithArgs("les-1").
		WillReturnRows(sqlmock.NewRows([]string{"confirmed_start_at"}).AddRow(proposed))
	mock.ExpectExec("INSERT INTO link_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO link_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := e.DecideReschedule(context.Background(), "les-1", "tut-1", true)
	if err != nil {
		t.Fatalf("DecideReschedule error = %v", err)
	}
	if !res.ConfirmedStartAt.Equal(proposed) {
		t.Fatalf("confirmed start = %v, want proposed %v", res.ConfirmedStartAt, proposed)
	}
	if len(res.CancelToken) != 64 || len(res.RescheduleToken) != 64 {
		t.Fatalf("approval must mint a fresh token pair, got %q / %q", res.CancelToken, res.RescheduleToken)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDecideRescheduleConflictWhenNotPending(t *testing.T) {
	e, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE lessons SET status = ").
		WithArgs("confirmed", "les-1", "tut-1", "reschedule_requested").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := e.DecideReschedule(context.Background(), "les-1", "tut-1", true); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("DecideReschedule error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
