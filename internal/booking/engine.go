// Package booking implements the lesson lifecycle.  Every status change in
// the system goes through the Engine: one method per lifecycle event, each
// running the conditional-update transition, its dependent writes and the
// token bookkeeping inside a single transaction.  Handlers never touch
// lesson SQL directly.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rizqapp/rizq-server/internal/model"
	"github.com/rizqapp/rizq-server/internal/repository"
)

// Lesson event names published to the message queue.
const (
	EventLessonRequested = "lesson.requested"
	EventLessonConfirmed = "lesson.confirmed"
	EventLessonCanceled  = "lesson.canceled"
	EventLessonCompleted = "lesson.completed"
)

// EventPublisher delivers lifecycle events to interested consumers.  Calls
// happen after the transaction commits and must not fail the request;
// implementations log and swallow their own errors.
type EventPublisher interface {
	PublishLessonEvent(ctx context.Context, eventType, lessonID string)
}

// Engine executes lifecycle transitions.  now is injectable for tests.
type Engine struct {
	lessons   *repository.LessonRepo
	tokens    *repository.LinkTokenRepo
	resched   *repository.RescheduleRepo
	ratings   *repository.RatingRepo
	tutors    *repository.TutorRepo
	notes     *repository.NotificationRepo
	publisher EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

// NewEngine wires the engine.  publisher may be nil when messaging is
// disabled.
func NewEngine(
	lessons *repository.LessonRepo,
	tokens *repository.LinkTokenRepo,
	resched *repository.RescheduleRepo,
	ratings *repository.RatingRepo,
	tutors *repository.TutorRepo,
	notes *repository.NotificationRepo,
	publisher EventPublisher,
	log *zap.Logger,
) *Engine {
	return &Engine{
		lessons:   lessons,
		tokens:    tokens,
		resched:   resched,
		ratings:   ratings,
		tutors:    tutors,
		notes:     notes,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (e *Engine) publish(ctx context.Context, eventType, lessonID string) {
	if e.publisher != nil {
		e.publisher.PublishLessonEvent(ctx, eventType, lessonID)
	}
}

// notify inserts a tutor notification under a savepoint.  Failures are
// logged and dropped; the surrounding transition must not care.
func (e *Engine) notify(ctx context.Context, tx *sql.Tx, tutorID, typ, title string, lessonID string) {
	n := &model.TutorNotification{
		ID:       uuid.NewString(),
		TutorID:  tutorID,
		Type:     typ,
		Title:    title,
		LessonID: &lessonID,
	}
	if err := e.notes.InsertBestEffortTx(ctx, tx, n); err != nil {
		e.log.Warn("notification insert failed",
			zap.String("lesson_id", lessonID),
			zap.String("type", typ),
			zap.Error(err))
	}
}

// CreateRequestInput is a parent's booking request.  The price is never
// part of the input; it is resolved from the tutor's price list.
type CreateRequestInput struct {
	TutorID          string
	LessonTypeID     string
	StudentName      string
	Level            *string
	Note             *string
	DurationMinutes  int
	RequestedStartAt time.Time
}

// CreateRequest creates a lesson in 'requested' with its unpaid payment
// row.  ErrNoPrice when the (lesson type, duration) pair has no active
// price entry for the tutor.
func (e *Engine) CreateRequest(ctx context.Context, in CreateRequestInput) (*model.Lesson, error) {
	price, err := e.tutors.PriceFor(ctx, in.TutorID, in.LessonTypeID, in.DurationMinutes)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		ID:               uuid.NewString(),
		TutorID:          in.TutorID,
		LessonTypeID:     in.LessonTypeID,
		StudentName:      in.StudentName,
		Level:            in.Level,
		Note:             in.Note,
		DurationMinutes:  in.DurationMinutes,
		PriceAmount:      price,
		Status:           model.StatusRequested,
		RequestedStartAt: in.RequestedStartAt.UTC(),
	}

	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := e.lessons.CreateTx(ctx, tx, lesson); err != nil {
		return nil, err
	}
	e.notify(ctx, tx, in.TutorID, model.NotifyNewRequest,
		fmt.Sprintf("New lesson request from %s", in.StudentName), lesson.ID)

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.publish(ctx, EventLessonRequested, lesson.ID)
	return lesson, nil
}

// AcceptResult carries the confirmed start plus the raw parent action
// tokens minted by Accept.  The raw values exist only in this response.
type AcceptResult struct {
	ConfirmedStartAt time.Time
	CancelToken      string
	RescheduleToken  string
}

// Accept confirms a requested lesson and mints the parent's cancel and
// reschedule tokens, both expiring at the confirmed start.  ErrConflict
// when the lesson is missing, not the tutor's, or already decided.
func (e *Engine) Accept(ctx context.Context, lessonID, tutorID string) (*AcceptResult, error) {
	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	confirmed, err := e.lessons.AcceptTx(ctx, tx, lessonID, tutorID)
	if err != nil {
		return nil, err
	}
	res := &AcceptResult{ConfirmedStartAt: confirmed}
	res.CancelToken, res.RescheduleToken, err = e.issueParentTokensTx(ctx, tx, lessonID, confirmed)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.publish(ctx, EventLessonConfirmed, lessonID)
	return res, nil
}

// issueParentTokensTx mints and stores the cancel and reschedule token
// pair for a confirmed lesson.
func (e *Engine) issueParentTokensTx(ctx context.Context, tx *sql.Tx, lessonID string, confirmed time.Time) (cancel, reschedule string, err error) {
	now := e.now()
	for _, purpose := range []model.TokenPurpose{model.PurposeCancel, model.PurposeReschedule} {
		issued, err := issueToken(lessonID, purpose, confirmed, now)
		if err != nil {
			return "", "", err
		}
		if err := e.tokens.InsertTx(ctx, tx, &issued.Token); err != nil {
			return "", "", err
		}
		if purpose == model.PurposeCancel {
			cancel = issued.Raw
		} else {
			reschedule = issued.Raw
		}
	}
	return cancel, reschedule, nil
}

// Reject declines a requested lesson.  The cancellation audit row is
// written with canceled_by=tutor; a rejection before confirmation is never
// late.
func (e *Engine) Reject(ctx context.Context, lessonID, tutorID string) error {
	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := e.lessons.TransitionByTutorTx(ctx, tx, lessonID, tutorID,
		model.StatusRequested, model.StatusCanceled); err != nil {
		return err
	}
	if err := e.lessons.InsertCancellationTx(ctx, tx, &model.LessonCancellation{
		ID:         uuid.NewString(),
		LessonID:   lessonID,
		CanceledBy: model.ActorTutor,
		IsLate:     false,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	e.publish(ctx, EventLessonCanceled, lessonID)
	return nil
}

// CancelResult reports the policy outcome of a parent cancellation.
type CancelResult struct {
	IsLate  bool
	Payable bool
}

// ParentCancel redeems a cancel token and cancels the confirmed lesson.
// Lateness is judged against the tutor's cutoff at redemption time; a late
// cancel is payable when the policy says so.  Every failure (bad token,
// used token, lesson no longer confirmed) is ErrInvalidToken.
func (e *Engine) ParentCancel(ctx context.Context, rawToken string, note *string) (*CancelResult, error) {
	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	tc, err := e.redeemTx(ctx, tx, rawToken, model.PurposeCancel)
	if err != nil {
		return nil, err
	}

	if err := e.lessons.TransitionTx(ctx, tx, tc.LessonID,
		model.StatusConfirmed, model.StatusCanceled); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, repository.ErrInvalidToken
		}
		return nil, err
	}

	isLate := false
	if tc.ConfirmedStartAt != nil {
		isLate = model.IsLateCancellation(e.now(), *tc.ConfirmedStartAt, tc.CutoffHours)
	}
	if err := e.lessons.InsertCancellationTx(ctx, tx, &model.LessonCancellation{
		ID:         uuid.NewString(),
		LessonID:   tc.LessonID,
		CanceledBy: model.ActorParent,
		IsLate:     isLate,
		Note:       note,
	}); err != nil {
		return nil, err
	}
	e.notify(ctx, tx, tc.TutorID, model.NotifyLessonCanceled, "A parent canceled a lesson", tc.LessonID)

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.publish(ctx, EventLessonCanceled, tc.LessonID)
	return &CancelResult{IsLate: isLate, Payable: isLate && tc.LateCancelPayable}, nil
}

// ParentReschedule redeems a reschedule token and moves the lesson to
// reschedule_requested, filing a pending proposal that carries the parent's
// proposed start time for the tutor to decide on.
func (e *Engine) ParentReschedule(ctx context.Context, rawToken string, proposedStart time.Time, reason *string) error {
	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	tc, err := e.redeemTx(ctx, tx, rawToken, model.PurposeReschedule)
	if err != nil {
		return err
	}

	if err := e.lessons.TransitionTx(ctx, tx, tc.LessonID,
		model.StatusConfirmed, model.StatusRescheduleRequested); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return repository.ErrInvalidToken
		}
		return err
	}
	proposed := proposedStart.UTC()
	if err := e.resched.InsertTx(ctx, tx, &model.RescheduleRequest{
		ID:              uuid.NewString(),
		LessonID:        tc.LessonID,
		RequestedBy:     model.ActorParent,
		ProposedStartAt: &proposed,
		Reason:          reason,
	}); err != nil {
		return err
	}
	e.notify(ctx, tx, tc.TutorID, model.NotifyReschedule, "A parent asked to reschedule a lesson", tc.LessonID)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DecideReschedule resolves the pending proposal.  Approving moves the
// confirmed start to the proposed time and mints a fresh cancel and
// reschedule token pair whose expiries track the new start.  Declining
// keeps the original time and mints nothing; the parent's surviving
// tokens keep their original expiries.
func (e *Engine) DecideReschedule(ctx context.Context, lessonID, tutorID string, approve bool) (*AcceptResult, error) {
	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := e.lessons.TransitionByTutorTx(ctx, tx, lessonID, tutorID,
		model.StatusRescheduleRequested, model.StatusConfirmed); err != nil {
		return nil, err
	}

	decision := model.RescheduleDeclined
	if approve {
		decision = model.RescheduleApproved
	}
	proposed, err := e.resched.ResolvePendingTx(ctx, tx, lessonID, decision)
	if err != nil {
		return nil, err
	}
	if approve && proposed.Valid {
		if err := e.lessons.SetConfirmedStartTx(ctx, tx, lessonID, proposed.Time); err != nil {
			return nil, err
		}
	}

	confirmed, err := e.lessons.ConfirmedStartTx(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	res := &AcceptResult{ConfirmedStartAt: confirmed}
	if approve {
		res.CancelToken, res.RescheduleToken, err = e.issueParentTokensTx(ctx, tx, lessonID, confirmed)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.publish(ctx, EventLessonConfirmed, lessonID)
	return res, nil
}

// Complete marks a confirmed lesson as held and mints the parent's rate
// token, valid for seven days.
func (e *Engine) Complete(ctx context.Context, lessonID, tutorID string) (rateToken string, err error) {
	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := e.lessons.TransitionByTutorTx(ctx, tx, lessonID, tutorID,
		model.StatusConfirmed, model.StatusCompleted); err != nil {
		return "", err
	}
	issued, err := issueToken(lessonID, model.PurposeRate, time.Time{}, e.now())
	if err != nil {
		return "", err
	}
	if err := e.tokens.InsertTx(ctx, tx, &issued.Token); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	committed = true

	e.publish(ctx, EventLessonCompleted, lessonID)
	return issued.Raw, nil
}

// Rate redeems a rate token, records the stars and recomputes the tutor's
// aggregate inside the same transaction.
func (e *Engine) Rate(ctx context.Context, rawToken string, stars int, comment *string) error {
	if stars < 1 || stars > 5 {
		return fmt.Errorf("stars out of range: %d", stars)
	}

	tx, err := e.lessons.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	tc, err := e.redeemTx(ctx, tx, rawToken, model.PurposeRate)
	if err != nil {
		return err
	}

	if err := e.ratings.InsertTx(ctx, tx, &model.Rating{
		ID:       uuid.NewString(),
		LessonID: tc.LessonID,
		TutorID:  tc.TutorID,
		Stars:    stars,
		Comment:  comment,
	}); err != nil {
		return err
	}
	allStars, err := e.ratings.StarsForTutorTx(ctx, tx, tc.TutorID)
	if err != nil {
		return err
	}
	avg, count := model.SummaryFromStars(allStars)
	if err := e.ratings.UpsertSummaryTx(ctx, tx, tc.TutorID, avg, count); err != nil {
		return err
	}
	e.notify(ctx, tx, tc.TutorID, model.NotifyNewRating,
		fmt.Sprintf("You received a %d-star rating", stars), tc.LessonID)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// redeemTx looks up the token by hash, checks redeemability against the
// engine clock and burns it, all inside the caller's transaction.  The
// conditional mark-used is what makes concurrent double redemption lose.
func (e *Engine) redeemTx(ctx context.Context, tx *sql.Tx, rawToken string, purpose model.TokenPurpose) (*repository.TokenContext, error) {
	tc, err := e.tokens.FindByHashTx(ctx, tx, HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if !tc.Token.Redeemable(e.now(), purpose, tc.LessonID, tc.LessonStatus) {
		return nil, repository.ErrInvalidToken
	}
	if err := e.tokens.MarkUsedTx(ctx, tx, tc.Token.ID); err != nil {
		return nil, err
	}
	return tc, nil
}
