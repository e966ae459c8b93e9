package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/model"
)

// matchFixture creates a mentor, a mentee, and one pending request between
// them.
func matchFixture(t *testing.T, db *DB) (mentor, mentee *model.User, req *model.MatchRequest) {
	t.Helper()
	mentor = createTestUser(t, db.Users, "mentor", model.RoleMentor)
	mentee = createTestUser(t, db.Users, "mentee", model.RoleMentee)

	req = &model.MatchRequest{
		MentorID: mentor.ID,
		MenteeID: mentee.ID,
		Message:  "Please mentor me",
	}
	if err := db.Matches.Create(context.Background(), req); err != nil {
		t.Fatalf("failed to create match request: %v", err)
	}
	return mentor, mentee, req
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestMatchCreate(t *testing.T) {
	db := newTestDB(t)
	_, _, req := matchFixture(t, db)

	if req.ID == 0 {
		t.Error("Create() should assign an ID")
	}
	if req.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending", req.Status)
	}
	if req.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}
}

// The partial unique index blocks a second pending request for the same
// pair, even when the application-level pre-check is bypassed.
func TestMatchCreate_DuplicatePendingRejected(t *testing.T) {
	db := newTestDB(t)
	mentor, mentee, _ := matchFixture(t, db)

	dup := &model.MatchRequest{MentorID: mentor.ID, MenteeID: mentee.ID, Message: "again"}
	err := db.Matches.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate pending error = %v, want ErrConflict", err)
	}
}

// Once the first request leaves pending, the pair may file a new one.
func TestMatchCreate_AllowedAfterRejection(t *testing.T) {
	db := newTestDB(t)
	mentor, mentee, req := matchFixture(t, db)

	if _, err := db.Matches.TransitionPending(context.Background(), req.ID, mentor.ID, model.StatusRejected); err != nil {
		t.Fatalf("TransitionPending() error = %v", err)
	}

	second := &model.MatchRequest{MentorID: mentor.ID, MenteeID: mentee.ID, Message: "second try"}
	if err := db.Matches.Create(context.Background(), second); err != nil {
		t.Fatalf("Create() after rejection error = %v", err)
	}
}

func TestHasPending(t *testing.T) {
	db := newTestDB(t)
	mentor, mentee, req := matchFixture(t, db)

	ok, err := db.Matches.HasPending(context.Background(), mentee.ID, mentor.ID)
	if err != nil {
		t.Fatalf("HasPending() error = %v", err)
	}
	if !ok {
		t.Error("HasPending() = false, want true")
	}

	// Reversed pair has no pending request.
	ok, _ = db.Matches.HasPending(context.Background(), mentor.ID, mentee.ID)
	if ok {
		t.Error("HasPending() for reversed pair = true, want false")
	}

	db.Matches.TransitionPending(context.Background(), req.ID, mentor.ID, model.StatusAccepted)
	ok, _ = db.Matches.HasPending(context.Background(), mentee.ID, mentor.ID)
	if ok {
		t.Error("HasPending() after accept = true, want false")
	}
}

// =========================================================================
// TRANSITION TESTS
// =========================================================================

func TestTransitionPending_Accept(t *testing.T) {
	db := newTestDB(t)
	mentor, _, req := matchFixture(t, db)

	got, err := db.Matches.TransitionPending(context.Background(), req.ID, mentor.ID, model.StatusAccepted)
	if err != nil {
		t.Fatalf("TransitionPending() error = %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Errorf("Status = %q, want accepted", got.Status)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Error("UpdatedAt should move forward on transition")
	}
}

// Accepting twice fails: the second UPDATE finds no pending row.
func TestTransitionPending_AlreadyDecided(t *testing.T) {
	db := newTestDB(t)
	mentor, _, req := matchFixture(t, db)

	if _, err := db.Matches.TransitionPending(context.Background(), req.ID, mentor.ID, model.StatusAccepted); err != nil {
		t.Fatalf("first TransitionPending() error = %v", err)
	}

	_, err := db.Matches.TransitionPending(context.Background(), req.ID, mentor.ID, model.StatusRejected)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second TransitionPending() error = %v, want ErrNotFound", err)
	}
}

// A request addressed to another mentor looks exactly like a missing one.
func TestTransitionPending_WrongOwner(t *testing.T) {
	db := newTestDB(t)
	_, _, req := matchFixture(t, db)
	other := createTestUser(t, db.Users, "othermentor", model.RoleMentor)

	_, err := db.Matches.TransitionPending(context.Background(), req.ID, other.ID, model.StatusAccepted)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("TransitionPending() wrong owner error = %v, want ErrNotFound", err)
	}
}

func TestTransitionPending_NonexistentID(t *testing.T) {
	db := newTestDB(t)
	mentor, _, _ := matchFixture(t, db)

	_, err := db.Matches.TransitionPending(context.Background(), 9999, mentor.ID, model.StatusAccepted)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("TransitionPending() nonexistent id error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// CANCEL TESTS
// =========================================================================

func TestCancelByMentee(t *testing.T) {
	db := newTestDB(t)
	_, mentee, req := matchFixture(t, db)

	got, err := db.Matches.CancelByMentee(context.Background(), req.ID, mentee.ID)
	if err != nil {
		t.Fatalf("CancelByMentee() error = %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}
}

// Cancel has no status guard: an accepted request can still be cancelled.
func TestCancelByMentee_AfterAccept(t *testing.T) {
	db := newTestDB(t)
	mentor, mentee, req := matchFixture(t, db)

	if _, err := db.Matches.TransitionPending(context.Background(), req.ID, mentor.ID, model.StatusAccepted); err != nil {
		t.Fatalf("TransitionPending() error = %v", err)
	}

	got, err := db.Matches.CancelByMentee(context.Background(), req.ID, mentee.ID)
	if err != nil {
		t.Fatalf("CancelByMentee() after accept error = %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}
}

func TestCancelByMentee_WrongOwner(t *testing.T) {
	db := newTestDB(t)
	_, _, req := matchFixture(t, db)
	other := createTestUser(t, db.Users, "othermentee", model.RoleMentee)

	_, err := db.Matches.CancelByMentee(context.Background(), req.ID, other.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("CancelByMentee() wrong owner error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LISTING TESTS
// =========================================================================

func TestListByMentor_JoinsMenteeDetails(t *testing.T) {
	db := newTestDB(t)
	mentor, mentee, _ := matchFixture(t, db)

	list, err := db.Matches.ListByMentor(context.Background(), mentor.ID)
	if err != nil {
		t.Fatalf("ListByMentor() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}

	got := list[0]
	if got.Mentee == nil {
		t.Fatal("Mentee peer should be joined")
	}
	if got.Mentee.Name != mentee.Name || got.Mentee.Email != mentee.Email {
		t.Errorf("Mentee = %+v", got.Mentee)
	}
	if got.Mentor != nil {
		t.Error("incoming list should not carry a mentor peer")
	}
}

func TestListByMentee_JoinsMentorDetails(t *testing.T) {
	db := newTestDB(t)
	mentor, mentee, _ := matchFixture(t, db)

	list, err := db.Matches.ListByMentee(context.Background(), mentee.ID)
	if err != nil {
		t.Fatalf("ListByMentee() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}
	if list[0].Mentor == nil || list[0].Mentor.Name != mentor.Name {
		t.Errorf("Mentor peer = %+v", list[0].Mentor)
	}
}

// A peer without an uploaded image gets the derived default URL.
func TestList_PeerDefaultImage(t *testing.T) {
	db := newTestDB(t)
	mentor, _, _ := matchFixture(t, db)

	list, err := db.Matches.ListByMentor(context.Background(), mentor.ID)
	if err != nil {
		t.Fatalf("ListByMentor() error = %v", err)
	}
	want := "/images/mentee/"
	if got := list[0].Mentee.ProfileImage; !strings.HasPrefix(got, want) {
		t.Errorf("ProfileImage = %q, want prefix %q", got, want)
	}
}

func TestListByMentor_Empty(t *testing.T) {
	db := newTestDB(t)
	mentor := createTestUser(t, db.Users, "lonely", model.RoleMentor)

	list, err := db.Matches.ListByMentor(context.Background(), mentor.ID)
	if err != nil {
		t.Fatalf("ListByMentor() error = %v", err)
	}
	if list == nil {
		t.Error("ListByMentor() should return an empty slice, not nil")
	}
}

// Deleting a user removes their match requests via ON DELETE CASCADE.
func TestDeleteUserCascadesToMatches(t *testing.T) {
	db := newTestDB(t)
	mentor, mentee, _ := matchFixture(t, db)

	if _, err := db.conn.Exec(`DELETE FROM users WHERE id = ?`, mentee.ID); err != nil {
		t.Fatalf("deleting mentee: %v", err)
	}

	list, err := db.Matches.ListByMentor(context.Background(), mentor.ID)
	if err != nil {
		t.Fatalf("ListByMentor() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len(list) = %d after cascade delete, want 0", len(list))
	}
}
