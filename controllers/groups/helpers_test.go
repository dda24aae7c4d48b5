package groups

import (
	"testing"
	"time"

	"github.com/shannonbay/Pursue-sub004/models"
)

func TestPickNextCreator_EarliestJoined(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	memberships := []models.GroupMembership{
		{ID: 1, UserID: 10, Status: models.StatusActive, JoinedAt: base.Add(48 * time.Hour)},
		{ID: 2, UserID: 20, Status: models.StatusActive, JoinedAt: base},
		{ID: 3, UserID: 30, Status: models.StatusActive, JoinedAt: base.Add(24 * time.Hour)},
	}
	next := pickNextCreator(memberships)
	if next == nil || next.UserID != 20 {
		t.Fatalf("expected earliest-joined user 20, got %+v", next)
	}
}

func TestPickNextCreator_TieBreaksOnLowestUserID(t *testing.T) {
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	memberships := []models.GroupMembership{
		{ID: 1, UserID: 30, Status: models.StatusActive, JoinedAt: joined},
		{ID: 2, UserID: 10, Status: models.StatusActive, JoinedAt: joined},
		{ID: 3, UserID: 20, Status: models.StatusActive, JoinedAt: joined},
	}
	next := pickNextCreator(memberships)
	if next == nil || next.UserID != 10 {
		t.Fatalf("expected lowest user id 10 on joined_at tie, got %+v", next)
	}
}

func TestPickNextCreator_SkipsNonActive(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	memberships := []models.GroupMembership{
		{ID: 1, UserID: 10, Status: models.StatusPending, JoinedAt: base},
		{ID: 2, UserID: 20, Status: models.StatusDeclined, JoinedAt: base},
		{ID: 3, UserID: 30, Status: models.StatusActive, JoinedAt: base.Add(time.Hour)},
	}
	next := pickNextCreator(memberships)
	if next == nil || next.UserID != 30 {
		t.Fatalf("expected the only active member, got %+v", next)
	}
}

func TestPickNextCreator_NoActiveMembers(t *testing.T) {
	memberships := []models.GroupMembership{
		{ID: 1, UserID: 10, Status: models.StatusPending},
	}
	if next := pickNextCreator(memberships); next != nil {
		t.Fatalf("expected nil when no active membership remains, got %+v", next)
	}
}
