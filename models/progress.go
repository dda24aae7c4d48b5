package models

import "time"

// ProgressEntry holds one log per (goal, user, period). The composite unique
// index is the concurrency guard for double-logging within a period.
type ProgressEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GoalID      uint      `gorm:"not null;uniqueIndex:idx_goal_user_period" json:"goal_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_goal_user_period;index" json:"user_id"`
	PeriodStart time.Time `gorm:"type:date;not null;uniqueIndex:idx_goal_user_period" json:"period_start"`
	Value       float64   `gorm:"type:decimal(12,2);not null;default:1" json:"value"`
	Note        *string   `gorm:"type:text" json:"note,omitempty"`
	PhotoKey    *string   `gorm:"size:255" json:"-"`
	LoggedAt    time.Time `gorm:"not null;index" json:"logged_at"`

	Goal *Goal `gorm:"foreignKey:GoalID" json:"goal,omitempty"`
}

func (ProgressEntry) TableName() string {
	return "progress_entries"
}

// ProgressReaction is owned by the reaction collaborator; the engine only
// writes toggles and aggregates counts per entry.
type ProgressReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EntryID   uint      `gorm:"not null;uniqueIndex:idx_entry_user_emoji" json:"entry_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_entry_user_emoji" json:"user_id"`
	Emoji     string    `gorm:"size:16;not null;uniqueIndex:idx_entry_user_emoji" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProgressReaction) TableName() string {
	return "progress_reactions"
}
