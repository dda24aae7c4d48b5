package models

import "time"

// Group visibility values
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Challenge status values (derived from dates unless cancelled)
const (
	ChallengeUpcoming  = "upcoming"
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
	ChallengeCancelled = "cancelled"
)

type Group struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CreatorUserID      uint       `gorm:"not null;index" json:"creator_user_id"`
	Name               string     `gorm:"size:100;not null" json:"name"`
	Description        *string    `gorm:"type:text" json:"description,omitempty"`
	Visibility         string     `gorm:"type:enum('public','private');default:'private'" json:"visibility"`
	SpotLimit          int        `gorm:"not null;default:20" json:"spot_limit"`
	IsChallenge        bool       `gorm:"default:false" json:"is_challenge"`
	ChallengeStartDate *time.Time `gorm:"type:date" json:"challenge_start_date,omitempty"`
	ChallengeEndDate   *time.Time `gorm:"type:date" json:"challenge_end_date,omitempty"`
	ChallengeCancelled bool       `gorm:"default:false" json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"-"`
}

func (Group) TableName() string {
	return "groups"
}

// ChallengeStatus derives the lifecycle state from the configured dates.
// Cancellation is sticky and wins over date math.
func (g *Group) ChallengeStatus(now time.Time) string {
	if !g.IsChallenge {
		return ""
	}
	if g.ChallengeCancelled {
		return ChallengeCancelled
	}
	if g.ChallengeStartDate != nil && now.Before(*g.ChallengeStartDate) {
		return ChallengeUpcoming
	}
	if g.ChallengeEndDate != nil && now.After(g.ChallengeEndDate.Add(24*time.Hour)) {
		return ChallengeCompleted
	}
	return ChallengeActive
}

// Membership roles
const (
	RoleCreator = "creator"
	RoleAdmin   = "admin"
	RoleMember  = "member"
)

// Membership statuses
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusDeclined = "declined"
)

type GroupMembership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_user;index" json:"user_id"`
	Role     string    `gorm:"type:enum('creator','admin','member');default:'member'" json:"role"`
	Status   string    `gorm:"type:enum('pending','active','declined');default:'pending'" json:"status"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GroupMembership) TableName() string {
	return "group_memberships"
}

// CanManage reports whether the membership grants admin authority in its group.
func (m *GroupMembership) CanManage() bool {
	return m.Status == StatusActive && (m.Role == RoleCreator || m.Role == RoleAdmin)
}

type GroupInviteCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	Code      string    `gorm:"size:16;uniqueIndex;not null" json:"code"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (GroupInviteCode) TableName() string {
	return "group_invite_codes"
}

// Activity types recorded on the group feed
const (
	ActivityGroupCreated   = "group_created"
	ActivityJoinRequested  = "join_requested"
	ActivityMemberJoined   = "member_joined"
	ActivityMemberApproved = "member_approved"
	ActivityMemberDeclined = "member_declined"
	ActivityMemberRemoved  = "member_removed"
	ActivityMemberLeft     = "member_left"
	ActivityMemberPromoted = "member_promoted"
	ActivityMemberDemoted  = "member_demoted"
	ActivityGoalCreated    = "goal_created"
	ActivityGoalDeleted    = "goal_deleted"
	ActivityProgressLogged = "progress_logged"
)

// Promotion reason recorded in member_promoted metadata
const PromotionReasonAutoLastAdminLeft = "auto_last_admin_left"

// GroupActivity is an append-only audit row. Metadata is a small JSON blob
// (e.g. {"reason":"auto_last_admin_left","new_role":"creator"}).
type GroupActivity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GroupID      uint      `gorm:"not null;index" json:"group_id"`
	UserID       uint      `gorm:"not null" json:"user_id"`
	ActivityType string    `gorm:"size:40;not null" json:"activity_type"`
	Metadata     *string   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GroupActivity) TableName() string {
	return "group_activities"
}
