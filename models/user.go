package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Timezone  string    `gorm:"size:64;not null;default:'UTC'" json:"timezone"`
	IsPremium bool      `gorm:"default:false" json:"is_premium"`
	Profile   *string   `gorm:"type:varchar(255);null" json:"profile,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Location resolves the user's declared timezone, falling back to UTC when
// the stored value fails to load.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
