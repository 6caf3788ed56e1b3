package model

import "time"

type SocialMedia struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Access holds the OAuth credentials of one linked social media account.
// Everything sensitive lives encrypted inside Data; the salt is stored in
// plaintext next to it and feeds the key derivation
type Access struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"-"`
	SocialMediaID uint       `gorm:"not null" json:"social_media_id"`
	Salt          string     `gorm:"not null" json:"-"`
	Data          AccessData `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
