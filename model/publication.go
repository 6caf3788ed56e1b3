package model

import "time"

type Publication struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_publications_user_slug,priority:1" json:"-"`
	Title   string `gorm:"not null" json:"title"`
	Text    string `gorm:"not null" json:"text"`
	Slug    string `gorm:"not null;uniqueIndex:idx_publications_user_slug,priority:2" json:"-"`
	SlugNum int    `gorm:"not null;default:1;uniqueIndex:idx_publications_user_slug,priority:3" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Artworks []Artwork `gorm:"many2many:publication_has_artworks" json:"artworks,omitempty"`
}

// PublicationInSocialMedia records one cross-post of a publication
// through one linked social media access
type PublicationInSocialMedia struct {
	ID            uint `gorm:"primaryKey;autoIncrement" json:"id"`
	PublicationID uint `gorm:"not null;index" json:"publication_id"`
	AccessID      uint `gorm:"not null" json:"access_id"`
	SocialMediaID uint `gorm:"not null" json:"social_media_id"`

	CreatedAt time.Time `json:"created_at"`
}
