package model

import (
	"time"
)

// An artwork is identified towards the user by its numbered slug. The slug
// alone isn't unique per user since titles may repeat, so the pair
// (slug, slug_num) disambiguates. The three image paths always point at
// files that exist together or not at all once the row is committed.
type Artwork struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID         string `gorm:"uniqueIndex;not null" json:"uuid"`
	UserID       uint   `gorm:"not null;uniqueIndex:idx_artworks_user_slug,priority:1" json:"-"`
	Title        string `gorm:"not null" json:"title"`
	Observations string `json:"observations"`
	Slug         string `gorm:"not null;uniqueIndex:idx_artworks_user_slug,priority:2" json:"-"`
	SlugNum      int    `gorm:"not null;default:1;uniqueIndex:idx_artworks_user_slug,priority:3" json:"-"`

	ImgPathOriginal  string `json:"-"`
	ImgPathMedium    string `json:"-"`
	ImgPathThumbnail string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tags         []Tag         `gorm:"many2many:artwork_has_tags" json:"tags,omitempty"`
	Publications []Publication `gorm:"many2many:publication_has_artworks" json:"-"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Artworks []Artwork `gorm:"many2many:artwork_has_tags" json:"-"`
}
