// Package model defines database models
package model

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Artworks     []Artwork     `gorm:"foreignKey:UserID" json:"-"`
	Publications []Publication `gorm:"foreignKey:UserID" json:"-"`
	Accesses     []Access      `gorm:"foreignKey:UserID" json:"-"`
}
