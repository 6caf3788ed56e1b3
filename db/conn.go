// Package db contains things related to the database connection
package db

import (
	"artmux/portfolio-api/model"
	"fmt"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	dsn := viper.GetString("db.dsn")

	switch viper.GetString("db.driver") {
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(
		model.User{},
		model.Artwork{},
		model.Tag{},
		model.Publication{},
		model.PublicationInSocialMedia{},
		model.SocialMedia{},
		model.Access{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	// The provider set is closed, ids are load-bearing for dispatch
	err = db.Clauses(clause.OnConflict{DoNothing: true}).Create([]model.SocialMedia{
		{ID: 1, Name: "twitter"},
		{ID: 2, Name: "reddit"},
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to seed social medias, %w", err)
	}

	return db, nil
}
