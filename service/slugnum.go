package service

import (
	"fmt"

	"gorm.io/gorm"
)

// NextSlugNum returns MAX(slug_num)+1 for the (user, slug) pair, or 1 when
// the slug is unused. Callers must pass the same transaction that will
// insert or update the row, otherwise two concurrent creates with the same
// title could be handed the same number.
func NextSlugNum(tx *gorm.DB, table string, userID uint, slug string) (int, error) {
	var current *int

	err := tx.
		Table(table).
		Where("user_id = ? AND slug = ?", userID, slug).
		Select("MAX(slug_num)").
		Scan(&current).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to look up max slug_num, %w", err)
	}

	if current == nil {
		return 1, nil
	}

	return *current + 1, nil
}
