package models

import "gorm.io/gorm"

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Post{},
		&Follow{},
		&Like{},
		&Comment{},
	)
}
