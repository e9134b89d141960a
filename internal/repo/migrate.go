package repo

import (
	"gorm.io/gorm"

	"quartz-storefront/internal/domain"
)

// Models lists every table the application owns.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Category{},
		&domain.Product{},
		&domain.Contact{},
		&domain.Enquiry{},
	}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
