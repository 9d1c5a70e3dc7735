package migration

import (
	"Smart-Picking/entities"
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.Operator{}); err != nil {
		return fmt.Errorf("migrating operator table: %w", err)
	}
	if err := db.AutoMigrate(&entities.CatalogEntry{}); err != nil {
		return fmt.Errorf("migrating catalog table: %w", err)
	}
	if err := db.AutoMigrate(&entities.LedgerSheet{}, &entities.LedgerRow{}); err != nil {
		return fmt.Errorf("migrating ledger tables: %w", err)
	}

	fmt.Println("Database migration complete")
	return nil
}
