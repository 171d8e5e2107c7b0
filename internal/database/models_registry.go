package database

import "sanctum/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Hive{},
		&models.Membership{},
		&models.FocusSession{},
		&models.TimerTemplate{},
		&models.Partnership{},
		&models.Checkin{},
		&models.Goal{},
		&models.Milestone{},
	}
}
