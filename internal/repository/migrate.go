package repository

import (
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/pkg/database"
)

// mysqlDupKeyName is ER_DUP_KEYNAME, returned when the index already exists.
const mysqlDupKeyName = 1061

// Migrate creates the schema and the follow pair index.
func Migrate(db *gorm.DB) error {
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := createFollowPairIndex(db); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		// Unfollow is an update (soft delete) but the CDC consumer also
		// accepts hard deletes and needs the full before-row for them.
		if err := db.Exec(`ALTER TABLE follows REPLICA IDENTITY FULL`).Error; err != nil {
			return fmt.Errorf("set replica identity on follows: %w", err)
		}
	}
	return nil
}

// createFollowPairIndex allows one live follow per (follower, following).
func createFollowPairIndex(db *gorm.DB) error {
	switch name := db.Dialector.Name(); name {
	case "postgres", "sqlite":
		// Soft-deleted rows are excluded so a re-follow after unfollow is allowed.
		if err := db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS uidx_follow_pair_active
			 ON follows (follower_id, following_id)
			 WHERE deleted_at IS NULL`,
		).Error; err != nil {
			return fmt.Errorf("create uidx_follow_pair_active: %w", err)
		}
	case "mysql":
		// No partial indexes. Follow restores a soft-deleted row in place,
		// so a pair never needs a second row.
		err := db.Exec(
			`CREATE UNIQUE INDEX uidx_follow_pair ON follows (follower_id, following_id)`,
		).Error
		var myErr *mysqldriver.MySQLError
		if err != nil && !(errors.As(err, &myErr) && myErr.Number == mysqlDupKeyName) {
			return fmt.Errorf("create uidx_follow_pair: %w", err)
		}
	default:
		return fmt.Errorf("no follow pair index for dialect %q", name)
	}
	return nil
}
