package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/weiawesome/yaycha/pkg/database"
)

// isNotFound checks if the error is a "record not found" error.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	return database.IsDuplicateKey(err)
}
