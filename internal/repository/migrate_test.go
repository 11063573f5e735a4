package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMock(t *testing.T, open func(conn gorm.ConnPool) gorm.Dialector, setup func(sqlmock.Sqlmock)) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	if setup != nil {
		setup(mock)
	}
	db, err := gorm.Open(open(mockDB), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestCreateFollowPairIndex(t *testing.T) {
	t.Run("postgres partial index", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS uidx_follow_pair_active\s+ON follows \(follower_id, following_id\)\s+WHERE deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, createFollowPairIndex(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sqlite partial index", func(t *testing.T) {
		db, mock := openMock(t,
			func(conn gorm.ConnPool) gorm.Dialector { return sqlite.Dialector{Conn: conn} },
			func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`(?i)select sqlite_version\(\)`).
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("3.45.1"))
			})

		mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS uidx_follow_pair_active`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, createFollowPairIndex(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	newMySQL := func(conn gorm.ConnPool) gorm.Dialector {
		return mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true})
	}

	t.Run("mysql plain unique index", func(t *testing.T) {
		db, mock := openMock(t, newMySQL, nil)

		mock.ExpectExec(`CREATE UNIQUE INDEX uidx_follow_pair ON follows \(follower_id, following_id\)$`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, createFollowPairIndex(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mysql index already exists", func(t *testing.T) {
		db, mock := openMock(t, newMySQL, nil)

		mock.ExpectExec(`CREATE UNIQUE INDEX uidx_follow_pair`).
			WillReturnError(&mysqldriver.MySQLError{Number: 1061, Message: "Duplicate key name 'uidx_follow_pair'"})

		assert.NoError(t, createFollowPairIndex(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mysql duplicate rows block the index", func(t *testing.T) {
		db, mock := openMock(t, newMySQL, nil)

		mock.ExpectExec(`CREATE UNIQUE INDEX uidx_follow_pair`).
			WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '1-2'"})

		err := createFollowPairIndex(db)
		assert.ErrorContains(t, err, "create uidx_follow_pair")
	})
}

func TestFollowTwiceOnMySQLIsRejected(t *testing.T) {
	db, mock := openMock(t, func(conn gorm.ConnPool) gorm.Dialector {
		return mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true})
	}, nil)
	repo := NewGormFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `follows` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `follows`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'uidx_follow_pair'"})
	mock.ExpectRollback()

	_, err := repo.Follow(t.Context(), 1, 2)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.NoError(t, mock.ExpectationsWereMet())
}
