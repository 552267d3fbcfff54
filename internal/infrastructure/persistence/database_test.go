package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mockedDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return &Database{DB: gdb}, mock
}

func TestDatabase_PingContext(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
	}{
		{name: "reachable"},
		{name: "connection gone", pingErr: sql.ErrConnDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := mockedDatabase(t)
			mock.ExpectPing().WillReturnError(tt.pingErr)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			err := db.PingContext(ctx)
			if tt.pingErr != nil {
				assert.ErrorIs(t, err, tt.pingErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDatabase_InUseAndClose(t *testing.T) {
	db, mock := mockedDatabase(t)

	assert.Equal(t, 0, db.InUse())

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
