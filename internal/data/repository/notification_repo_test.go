package repository

import (
	"context"
	"testing"

	"marketplace-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotificationRepository_Claim(t *testing.T) {
	bookingID := uuid.New()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "first claim", affected: 1, want: true},
		{name: "already claimed", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectExec(sqlLike(
				"INSERT INTO booking_notifications (booking_id, kind, created_at) VALUES ($1, $2, NOW())",
				"ON CONFLICT (booking_id, kind) DO NOTHING",
			)).
				WithArgs(bookingID, entity.NotificationConfirmationEmail).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))

			repo := NewNotificationRepository(mock, zap.NewNop())
			got, err := repo.Claim(context.Background(), bookingID, entity.NotificationConfirmationEmail)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNotificationRepository_Release(t *testing.T) {
	bookingID := uuid.New()
	mock := newMockPool(t)
	mock.ExpectExec(sqlLike("DELETE FROM booking_notifications WHERE booking_id = $1 AND kind = $2")).
		WithArgs(bookingID, entity.NotificationConfirmationEmail).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, NewNotificationRepository(mock, zap.NewNop()).Release(context.Background(), bookingID, entity.NotificationConfirmationEmail))
	assert.NoError(t, mock.ExpectationsWereMet())
}
