package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventRepository_ClaimTickets(t *testing.T) {
	eventID := uuid.New()

	tests := []struct {
		name     string
		quantity int
		affected int64
		want     bool
	}{
		{name: "capacity left", quantity: 2, affected: 1, want: true},
		{name: "would oversell", quantity: 5, affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectExec(sqlLike(
				"UPDATE events SET tickets_sold = tickets_sold + $2, updated_at = NOW() WHERE id = $1 AND tickets_sold + $2 <= capacity",
			)).
				WithArgs(eventID, tt.quantity).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			repo := NewEventRepository(mock, zap.NewNop())
			got, err := repo.ClaimTickets(context.Background(), eventID, tt.quantity)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_ReleaseTicketsNeverGoesNegative(t *testing.T) {
	eventID := uuid.New()
	mock := newMockPool(t)
	mock.ExpectExec(sqlLike("SET tickets_sold = GREATEST(tickets_sold - $2, 0)", "WHERE id = $1")).
		WithArgs(eventID, 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewEventRepository(mock, zap.NewNop()).ReleaseTickets(context.Background(), eventID, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
