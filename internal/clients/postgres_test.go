package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andeslabs/eventos-platform/internal/conversation"
)

var convertSelectColumns = []string{
	"id", "platform", "platform_user_id", "contact_phone", "status",
	"name", "email", "event_type", "event_date", "budget",
}

func convertRow(id uuid.UUID, status conversation.Status) *pgxmock.Rows {
	return pgxmock.NewRows(convertSelectColumns).AddRow(
		id, conversation.PlatformWhatsApp, "51987654321", "51987654321", status,
		"Ana López", "ana@example.pe", "Boda", "15 de junio", "s/ 20000",
	)
}

func TestPostgresConverterConvert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	converter := newPostgresConverterWithConn(mock)
	convID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs(convID).
		WillReturnRows(convertRow(convID, conversation.StatusActive))
	mock.ExpectQuery("INSERT INTO clients").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec("UPDATE conversations").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	client, err := converter.Convert(context.Background(), convID, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "Ana", client.FirstName)
	assert.Equal(t, "López", client.LastName)
	assert.Equal(t, StatusInterested, client.Status)
	assert.Equal(t, now, client.CreatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConverterConversationNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	converter := newPostgresConverterWithConn(mock)
	convID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs(convID).
		WillReturnRows(pgxmock.NewRows(convertSelectColumns))
	mock.ExpectRollback()

	_, err = converter.Convert(context.Background(), convID, Overrides{})
	assert.ErrorIs(t, err, ErrConversationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConverterRejectsClosedConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	converter := newPostgresConverterWithConn(mock)
	convID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs(convID).
		WillReturnRows(convertRow(convID, conversation.StatusClosed))
	mock.ExpectRollback()

	_, err = converter.Convert(context.Background(), convID, Overrides{})
	assert.ErrorIs(t, err, ErrConversationNotActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

// An insert failure rolls the whole transaction back; the conversation close
// never reaches the database.
func TestPostgresConverterRollsBackOnInsertFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	converter := newPostgresConverterWithConn(mock)
	convID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs(convID).
		WillReturnRows(convertRow(convID, conversation.StatusActive))
	mock.ExpectQuery("INSERT INTO clients").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = converter.Convert(context.Background(), convID, Overrides{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithConn(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO clients").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	created, err := repo.Create(context.Background(), &Client{
		FirstName: "Ana",
		Email:     "ana@example.pe",
		Status:    StatusInterested,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, now, created.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryCreateValidates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithConn(mock)

	_, err = repo.Create(context.Background(), &Client{Email: "ana@example.pe"})
	assert.ErrorIs(t, err, ErrMissingName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithConn(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM clients").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrClientNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
