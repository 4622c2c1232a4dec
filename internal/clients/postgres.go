package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andeslabs/eventos-platform/internal/conversation"
)

type dbConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores clients in the relational database.
type PostgresRepository struct {
	db dbConn
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithConn(db dbConn) *PostgresRepository {
	if db == nil {
		panic("clients: db required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new client row.
func (r *PostgresRepository) Create(ctx context.Context, client *Client) (*Client, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}

	var createdAt time.Time
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (id, first_name, last_name, email, phone, status, source,
			event_type, event_date, budget, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, client.ID, client.FirstName, client.LastName, client.Email, client.Phone,
		client.Status, client.Source, client.EventType, client.EventDate,
		client.Budget, client.Notes).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("clients: insert failed: %w", err)
	}

	out := *client
	out.CreatedAt = createdAt
	out.UpdatedAt = createdAt
	return &out, nil
}

// GetByID fetches a client.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone, status, source,
			event_type, event_date, budget, notes, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)

	var c Client
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Status,
		&c.Source, &c.EventType, &c.EventDate, &c.Budget, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clients: select failed: %w", err)
	}
	return &c, nil
}

// ListByStatus returns clients in a funnel stage, newest first. An empty
// status matches every stage.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status, limit int) ([]*Client, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, first_name, last_name, email, phone, status, source,
			event_type, event_date, budget, notes, created_at, updated_at
		FROM clients
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("clients: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
			&c.Status, &c.Source, &c.EventType, &c.EventDate, &c.Budget, &c.Notes,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("clients: list scan failed: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// PostgresConverter runs the conversion bridge as a single transaction:
// client insert plus conversation close/link commit together or not at all,
// so a failed conversion never leaves a client without its closed
// conversation (or vice versa).
type PostgresConverter struct {
	db dbConn
}

// NewPostgresConverter builds a converter on the shared pgx pool.
func NewPostgresConverter(pool *pgxpool.Pool) *PostgresConverter {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &PostgresConverter{db: pool}
}

func newPostgresConverterWithConn(db dbConn) *PostgresConverter {
	return &PostgresConverter{db: db}
}

var _ Converter = (*PostgresConverter)(nil)

// Convert materializes the conversation into a client and closes it.
func (c *PostgresConverter) Convert(ctx context.Context, conversationID uuid.UUID, o Overrides) (*Client, error) {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("clients: begin convert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var conv conversation.Conversation
	err = tx.QueryRow(ctx, `
		SELECT id, platform, platform_user_id, contact_phone, status,
			name, email, event_type, event_date, budget
		FROM conversations
		WHERE id = $1
		FOR UPDATE
	`, conversationID).Scan(&conv.ID, &conv.Platform, &conv.PlatformUserID,
		&conv.ContactPhone, &conv.Status, &conv.LeadData.Name, &conv.LeadData.Email,
		&conv.LeadData.EventType, &conv.LeadData.EventDate, &conv.LeadData.Budget)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clients: load conversation: %w", err)
	}
	if conv.Status != conversation.StatusActive {
		return nil, ErrConversationNotActive
	}

	client, err := BuildFromConversation(&conv, o)
	if err != nil {
		return nil, err
	}

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO clients (id, first_name, last_name, email, phone, status, source,
			event_type, event_date, budget, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, client.ID, client.FirstName, client.LastName, client.Email, client.Phone,
		client.Status, client.Source, client.EventType, client.EventDate,
		client.Budget, client.Notes).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("clients: insert client: %w", err)
	}
	client.CreatedAt = createdAt
	client.UpdatedAt = createdAt

	// Close without touching follow-up state; operators still see pending
	// follow-ups on converted conversations.
	_, err = tx.Exec(ctx, `
		UPDATE conversations SET client_id = $1, status = $2, updated_at = $3
		WHERE id = $4
	`, client.ID, conversation.StatusClosed, time.Now(), conversationID)
	if err != nil {
		return nil, fmt.Errorf("clients: close conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("clients: commit convert: %w", err)
	}
	return client, nil
}
