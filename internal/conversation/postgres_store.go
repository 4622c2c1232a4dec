package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore persists conversations and messages to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a conversation store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		panic("conversation: db required")
	}
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

const conversationColumns = `id, platform, platform_user_id, contact_phone, status, intent,
	name, email, event_type, event_date, guest_count, budget, location, interests,
	lead_quality, follow_up_required, follow_up_at, notes, assigned_to, client_id,
	message_count, last_message_at, created_at, updated_at`

// FindOrCreate returns the active conversation for the address or inserts a
// new one. A partial unique index on (platform, platform_user_id) for active
// rows makes lookup-then-create safe under concurrent inbound messages: the
// loser of the insert race retries the lookup.
func (s *PostgresStore) FindOrCreate(ctx context.Context, platform Platform, platformUserID string) (*Conversation, error) {
	if !platform.Valid() {
		return nil, ErrInvalidPlatform
	}
	if platformUserID == "" {
		return nil, ErrMissingPlatformUser
	}

	conv, err := s.findActive(ctx, platform, platformUserID)
	if err == nil {
		return conv, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("conversation: lookup failed: %w", err)
	}

	id := uuid.New()
	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, platform, platform_user_id, contact_phone, status,
			lead_quality, message_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
	`, id, platform, platformUserID, platformUserID, StatusActive, QualityWarm, now)
	if err != nil {
		// Another request created the active conversation first.
		if strings.Contains(err.Error(), "duplicate key") {
			return s.FindOrCreate(ctx, platform, platformUserID)
		}
		return nil, fmt.Errorf("conversation: create failed: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *PostgresStore) findActive(ctx context.Context, platform Platform, platformUserID string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE platform = $1 AND platform_user_id = $2 AND status = $3
	`, platform, platformUserID, StatusActive)
	return scanConversation(row)
}

// Get retrieves a conversation by id.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1
	`, id)
	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: get failed: %w", err)
	}
	return conv, nil
}

// List returns conversations matching the filter, most recently updated first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Quality != "" {
		args = append(args, filter.Quality)
		query += fmt.Sprintf(" AND lead_quality = $%d", len(args))
	}
	if filter.Assigned != "" {
		args = append(args, filter.Assigned)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	query += " ORDER BY updated_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversation: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("conversation: list scan failed: %w", err)
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

// AppendMessage inserts the message and advances the conversation counters.
func (s *PostgresStore) AppendMessage(ctx context.Context, id uuid.UUID, msg Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Type == "" {
		msg.Type = "text"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (
			id, conversation_id, sender, content, message_type, media_url,
			delivered, read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, msg.ID, id, msg.Sender, msg.Content, msg.Type, msg.MediaURL,
		msg.Delivered, msg.Read, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("conversation: insert message failed: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET
			message_count = message_count + 1,
			last_message_at = $1,
			updated_at = $1
		WHERE id = $2
	`, msg.CreatedAt, id)
	if err != nil {
		return fmt.Errorf("conversation: update counters failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Messages returns the ordered log, oldest first.
func (s *PostgresStore) Messages(ctx context.Context, id uuid.UUID, limit int) ([]Message, error) {
	query := `
		SELECT id, sender, content, message_type, COALESCE(media_url, ''),
			delivered, read, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	args := []any{id}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversation: get messages failed: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Content, &msg.Type,
			&msg.MediaURL, &msg.Delivered, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: message scan failed: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// MergeSlots fills only unset slots; existing values win. The CASE guards
// keep the write-once policy inside a single UPDATE so concurrent merges
// cannot clobber each other.
func (s *PostgresStore) MergeSlots(ctx context.Context, id uuid.UUID, updates LeadData) (LeadData, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE conversations SET
			name        = CASE WHEN name = ''        THEN $2 ELSE name END,
			email       = CASE WHEN email = ''       THEN $3 ELSE email END,
			event_type  = CASE WHEN event_type = ''  THEN $4 ELSE event_type END,
			event_date  = CASE WHEN event_date = ''  THEN $5 ELSE event_date END,
			guest_count = CASE WHEN guest_count = 0  THEN $6 ELSE guest_count END,
			budget      = CASE WHEN budget = ''      THEN $7 ELSE budget END,
			location    = CASE WHEN location = ''    THEN $8 ELSE location END,
			interests   = (SELECT ARRAY(SELECT DISTINCT unnest(interests || COALESCE($9::text[], '{}')))),
			updated_at  = $10
		WHERE id = $1
		RETURNING name, email, event_type, event_date, guest_count, budget, location, interests
	`, id, strings.TrimSpace(updates.Name), strings.TrimSpace(updates.Email),
		updates.EventType, updates.EventDate, updates.GuestCount, updates.Budget,
		updates.Location, pq.Array(updates.Interests), time.Now())

	var data LeadData
	err := row.Scan(&data.Name, &data.Email, &data.EventType, &data.EventDate,
		&data.GuestCount, &data.Budget, &data.Location, pq.Array(&data.Interests))
	if err == sql.ErrNoRows {
		return LeadData{}, ErrNotFound
	}
	if err != nil {
		return LeadData{}, fmt.Errorf("conversation: merge slots failed: %w", err)
	}
	return data, nil
}

// SetStatus applies a lifecycle transition after validating it.
func (s *PostgresStore) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ValidTransition(conv.Status, status) {
		return ErrInvalidTransition
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE conversations SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, status, time.Now(), id, conv.Status)
	if err != nil {
		return fmt.Errorf("conversation: set status failed: %w", err)
	}
	return nil
}

// SetLeadQuality tags the lead. Hot is sticky: the WHERE clause rejects any
// downgrade away from hot.
func (s *PostgresStore) SetLeadQuality(ctx context.Context, id uuid.UUID, quality LeadQuality) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET lead_quality = $1, updated_at = $2
		WHERE id = $3 AND NOT (lead_quality = $4 AND $1 <> $4)
	`, quality, time.Now(), id, QualityHot)
	if err != nil {
		return fmt.Errorf("conversation: set lead quality failed: %w", err)
	}
	return nil
}

// SetFollowUp flags the conversation for human follow-up.
func (s *PostgresStore) SetFollowUp(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET follow_up_required = TRUE, follow_up_at = $1, updated_at = $2
		WHERE id = $3
	`, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("conversation: set follow-up failed: %w", err)
	}
	return nil
}

// SetIntent records the intent classification.
func (s *PostgresStore) SetIntent(ctx context.Context, id uuid.UUID, intent string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET intent = $1, updated_at = $2 WHERE id = $3
	`, intent, time.Now(), id)
	if err != nil {
		return fmt.Errorf("conversation: set intent failed: %w", err)
	}
	return nil
}

// Assign sets the responsible operator.
func (s *PostgresStore) Assign(ctx context.Context, id uuid.UUID, operator string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET assigned_to = $1, updated_at = $2 WHERE id = $3
	`, operator, time.Now(), id)
	if err != nil {
		return fmt.Errorf("conversation: assign failed: %w", err)
	}
	return nil
}

// LinkClient associates a converted CRM client with the conversation.
func (s *PostgresStore) LinkClient(ctx context.Context, id uuid.UUID, clientID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET client_id = $1, updated_at = $2 WHERE id = $3
	`, clientID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("conversation: link client failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var conv Conversation
	var intent, notes, assignedTo, contactPhone sql.NullString
	var clientID sql.NullString
	var followUpAt, lastMessageAt sql.NullTime

	err := row.Scan(
		&conv.ID, &conv.Platform, &conv.PlatformUserID, &contactPhone, &conv.Status, &intent,
		&conv.LeadData.Name, &conv.LeadData.Email, &conv.LeadData.EventType,
		&conv.LeadData.EventDate, &conv.LeadData.GuestCount, &conv.LeadData.Budget,
		&conv.LeadData.Location, pq.Array(&conv.LeadData.Interests),
		&conv.LeadQuality, &conv.FollowUpRequired, &followUpAt, &notes, &assignedTo, &clientID,
		&conv.MessageCount, &lastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conv.ContactPhone = contactPhone.String
	conv.Intent = intent.String
	conv.Notes = notes.String
	conv.AssignedTo = assignedTo.String
	if clientID.Valid {
		if parsed, parseErr := uuid.Parse(clientID.String); parseErr == nil {
			conv.ClientID = &parsed
		}
	}
	if followUpAt.Valid {
		conv.FollowUpAt = &followUpAt.Time
	}
	if lastMessageAt.Valid {
		conv.LastMessageAt = &lastMessageAt.Time
	}
	return &conv, nil
}
