package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform identifies the messaging channel a conversation arrived on.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWhatsApp, PlatformFacebook, PlatformInstagram:
		return true
	}
	return false
}

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
	StatusArchived Status = "archived"
)

// ValidTransition reports whether a status change is allowed.
// archived is terminal; closed can only move to archived.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusClosed || to == StatusArchived
	case StatusClosed:
		return to == StatusArchived
	}
	return false
}

// Sender identifies who authored a message.
type Sender string

const (
	SenderBot    Sender = "bot"
	SenderClient Sender = "client"
	SenderAgent  Sender = "agent"
)

// LeadQuality is the stored hot/warm/cold tag. It is set directly by the
// capture flow (hot on budget capture) and is distinct from the display
// completeness score computed by the leads package.
type LeadQuality string

const (
	QualityHot  LeadQuality = "hot"
	QualityWarm LeadQuality = "warm"
	QualityCold LeadQuality = "cold"
)

// Message is a single entry in a conversation's append-only log.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	MediaURL  string    `json:"media_url,omitempty"`
	Delivered bool      `json:"delivered"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadData holds the captured-data slots the bot extracts from free text.
// Date and budget are kept as the raw matched text, not parsed values.
type LeadData struct {
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	EventType  string   `json:"event_type,omitempty"`
	EventDate  string   `json:"event_date,omitempty"`
	GuestCount int      `json:"guest_count,omitempty"`
	Budget     string   `json:"budget,omitempty"`
	Location   string   `json:"location,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

// Empty reports whether no slot carries a value.
func (d LeadData) Empty() bool {
	return d.Name == "" && d.Email == "" && d.EventType == "" && d.EventDate == "" &&
		d.GuestCount == 0 && d.Budget == "" && d.Location == "" && len(d.Interests) == 0
}

// Merge applies updates to d with write-once semantics: a slot that already
// has a value is never overwritten. Interests are appended (deduplicated).
// Returns the merged result; d is not modified.
func (d LeadData) Merge(updates LeadData) LeadData {
	out := d
	if out.Name == "" {
		out.Name = strings.TrimSpace(updates.Name)
	}
	if out.Email == "" {
		out.Email = strings.TrimSpace(updates.Email)
	}
	if out.EventType == "" {
		out.EventType = updates.EventType
	}
	if out.EventDate == "" {
		out.EventDate = updates.EventDate
	}
	if out.GuestCount == 0 {
		out.GuestCount = updates.GuestCount
	}
	if out.Budget == "" {
		out.Budget = updates.Budget
	}
	if out.Location == "" {
		out.Location = updates.Location
	}
	for _, interest := range updates.Interests {
		interest = strings.TrimSpace(interest)
		if interest == "" {
			continue
		}
		seen := false
		for _, existing := range out.Interests {
			if strings.EqualFold(existing, interest) {
				seen = true
				break
			}
		}
		if !seen {
			out.Interests = append(out.Interests, interest)
		}
	}
	return out
}

// Conversation is a chat thread with one external contact.
type Conversation struct {
	ID               uuid.UUID   `json:"id"`
	Platform         Platform    `json:"platform"`
	PlatformUserID   string      `json:"platform_user_id"`
	ContactPhone     string      `json:"contact_phone,omitempty"`
	Status           Status      `json:"status"`
	Intent           string      `json:"intent,omitempty"`
	LeadData         LeadData    `json:"lead_data"`
	LeadQuality      LeadQuality `json:"lead_quality"`
	FollowUpRequired bool        `json:"follow_up_required"`
	FollowUpAt       *time.Time  `json:"follow_up_at,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	AssignedTo       string      `json:"assigned_to,omitempty"`
	ClientID         *uuid.UUID  `json:"client_id,omitempty"`
	MessageCount     int         `json:"message_count"`
	LastMessageAt    *time.Time  `json:"last_message_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
