package models

import (
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength caps the free-text description of an emotion event.
const MaxDescriptionLength = 500

// EmotionTypes is the fixed label set a shared emotion must belong to.
var EmotionTypes = []string{"happy", "loved", "calm", "excited", "sad", "anxious"}

// ValidEmotionType reports whether t is one of the fixed emotion labels.
func ValidEmotionType(t string) bool {
	for _, known := range EmotionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ValidDescription reports whether d is a non-empty description within the cap.
func ValidDescription(d string) bool {
	return d != "" && utf8.RuneCountInString(d) <= MaxDescriptionLength
}

// User represents a user in the system. Everything except the username is
// immutable after registration.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	UniqueCode string    `json:"unique_code"`
	PushToken  *string   `json:"push_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Partnership links two users. Member ids are stored in lexicographic order
// so the pairing is symmetric.
type Partnership struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PartnerOf returns the other member of the partnership, or "" when userID
// is not a member.
func (p *Partnership) PartnerOf(userID string) string {
	switch userID {
	case p.UserAID:
		return p.UserBID
	case p.UserBID:
		return p.UserAID
	}
	return ""
}

// EmotionEvent is a single emotion check-in shared within a partnership.
// Immutable once created; feeds display events by created_at descending.
type EmotionEvent struct {
	ID            string    `json:"id"`
	PartnershipID string    `json:"partnership_id"`
	SharedByID    string    `json:"shared_by_id"`
	SharedByName  string    `json:"shared_by_name"`
	EmotionType   string    `json:"emotion_type"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}
