package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TranscriptMessage is one turn of a saved chat.
type TranscriptMessage struct {
	Role      string     `json:"role"                 binding:"required,max=20"`
	Content   string     `json:"content"              binding:"required,min=1,max=4000"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// TranscriptMessages stores a chat as a JSON array column.
type TranscriptMessages []TranscriptMessage

func (m TranscriptMessages) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]TranscriptMessage(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *TranscriptMessages) Scan(value interface{}) error {
	if m == nil {
		return fmt.Errorf("models.TranscriptMessages: Scan on nil pointer")
	}
	if value == nil {
		*m = TranscriptMessages{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.TranscriptMessages: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*m = TranscriptMessages{}
		return nil
	}

	var out []TranscriptMessage
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fmt.Errorf("models.TranscriptMessages: %w", err)
	}
	*m = out
	return nil
}

// ChatTranscriptModel is a chat conversation a user chose to keep.
type ChatTranscriptModel struct {
	Base
	UserID   string             `json:"user_id"  gorm:"type:char(36);index;not null"`
	Title    string             `json:"title"    gorm:"size:120;not null"`
	Messages TranscriptMessages `json:"messages" gorm:"type:longtext"`

	User *UserModel `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (ChatTranscriptModel) TableName() string { return "chat_transcripts" }
