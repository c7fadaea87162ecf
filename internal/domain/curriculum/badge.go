package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Badge (specialty) groups requirements through Requirement.BadgeID.
type Badge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Area      string    `gorm:"column:area" json:"area,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Badge) TableName() string { return "badge" }

// QuizQuestion belongs to a QUIZ requirement. CorrectIndex never leaves the server.
type QuizQuestion struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequirementID uuid.UUID      `gorm:"type:uuid;column:requirement_id;not null;index" json:"requirement_id"`
	Text          string         `gorm:"column:text;not null" json:"text"`
	Options       datatypes.JSON `gorm:"column:options;not null" json:"options"`
	CorrectIndex  int            `gorm:"column:correct_index;not null" json:"-"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }
