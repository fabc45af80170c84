package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Article struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title      string     `json:"title" gorm:"size:255;not null"`
	Slug       string     `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Excerpt    string     `json:"excerpt" gorm:"type:text"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	Status     string     `json:"status" gorm:"size:50;default:'draft'"`
	Views      int64      `json:"views" gorm:"default:0"`
	AuthorID   uuid.UUID  `json:"author_id" gorm:"type:uuid;not null;index"`
	CategoryID *uuid.UUID `json:"category_id" gorm:"type:uuid"`
	LanguageID *uuid.UUID `json:"language_id" gorm:"type:uuid"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	Author   User      `json:"author" gorm:"foreignKey:AuthorID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Language *Language `json:"language,omitempty" gorm:"foreignKey:LanguageID"`
	Tags     []Tag     `json:"tags" gorm:"many2many:article_tags"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
