package model

import "time"

// Document is an ingested file. Text may be empty when extraction is unsupported or fails.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"size:256;not null;index" json:"filename"`
	StoredName string    `gorm:"size:256;not null" json:"stored_name"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	Text       string    `gorm:"type:longtext" json:"text"`
	UploadedAt time.Time `gorm:"not null;index" json:"uploaded_at"`
}
