package data

import (
	"time"
)

// Movie represents the movies table
type Movie struct {
	ID          uint     `gorm:"primaryKey"`
	Title       string   `gorm:"uniqueIndex;not null;size:250"`
	Year        int      `gorm:"not null"`
	Description string   `gorm:"not null;size:250"`
	Rating      *float64 `gorm:"index:idx_movies_rating"`
	Ranking     *int
	Review      *string `gorm:"size:1000"`
	ImgURL      string  `gorm:"column:img_url;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}
