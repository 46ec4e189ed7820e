// model.go this code defines the data model for the application
package datastore

import "time"

// User represents an authenticated account. Authentication itself happens
// upstream, the API layer hands over an external subject id.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Subject   string `gorm:"uniqueIndex;not null"` // external identity-provider subject
	Email     string `gorm:"uniqueIndex"`
	Name      string
	Picture   string
	CreatedAt time.Time
	LastLogin time.Time

	Analyses []Analysis `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // cascade delete with the user
}

// Analysis is the sole durable owner of one request's derived data: the
// reconciled timeline, both metric sets and the coaching feedback.
// Immutable after creation except for being read back.
type Analysis struct {
	ID       uint   `gorm:"primaryKey"`
	PublicID string `gorm:"uniqueIndex;not null"` // UUID handed to API clients
	UserID   uint   `gorm:"index;not null"`

	// Metadata
	Filename string
	Duration float64

	// Quick-access scalar metrics for listings
	DominantEmotion string `gorm:"index"`
	AvgWPS          float64
	ClarityScore    float64
	TotalWords      int

	// Full derived data, serialized JSON
	Timeline       []byte `gorm:"type:json"`
	EmotionMetrics []byte `gorm:"type:json"`
	ClarityMetrics []byte `gorm:"type:json"`
	Feedback       []byte `gorm:"type:json"`

	CreatedAt time.Time `gorm:"index"`
}
