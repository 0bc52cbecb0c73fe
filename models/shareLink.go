package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ShareLink grants an unauthenticated, token-scoped view of one document.
// It lives in the public schema so a bare token can be resolved to its
// tenant; the document itself stays in the tenant schema.
type ShareLink struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Token        string       `json:"token" gorm:"size:64;uniqueIndex;not null"`
	DocumentType DocumentKind `json:"document_type" gorm:"type:VARCHAR(20);not null"`
	DocumentID   uint         `json:"document_id" gorm:"not null"`
	TenantSchema string       `json:"-" gorm:"size:64;not null"`
	HasPassword  bool         `json:"has_password"`
	PasswordHash []byte       `json:"-"`
	Active       bool         `json:"active" gorm:"default:true"`

	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

func (link *ShareLink) BeforeCreate(tx *gorm.DB) (err error) {
	// Two UUIDv4s worth of entropy, hyphens stripped.
	link.Token = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return
}

func (link *ShareLink) SetPassword(password string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), 12)
	link.PasswordHash = hashedPassword
	link.HasPassword = true
}

func (link *ShareLink) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(link.PasswordHash, []byte(password))
}
