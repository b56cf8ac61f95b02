package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserSettings stores per-user preferences plus the API token material used
// by the mobile client to authenticate against the backend.
type UserSettings struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"uniqueIndex" json:"user_id"`
	ActiveProfileID   string         `gorm:"type:char(36);default:''" json:"active_profile_id"`
	PreferredLanguage string         `gorm:"type:varchar(10);default:'pt-BR'" json:"preferred_language"`
	AutoplayTrailers  bool           `gorm:"default:true" json:"autoplay_trailers"`
	APITokenHash      string         `gorm:"type:char(64);default:''" json:"-"`
	APITokenPrefix    string         `gorm:"type:varchar(20);default:''" json:"api_token_prefix"`
	APITokenCreatedAt *time.Time     `json:"api_token_created_at"`
	APITokenLastUsed  *time.Time     `json:"api_token_last_used_at"`
	APITokenRevokedAt *time.Time     `json:"api_token_revoked_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

var apiTokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiTokenPrefix = "cfl_"

// GetOrCreateUserSettings returns existing settings or creates defaults
func GetOrCreateUserSettings(db *gorm.DB, userID uint) (*UserSettings, error) {
	var us UserSettings
	if err := db.Where("user_id = ?", userID).First(&us).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			us = UserSettings{UserID: userID, PreferredLanguage: "pt-BR", AutoplayTrailers: true}
			if err := db.Create(&us).Error; err != nil {
				return nil, err
			}
			return &us, nil
		}
		return nil, err
	}
	return &us, nil
}

// HasActiveAPIToken reports whether the user has an active API token configured
func (us *UserSettings) HasActiveAPIToken() bool {
	return us != nil && us.APITokenHash != "" && us.APITokenRevokedAt == nil
}

// IssueAPIToken generates a new API token, persists metadata on the struct, and
// returns the raw secret. Callers must persist the struct afterwards.
func (us *UserSettings) IssueAPIToken() (string, error) {
	rawToken, prefix, hash, err := generateAPITokenMaterial()
	if err != nil {
		return "", err
	}
	now := time.Now()
	us.APITokenHash = hash
	us.APITokenPrefix = prefix
	us.APITokenCreatedAt = &now
	us.APITokenRevokedAt = nil
	us.APITokenLastUsed = nil
	return rawToken, nil
}

// RevokeAPIToken clears the stored token metadata without deleting the record.
func (us *UserSettings) RevokeAPIToken() {
	us.APITokenHash = ""
	us.APITokenPrefix = ""
	now := time.Now()
	us.APITokenRevokedAt = &now
	us.APITokenLastUsed = nil
}

// TouchAPITokenUsage updates the last-used timestamp metadata.
func (us *UserSettings) TouchAPITokenUsage() {
	now := time.Now()
	us.APITokenLastUsed = &now
}

// HashAPIToken returns the SHA-256 hash for the provided API token.
func HashAPIToken(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateAPITokenMaterial() (string, string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	encoded := strings.ToLower(apiTokenEncoding.EncodeToString(b))
	rawToken := apiTokenPrefix + encoded
	if len(rawToken) < 12 {
		return "", "", "", fmt.Errorf("api token generation failed: token too short")
	}
	prefix := rawToken[:min(len(rawToken), 16)]
	hash := HashAPIToken(rawToken)
	return rawToken, prefix, hash, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
