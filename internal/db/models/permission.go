package models

import "time"

// Permission is the persisted copy of one registry entry. Rows are synchronised
// from the permission registry at startup and are never edited through the API.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// Code is the permission code in module:action form (e.g. "price:edit").
	Code string `gorm:"unique;size:100;not null" json:"code"`
	// Name is a short human-readable label.
	Name string `gorm:"size:100;not null" json:"name"`
	// Description explains what the permission grants.
	Description string `gorm:"size:255" json:"description"`
	// Module groups permissions for display (e.g. "price", "org").
	Module string `gorm:"size:50;not null;index" json:"module"`
	// Enabled is false for codes that were dropped from the registry.
	Enabled bool `gorm:"not null" json:"enabled"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
