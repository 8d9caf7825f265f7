package models

import "time"

// OrgStatus is the lifecycle status of an organization.
type OrgStatus string

const (
	// OrgStatusEnabled marks an organization in use.
	OrgStatusEnabled OrgStatus = "enabled"
	// OrgStatusDisabled marks an organization kept for history only.
	OrgStatusDisabled OrgStatus = "disabled"
)

// Organization is one node of the self-referential organization hierarchy.
// A nil ParentID marks a root. Level mirrors the depth of the node and is
// recomputed whenever the node is written.
type Organization struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	ParentID    *uint     `gorm:"index" json:"parentId"`
	Level       int       `gorm:"not null;default:1" json:"level"`
	Status      OrgStatus `gorm:"type:varchar(20);not null;default:'enabled'" json:"status"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Organization model.
func (Organization) TableName() string {
	return "organizations"
}
