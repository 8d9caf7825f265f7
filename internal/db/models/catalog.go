package models

import "time"

// ServiceType groups services of the catalog (e.g. "air freight").
type ServiceType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;size:100;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Enabled     bool      `gorm:"not null" json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the ServiceType model.
func (ServiceType) TableName() string {
	return "service_types"
}

// Service is a quotable service belonging to one service type.
type Service struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ServiceTypeID uint         `gorm:"not null;index" json:"serviceTypeId"`
	ServiceType   *ServiceType `gorm:"constraint:OnDelete:RESTRICT" json:"serviceType,omitempty"`
	Name          string       `gorm:"size:100;not null" json:"name"`
	Description   string       `gorm:"size:255" json:"description"`
	Enabled       bool         `gorm:"not null" json:"enabled"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// TableName specifies the database table name for the Service model.
func (Service) TableName() string {
	return "services"
}

// Price is a price record owned by an organization for a service. Amount is
// kept as a decimal string.
type Price struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrganizationID uint       `gorm:"not null;index" json:"organizationId"`
	ServiceID      uint       `gorm:"not null;index" json:"serviceId"`
	Service        *Service   `gorm:"constraint:OnDelete:RESTRICT" json:"service,omitempty"`
	Amount         string     `gorm:"size:32;not null" json:"amount"`
	Currency       string     `gorm:"size:3;not null" json:"currency"`
	ValidFrom      time.Time  `gorm:"not null" json:"validFrom"`
	ValidTo        *time.Time `json:"validTo"`
	Remark         string     `gorm:"size:255" json:"remark"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TableName specifies the database table name for the Price model.
func (Price) TableName() string {
	return "prices"
}
