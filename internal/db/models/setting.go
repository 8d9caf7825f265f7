// Package models contains database model definitions.
package models

// Setting is a named value kept by the application itself, such as the
// bootstrap marker written by the first start.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100"`
	Value []byte
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&Setting{},
		&Permission{},
		&Role{},
		&Organization{},
		&User{},
		&ServiceType{},
		&Service{},
		&Price{},
	}
}
