// Package catalog provides CRUD operations for service types and services.
package catalog

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNameEmpty is returned when a service type or service has no name.
	ErrNameEmpty = errors.New("name cannot be empty")
	// ErrServiceTypeNotFound is returned when a service type is not found.
	ErrServiceTypeNotFound = errors.New("service type not found")
	// ErrServiceTypeExists is returned when a service type name is taken.
	ErrServiceTypeExists = errors.New("service type already exists")
	// ErrServiceTypeInUse is returned when deleting a service type that still has services.
	ErrServiceTypeInUse = errors.New("service type has services")
	// ErrServiceNotFound is returned when a service is not found.
	ErrServiceNotFound = errors.New("service not found")
	// ErrServiceInUse is returned when deleting a service that still has prices.
	ErrServiceInUse = errors.New("service has prices")
)

// ListServiceTypes returns every service type ordered by id.
func ListServiceTypes(db *gorm.DB) ([]models.ServiceType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var out []models.ServiceType
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// GetServiceType retrieves a service type by id.
func GetServiceType(db *gorm.DB, id uint) (*models.ServiceType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var st models.ServiceType
	if err := db.First(&st, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceTypeNotFound
		}

		return nil, err
	}

	return &st, nil
}

// CreateServiceType inserts a service type with a unique name.
func CreateServiceType(db *gorm.DB, st *models.ServiceType) error {
	if db == nil {
		return ErrDBNil
	}

	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return ErrNameEmpty
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := uniqueTypeName(tx, st.Name, 0); err != nil {
			return err
		}

		st.ID = 0

		return tx.Create(st).Error
	})
}

// UpdateServiceType changes the editable fields of a service type.
func UpdateServiceType(db *gorm.DB, id uint, in models.ServiceType) (*models.ServiceType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	var out *models.ServiceType

	err := db.Transaction(func(tx *gorm.DB) error {
		st, err := GetServiceType(tx, id)
		if err != nil {
			return err
		}

		if err = uniqueTypeName(tx, name, id); err != nil {
			return err
		}

		st.Name, st.Description, st.Enabled = name, in.Description, in.Enabled

		if err = tx.Model(st).Select("Name", "Description", "Enabled").Updates(st).Error; err != nil {
			return err
		}

		out = st

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteServiceType removes a service type that has no services.
func DeleteServiceType(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetServiceType(tx, id); err != nil {
			return err
		}

		var services int64
		if err := tx.Model(&models.Service{}).Where("service_type_id = ?", id).Count(&services).Error; err != nil {
			return err
		}

		if services > 0 {
			return ErrServiceTypeInUse
		}

		return tx.Delete(&models.ServiceType{}, id).Error
	})
}

// ListServices returns services, optionally restricted to one service type.
func ListServices(db *gorm.DB, serviceTypeID uint) ([]models.Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	tx := db.Preload("ServiceType").Order("id")
	if serviceTypeID > 0 {
		tx = tx.Where("service_type_id = ?", serviceTypeID)
	}

	var out []models.Service
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// GetService retrieves a service and its type by id.
func GetService(db *gorm.DB, id uint) (*models.Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var s models.Service
	if err := db.Preload("ServiceType").First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}

		return nil, err
	}

	return &s, nil
}

// CreateService inserts a service below an existing service type.
func CreateService(db *gorm.DB, s *models.Service) error {
	if db == nil {
		return ErrDBNil
	}

	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return ErrNameEmpty
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetServiceType(tx, s.ServiceTypeID); err != nil {
			return err
		}

		s.ID = 0
		s.ServiceType = nil

		return tx.Create(s).Error
	})
}

// UpdateService changes the editable fields of a service.
func UpdateService(db *gorm.DB, id uint, in models.Service) (*models.Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	var out *models.Service

	err := db.Transaction(func(tx *gorm.DB) error {
		s, err := GetService(tx, id)
		if err != nil {
			return err
		}

		if _, err = GetServiceType(tx, in.ServiceTypeID); err != nil {
			return err
		}

		s.Name, s.Description, s.Enabled, s.ServiceTypeID = name, in.Description, in.Enabled, in.ServiceTypeID
		s.ServiceType = nil

		if err = tx.Model(s).Select("Name", "Description", "Enabled", "ServiceTypeID").Updates(s).Error; err != nil {
			return err
		}

		out, err = GetService(tx, id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteService removes a service that has no prices.
func DeleteService(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetService(tx, id); err != nil {
			return err
		}

		var prices int64
		if err := tx.Model(&models.Price{}).Where("service_id = ?", id).Count(&prices).Error; err != nil {
			return err
		}

		if prices > 0 {
			return ErrServiceInUse
		}

		return tx.Delete(&models.Service{}, id).Error
	})
}

func uniqueTypeName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.ServiceType{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrServiceTypeExists
	}

	return nil
}
