// Package price provides CRUD operations for price records. A price belongs
// to exactly one organization and one service.
package price

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/models"
)

const (
	// DefaultPageSize is used when a query does not set one.
	DefaultPageSize = 25
	// MaxPageSize caps the page size of a query.
	MaxPageSize = 100
	// MaxPage caps the page number so the row offset stays within 32 bits.
	MaxPage = math.MaxInt32 / MaxPageSize
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrPriceNotFound is returned when a price is not found.
	ErrPriceNotFound = errors.New("price not found")
	// ErrInvalidAmount is returned when the amount is not a non-negative decimal.
	ErrInvalidAmount = errors.New("amount must be a non-negative decimal")
	// ErrInvalidValidity is returned when ValidTo is before ValidFrom.
	ErrInvalidValidity = errors.New("validity end precedes validity start")
	// ErrUnknownOrganization is returned when the owning organization does not exist.
	ErrUnknownOrganization = errors.New("unknown organization")
	// ErrUnknownService is returned when the priced service does not exist.
	ErrUnknownService = errors.New("unknown service")
)

var amountPattern = regexp.MustCompile(`^\d{1,15}(\.\d{1,6})?$`)

// Query selects a page of prices. When Scoped is set only prices owned by the
// listed organizations are returned.
type Query struct {
	Scoped          bool
	OrganizationIDs []uint
	ServiceID       uint
	Newest          bool // order by id descending
	Page            int
	PageSize        int
}

// List returns a page of prices and the total match count.
func List(db *gorm.DB, q Query) ([]models.Price, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	if q.Page < 1 {
		q.Page = 1
	}

	if q.Page > MaxPage {
		q.Page = MaxPage
	}

	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		q.PageSize = DefaultPageSize
	}

	tx := db.Model(&models.Price{})

	if q.Scoped {
		if len(q.OrganizationIDs) == 0 {
			return []models.Price{}, 0, nil
		}

		tx = tx.Where("organization_id IN ?", q.OrganizationIDs)
	}

	if q.ServiceID > 0 {
		tx = tx.Where("service_id = ?", q.ServiceID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "id"
	if q.Newest {
		order = "id DESC"
	}

	var out []models.Price
	if err := tx.Preload("Service").Order(order).Limit(q.PageSize).Offset((q.Page - 1) * q.PageSize).Find(&out).Error; err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// Get retrieves a price by id.
func Get(db *gorm.DB, id uint) (*models.Price, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Price
	if err := db.Preload("Service").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPriceNotFound
		}

		return nil, err
	}

	return &p, nil
}

// Create inserts a price record.
func Create(db *gorm.DB, p *models.Price) error {
	if db == nil {
		return ErrDBNil
	}

	if err := normalize(p); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, p); err != nil {
			return err
		}

		p.ID = 0

		return tx.Create(p).Error
	})
}

// Update replaces the editable fields of a price record.
func Update(db *gorm.DB, id uint, in models.Price) (*models.Price, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := normalize(&in); err != nil {
		return nil, err
	}

	var out *models.Price

	err := db.Transaction(func(tx *gorm.DB) error {
		p, err := Get(tx, id)
		if err != nil {
			return err
		}

		if err = checkRefs(tx, &in); err != nil {
			return err
		}

		p.OrganizationID = in.OrganizationID
		p.ServiceID = in.ServiceID
		p.Amount = in.Amount
		p.Currency = in.Currency
		p.ValidFrom = in.ValidFrom
		p.ValidTo = in.ValidTo
		p.Remark = in.Remark
		p.Service = nil

		err = tx.Model(p).
			Select("OrganizationID", "ServiceID", "Amount", "Currency", "ValidFrom", "ValidTo", "Remark").
			Updates(p).Error
		if err != nil {
			return err
		}

		out, err = Get(tx, id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Delete removes a price record.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.Price{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrPriceNotFound
	}

	return nil
}

func normalize(p *models.Price) error {
	p.Amount = strings.TrimSpace(p.Amount)
	if !amountPattern.MatchString(p.Amount) {
		return ErrInvalidAmount
	}

	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))

	if p.ValidTo != nil && p.ValidTo.Before(p.ValidFrom) {
		return ErrInvalidValidity
	}

	return nil
}

func checkRefs(tx *gorm.DB, p *models.Price) error {
	var count int64
	if err := tx.Model(&models.Organization{}).Where("id = ?", p.OrganizationID).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return ErrUnknownOrganization
	}

	if err := tx.Model(&models.Service{}).Where("id = ?", p.ServiceID).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return ErrUnknownService
	}

	return nil
}
