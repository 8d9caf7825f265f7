// Package permissions keeps the permissions table in line with the registry.
package permissions

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// SyncResult counts the rows touched by Sync.
type SyncResult struct {
	Created  int
	Updated  int
	Disabled int
}

// Sync upserts one row per registry entry and disables rows whose code is no
// longer registered. Role assignments of disabled rows are kept but grant
// nothing, since the registry rejects their codes.
func Sync(db *gorm.DB, reg *permission.Registry) (SyncResult, error) {
	var res SyncResult

	if db == nil {
		return res, ErrDBNil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var rows []models.Permission
		if err := tx.Find(&rows).Error; err != nil {
			return err
		}

		byCode := make(map[string]*models.Permission, len(rows))
		for i := range rows {
			byCode[rows[i].Code] = &rows[i]
		}

		for _, e := range reg.Entries() {
			row, ok := byCode[string(e.Code)]
			if !ok {
				p := models.Permission{
					Code:        string(e.Code),
					Name:        e.Name,
					Description: e.Description,
					Module:      e.Module,
					Enabled:     true,
				}
				if err := tx.Create(&p).Error; err != nil {
					return err
				}

				res.Created++

				continue
			}

			delete(byCode, row.Code)

			if row.Name == e.Name && row.Description == e.Description && row.Module == e.Module && row.Enabled {
				continue
			}

			row.Name, row.Description, row.Module, row.Enabled = e.Name, e.Description, e.Module, true
			if err := tx.Save(row).Error; err != nil {
				return err
			}

			res.Updated++
		}

		for _, stale := range byCode {
			if !stale.Enabled {
				continue
			}

			log.Warn().Str("code", stale.Code).Msg("permission no longer registered, disabling")

			if err := tx.Model(stale).Update("enabled", false).Error; err != nil {
				return err
			}

			res.Disabled++
		}

		return nil
	})

	return res, err
}

// List returns the enabled permission rows, optionally restricted to modules.
func List(db *gorm.DB, modules ...string) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Where("enabled = ?", true)
	if len(modules) > 0 {
		q = q.Where("module IN ?", modules)
	}

	var rows []models.Permission
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
