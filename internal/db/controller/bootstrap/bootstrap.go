// Package bootstrap records whether the first-start seed has run.
package bootstrap

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/controller/setting"
)

const (
	// SettingKey is the key used to store the bootstrap state in the settings table.
	SettingKey = "bootstrap"
)

// State is written once the default roles, root organization and admin
// account have been created.
type State struct {
	SeededAt      time.Time `json:"seededAt"`
	AdminUsername string    `json:"adminUsername"`
	RootOrgID     uint      `json:"rootOrgId"`
}

// Load loads the bootstrap state. ok is false when the seed has not run yet.
func (s *State) Load(db *gorm.DB) (bool, error) {
	row, err := setting.Get(db, SettingKey)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, json.Unmarshal(row.Value, s)
}

// Save saves the bootstrap state.
func (s *State) Save(db *gorm.DB) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = setting.Set(db, SettingKey, data)

	return err
}
