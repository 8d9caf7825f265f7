package auth

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/models"
)

// Authenticator chains the configured login sources. Local accounts are tried
// first; a username unknown locally falls through to the directory.
type Authenticator struct {
	local *LocalProvider
	ldap  *LDAPProvider
}

// NewAuthenticator builds the login chain from cfg.
func NewAuthenticator(cfg *config.Auth, db *gorm.DB) (*Authenticator, error) {
	a := &Authenticator{}

	if cfg.LocalDB {
		a.local = NewLocalProvider(db)
	}

	if cfg.LDAP.Enabled {
		provider, err := NewLDAPProvider(&cfg.LDAP, db)
		if err != nil {
			return nil, err
		}

		// an unreachable directory does not block local logins
		if errProbe := provider.TestConnection(); errProbe != nil {
			log.Warn().Err(errProbe).Str("host", cfg.LDAP.Host).Msg("ldap directory not reachable")
		}

		a.ldap = provider
	}

	if a.local == nil && a.ldap == nil {
		return nil, config.ErrNoLoginSource
	}

	return a, nil
}

// Local returns the local provider, nil when local accounts are disabled.
func (a *Authenticator) Local() *LocalProvider {
	return a.local
}

// Login authenticates username with password.
func (a *Authenticator) Login(username, password string) (*models.User, error) {
	if a.local != nil {
		user, err := a.local.Authenticate(username, password)
		if !errors.Is(err, ErrUserNotFound) || a.ldap == nil {
			return user, err
		}
	}

	if a.ldap == nil {
		return nil, ErrLocalLoginDisabled
	}

	return a.ldap.Authenticate(username, password)
}
