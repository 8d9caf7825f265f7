package auth

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/models"
)

// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
var ErrLDAPDisabled = errors.New("ldap authentication is disabled")

// LDAPProvider handles LDAP authentication. Directory users are mirrored into
// the users table and their roles follow the configured group mapping.
type LDAPProvider struct {
	config *config.LDAP
	db     *gorm.DB
}

// NewLDAPProvider creates a new LDAP provider and fills attribute defaults.
func NewLDAPProvider(cfg *config.LDAP, db *gorm.DB) (*LDAPProvider, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	c := *cfg

	if c.UsernameAttr == "" {
		c.UsernameAttr = "uid"
	}

	if c.EmailAttr == "" {
		c.EmailAttr = "mail"
	}

	if c.RealNameAttr == "" {
		c.RealNameAttr = "cn"
	}

	if c.Timeout == 0 {
		c.Timeout = 10
	}

	return &LDAPProvider{
		config: &c,
		db:     db,
	}, nil
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))

	ldapURL := "ldap://" + hostPort
	if p.config.UseSSL {
		ldapURL = "ldaps://" + hostPort
	}

	var tlsConfig *tls.Config
	if p.config.UseSSL || p.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         p.config.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if !p.config.UseSSL && p.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(p.config.Timeout) * time.Second)

	return conn, nil
}

// Authenticate binds as the user, mirrors the entry into the users table and
// replaces the user's roles with those mapped from its directory groups.
func (p *LDAPProvider) Authenticate(username, password string) (*models.User, error) {
	if password == "" {
		// an empty password would be an unauthenticated bind
		return nil, ErrInvalidPassword
	}

	conn, err := p.Connect()
	if err != nil {
		return nil, err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if err = p.bindService(conn); err != nil {
		return nil, err
	}

	entry, err := p.searchUserEntry(conn, username)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(entry.DN, password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}

	if err = p.bindService(conn); err != nil {
		return nil, err
	}

	groups, err := p.userGroups(conn, entry.DN)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	return p.upsertUser(
		username,
		entry.DN,
		entry.GetAttributeValue(p.config.EmailAttr),
		entry.GetAttributeValue(p.config.RealNameAttr),
		MapGroupsToRoles(groups, p.config),
	)
}

func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.config.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

func (p *LDAPProvider) attributes() []string {
	return []string{p.config.UsernameAttr, p.config.EmailAttr, p.config.RealNameAttr, "dn"}
}

func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	filter := strings.ReplaceAll(p.config.UserFilter, "{username}", ldap.EscapeFilter(username))
	searchRequest := ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.Timeout,
		false,
		filter,
		p.attributes(),
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

func (p *LDAPProvider) userGroups(conn *ldap.Conn, userDN string) ([]string, error) {
	if p.config.GroupBaseDN == "" {
		return nil, nil
	}

	filter := strings.ReplaceAll(p.config.GroupFilter, "{userdn}", ldap.EscapeFilter(userDN))
	searchRequest := ldap.NewSearchRequest(
		p.config.GroupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.Timeout,
		false,
		filter,
		[]string{"dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for groups: %w", err)
	}

	groups := make([]string, len(searchResult.Entries))
	for i, entry := range searchResult.Entries {
		groups[i] = entry.DN
	}

	return groups, nil
}

// MapGroupsToRoles returns the sorted role names granted by groups. Group DNs
// are compared case-insensitively. DefaultRoleName is always granted when set.
func MapGroupsToRoles(groups []string, cfg *config.LDAP) []string {
	var out []string

	if cfg.DefaultRoleName != "" {
		out = append(out, cfg.DefaultRoleName)
	}

	for dn, role := range cfg.GroupRoles {
		for _, g := range groups {
			if strings.EqualFold(strings.TrimSpace(dn), strings.TrimSpace(g)) {
				out = append(out, role)
				break
			}
		}
	}

	slices.Sort(out)

	return slices.Compact(out)
}

// upsertUser creates or updates the mirror of a directory user and replaces
// its roles with roleNames. Names without a local role are skipped.
func (p *LDAPProvider) upsertUser(username, userDN, email, realName string, roleNames []string) (*models.User, error) {
	var user models.User

	err := p.db.Transaction(func(tx *gorm.DB) error {
		errFind := tx.Where("external_id = ? AND auth_source = ?", userDN, models.AuthSourceLDAP).First(&user).Error

		switch {
		case errors.Is(errFind, gorm.ErrRecordNotFound):
			user = models.User{
				Active:     true,
				Username:   username,
				Email:      email,
				RealName:   realName,
				AuthSource: models.AuthSourceLDAP,
				ExternalID: userDN,
			}

			if p.config.DefaultOrgID != 0 {
				org := p.config.DefaultOrgID
				user.OrganizationID = &org
			}

			if errCreate := tx.Create(&user).Error; errCreate != nil {
				return fmt.Errorf("failed to create user: %w", errCreate)
			}
		case errFind != nil:
			return fmt.Errorf("failed to query user: %w", errFind)
		default:
			if !user.Active {
				return ErrUserAccountDisabled
			}

			user.Email = email
			user.RealName = realName

			if errSave := tx.Model(&user).Select("Email", "RealName").Updates(&user).Error; errSave != nil {
				return fmt.Errorf("failed to update user: %w", errSave)
			}
		}

		var roles []models.Role
		if len(roleNames) > 0 {
			if errRoles := tx.Where("name IN ?", roleNames).Find(&roles).Error; errRoles != nil {
				return fmt.Errorf("failed to load roles: %w", errRoles)
			}
		}

		if len(roles) != len(roleNames) {
			log.Warn().Strs("roles", roleNames).Str("user", username).Msg("ldap group mapping names unknown roles")
		}

		assoc := tx.Model(&user).Association("Roles")

		var errAssoc error
		if len(roles) == 0 {
			errAssoc = assoc.Clear()
		} else {
			errAssoc = assoc.Replace(roles)
		}

		if errAssoc != nil {
			return fmt.Errorf("failed to sync roles: %w", errAssoc)
		}

		now := time.Now()
		user.LastLoginAt = &now

		return tx.Model(&user).Update("last_login_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// TestConnection connects to the directory and binds with the service account.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	return p.bindService(conn)
}
