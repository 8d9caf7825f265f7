package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/models"
)

func TestNewLDAPProvider(t *testing.T) {
	_, err := NewLDAPProvider(&config.LDAP{}, nil)
	require.ErrorIs(t, err, ErrLDAPDisabled)

	cfg := &config.LDAP{Enabled: true, Host: "ldap.example.com", Port: 389}

	p, err := NewLDAPProvider(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "uid", p.config.UsernameAttr)
	assert.Equal(t, "mail", p.config.EmailAttr)
	assert.Equal(t, "cn", p.config.RealNameAttr)
	assert.Equal(t, 10, p.config.Timeout)
	assert.Empty(t, cfg.UsernameAttr, "caller configuration is not modified")
}

func TestMapGroupsToRoles(t *testing.T) {
	cfg := &config.LDAP{
		GroupRoles: map[string]string{
			"cn=pricing,ou=groups,dc=example,dc=com":  "pricing",
			"cn=auditors,ou=groups,dc=example,dc=com": "auditing",
			"cn=ops,ou=groups,dc=example,dc=com":      "pricing",
		},
		DefaultRoleName: "viewer",
	}

	got := MapGroupsToRoles([]string{
		"CN=Pricing,OU=Groups,DC=example,DC=com",
		"cn=ops,ou=groups,dc=example,dc=com",
		"cn=unmapped,ou=groups,dc=example,dc=com",
	}, cfg)

	assert.Equal(t, []string{"pricing", "viewer"}, got)

	cfg.DefaultRoleName = ""
	assert.Empty(t, MapGroupsToRoles(nil, cfg))
}

func TestLDAPProvider_UpsertUserSyncsRoles(t *testing.T) {
	f := newFixture(t)

	p, err := NewLDAPProvider(&config.LDAP{Enabled: true, DefaultOrgID: *f.user.OrganizationID}, f.db)
	require.NoError(t, err)

	const dn = "uid=carol,ou=people,dc=example,dc=com"

	u, err := p.upsertUser("carol", dn, "carol@example.com", "Carol", []string{"pricing", "missing"})
	require.NoError(t, err)
	assert.Equal(t, models.AuthSourceLDAP, u.AuthSource)
	require.NotNil(t, u.OrganizationID)
	assert.Equal(t, *f.user.OrganizationID, *u.OrganizationID)

	var stored models.User
	require.NoError(t, f.db.Preload("Roles").First(&stored, u.ID).Error)
	assert.Equal(t, []string{"pricing"}, stored.RoleNames())
	assert.NotNil(t, stored.LastLoginAt)

	// the next login replaces the role set and refreshes the profile
	u2, err := p.upsertUser("carol", dn, "carol@corp.example.com", "Carol C.", []string{"auditing"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)

	stored = models.User{}
	require.NoError(t, f.db.Preload("Roles").First(&stored, u.ID).Error)
	assert.Equal(t, []string{"auditing"}, stored.RoleNames())
	assert.Equal(t, "carol@corp.example.com", stored.Email)
	assert.Equal(t, "Carol C.", stored.RealName)

	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", u.ID).Update("active", false).Error)

	_, err = p.upsertUser("carol", dn, "carol@corp.example.com", "Carol C.", nil)
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}
