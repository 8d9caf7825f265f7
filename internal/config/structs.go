package config

import (
	"time"

	"github.com/senma231/checkprice-sub001/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration // lifetime of a login session and of its permission snapshot
	Storage    string        // "db" uses the configured database, "memory" keeps sessions in process
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	SecureCookie   bool    // mark the session cookie secure (https only)
	Session        Session // session settings
}

// Auth selects the login sources.
type Auth struct {
	LocalDB bool // allow local database accounts
	LDAP    LDAP
}

// LDAP holds LDAP/Active Directory settings. GroupRoles maps a group DN to the
// name of a local role; directory users receive exactly the mapped roles on
// every login.
type LDAP struct {
	Enabled         bool
	Host            string
	Port            int
	UseSSL          bool
	UseTLS          bool
	SkipVerify      bool
	BindDN          string
	BindPassword    string
	BaseDN          string
	UserFilter      string // e.g. "(uid={username})"
	GroupBaseDN     string
	GroupFilter     string // e.g. "(member={userdn})"
	UsernameAttr    string
	EmailAttr       string
	RealNameAttr    string
	Timeout         int // seconds
	GroupRoles      map[string]string
	DefaultOrgID    uint // organization assigned to new directory users, 0 for none
	DefaultRoleName string
}

// Seed controls the first-start bootstrap.
type Seed struct {
	AdminUsername    string
	AdminEmail       string
	AdminPassword    string // empty generates a random password that is logged once
	RootOrganization string
}
