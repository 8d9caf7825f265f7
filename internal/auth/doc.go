// Package auth authenticates staff users and decides whether a principal may
// perform an operation.
//
// # Authentication
//
// LocalProvider checks usernames and Argon2id password hashes stored in the
// users table. LDAPProvider binds against a directory, mirrors the account
// into the users table and replaces its roles with those mapped from its
// directory groups. Authenticator chains both according to the configuration.
//
// # Authorization
//
// A Principal carries the user id, the organization and the role names and
// permission codes of all enabled roles. The admin role satisfies every
// registered code; unregistered codes are denied to everyone.
//
// Evaluator answers pure questions (HasPermission, HasAnyPermission,
// HasAllPermissions, VisibleMenuSections, CanAccessOrganizationScope) for an
// explicit principal and hierarchy snapshot.
//
// Gate sits in front of every protected operation. It resolves the principal
// again from the database on each check, so a role change takes effect on the
// next request even when the session still holds an older snapshot:
//
//	svc := auth.NewService(db, reg)
//	gate := auth.NewGate(auth.NewEvaluator(reg), svc, svc)
//
//	app.Post("/api/prices",
//	    auth.RequirePermission(gate, permission.PriceCreate),
//	    handler,
//	)
//
// A request without a usable principal is answered with 401, one whose
// principal lacks permissions with 403.
package auth
