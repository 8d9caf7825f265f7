// Package auth provides the session middleware of the API.
//
// The middleware reads the session cookie, loads the session from the
// session store and places the stored principal in fiber.Locals. Requests
// without a valid session pass through untouched; protected routes answer
// them with 401 through their authorization gate.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
package auth
