// Package main provides the entry point of the checkprice admin backend.
// It serves a JSON API built on Fiber that manages an organization hierarchy,
// users and roles with code based permissions, a service catalog and the
// prices organizations maintain. Every protected route passes an
// authorization gate that resolves the caller's permissions and organization
// subtree on each request. Data is persisted with gorm on MySQL, PostgreSQL
// or SQLite.
package main
