// Package auth authenticates dashboard users for the HTTP API.
//
// Accounts are declared in configuration with argon2id password hashes.
// A successful login returns a short-lived HS256 JWT carrying the user's
// role. Two roles exist: admin may control devices, guest may only read.
package auth
