// Package auth verifies operator credentials for the API token endpoint.
//
// Operators are listed in security.users with Argon2id password hashes in
// PHC format. Generate a hash with "graylogic hash-password". A verified
// login is exchanged for a bearer token by the api package.
package auth
