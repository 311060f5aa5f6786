// Package password hashes and verifies account passwords with Argon2id and
// enforces the minimum password policy shared by sign-up and reset.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other authflow package.
//   - Log plaintext passwords.
package password
