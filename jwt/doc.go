// Package jwt issues and verifies the signed access tokens handed to clients
// after sign-in and sign-up. Tokens identify a user and the server-side session
// that backs them; revocation is enforced by the session store, not here.
package jwt
