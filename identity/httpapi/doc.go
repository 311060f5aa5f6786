// Package httpapi exposes an identity.Backend over JSON/HTTP and provides
// [Remote], a Backend that talks to such a server.
//
// # Routes
//
//	POST /v1/sign-in                      {email, password}          -> 200 tokens
//	POST /v1/sign-up                      {name, email, password}    -> 201 tokens
//	POST /v1/sign-out                     Authorization: Bearer      -> 204
//	POST /v1/password-reset               {email}                    -> 204
//	POST /v1/password-reset/otp           {email, otp, new_password} -> 204
//	POST /v1/password-reset/token         {token, new_password}      -> 204
//	GET  /healthz                                                    -> 200
//
// Failures are {"code": ..., "message": ...} with a status derived from the
// code. Remote turns them back into *identity.Error with the same code.
package httpapi
