// Package deeplink decodes password-reset navigation parameters delivered by
// email links or app routes.
//
// A reset link carries one of three shapes: {token}, {email, otp}, or
// {error: "INVALID_TOKEN"}. Links carrying none of them are reported as
// [KindNone] and must be treated as unusable by callers.
package deeplink
