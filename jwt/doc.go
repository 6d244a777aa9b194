// Package jwt mints and verifies the signed session tokens a verified
// identity is exchanged for: a short-lived access token and, for tenants
// that enable it, a longer-lived refresh token.
//
// Both variants carry {sub, iss, exp, iat} plus the tenant id ("tid") and a
// use discriminator ("use"), so an access token can never pass where a
// refresh token is expected or vice versa.
package jwt
