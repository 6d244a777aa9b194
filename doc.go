// Package authservice issues and verifies short-lived, single-use sign-in
// secrets (numeric one-time codes and emailed magic links) on behalf of
// multiple tenant applications, and exchanges a verified secret for signed
// session tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Flow
//
//  1. A tenant application asks for a code or link for a claimed email
//     address via [Engine.RequestOTP] or [Engine.RequestMagicLink]. The
//     secret is written to Redis with a TTL and delivered by email.
//  2. The user presents the secret back via [Engine.ConfirmOTP] or
//     [Engine.ConfirmMagicLink]. Consumption is atomic: under concurrent
//     confirmation attempts for the same secret exactly one caller wins.
//  3. On success the engine mints a signed access token (and a refresh token
//     when the tenant enables it) and, for magic links, builds the tenant's
//     success redirect URL.
//
// # Architecture boundaries
//
// authservice is the public surface. It exposes [Engine], [Builder],
// [Config], and result types. HTTP routing, request decoding, and response
// encoding belong to the caller. The tenant registry ([tenant.Registry]) and
// the email transport ([email.Sender]) are injected collaborators; Redis is
// the only store the engine owns.
//
// # What this package must NOT do
//
//   - Expose Redis clients, record encodings, or the identity codec key in
//     its public API.
//   - Put a plaintext email address into a URL. Magic links carry the
//     identity only as an encrypted token.
//   - Retry collaborator failures internally; they surface as typed errors.
package authservice
