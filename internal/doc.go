// Package internal contains helper utilities that are intentionally private
// to auth-service, including secure random generation for one-time codes and
// link secrets.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//
// # What this package must NOT do
//
//   - Export types that appear in the public authservice API.
//   - Be imported by any package outside the auth-service module.
package internal
