// Package tenant defines the tenant-configuration registry the engine
// consumes, plus two implementations: a MongoDB-backed registry for
// production and an in-memory StaticRegistry for tests and examples.
//
// The registry is read-only to the engine. Registration, updates, and
// deletion of tenants are a separate administrative concern.
package tenant
