// Package email defines the delivery transport the engine consumes and a
// Mailgun HTTP implementation.
//
// Delivery failures are terminal for a request-phase call: the engine does
// not retry, and the already-stored secret remains valid so the caller can.
package email
