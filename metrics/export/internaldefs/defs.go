package internaldefs

import (
	authservice "github.com/rickh94/auth-service"
)

// CounterDef binds an engine counter to its stable exported name.
type CounterDef struct {
	ID   authservice.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its stable exported name.
type HistogramDef struct {
	ID   authservice.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: authservice.MetricOTPRequest, Name: "authservice_otp_request_total", Help: "Issued one-time codes."},
	{ID: authservice.MetricOTPConfirmSuccess, Name: "authservice_otp_confirm_success_total", Help: "Successful OTP confirmations."},
	{ID: authservice.MetricOTPConfirmRejected, Name: "authservice_otp_confirm_rejected_total", Help: "Rejected OTP confirmations."},
	{ID: authservice.MetricMagicRequest, Name: "authservice_magic_request_total", Help: "Issued magic links."},
	{ID: authservice.MetricMagicConfirmSuccess, Name: "authservice_magic_confirm_success_total", Help: "Successful magic-link confirmations."},
	{ID: authservice.MetricMagicConfirmRejected, Name: "authservice_magic_confirm_rejected_total", Help: "Rejected magic-link confirmations."},
	{ID: authservice.MetricIdentityDecodeFailure, Name: "authservice_identity_decode_failure_total", Help: "Identity tokens that failed verification or decryption."},
	{ID: authservice.MetricDeliveryFailure, Name: "authservice_delivery_failure_total", Help: "Email deliveries that failed."},
	{ID: authservice.MetricTenantNotFound, Name: "authservice_tenant_not_found_total", Help: "Operations against unknown tenants."},
	{ID: authservice.MetricRefreshIssued, Name: "authservice_refresh_issued_total", Help: "Refresh tokens minted for refresh-enabled tenants."},
}

// HistogramDefs lists every engine histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: authservice.MetricConfirmLatency, Name: "authservice_confirm_latency_seconds", Help: "Confirmation-path latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's fixed latency buckets,
// in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds metric-name-safe forms of [HistogramBounds],
// index-aligned with them.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies a snapshot bucket slice into the fixed 8-bucket
// shape, tolerating short or nil input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// histogram consumers expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
