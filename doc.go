// Package esewa is a client-side integration library for the eSewa ePay
// payment gateway (v2 form contract).
//
// It builds the signed field set a browser is redirected with to initiate a
// payment, decodes the base64 callback payload delivered on the redirect
// back, and checks transaction status against the status API. The package
// performs no logging, no retries and keeps no state between calls; retry
// policy and persistence of transaction records belong to the embedding
// application.
package esewa
