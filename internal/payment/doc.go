// Package payment runs the premium upgrade checkout.
//
// Begin creates a payment intent with the signed-in user's bearer token and
// returns the hosted payment URL. Watch then polls the backend's
// verify-payment endpoint on a fixed interval, one request at a time, until
// the processor confirms or fails the invoice or the attempt cap is reached.
// Polling runs server side on an injected Clock, so it survives the browser
// leaving for the payment page and can be driven tick by tick in tests.
//
// A confirmed payment updates the stored token and tier and drops any staged
// registration. Timeouts are reported to operators because the processor may
// still complete the charge after polling gives up.
package payment
