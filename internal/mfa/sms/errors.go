package sms

import "fmt"

// DeliveryError reports that a message could not be handed to the SMS gateway. Transport
// faults and unexpected gateway responses are both converted to it.
type DeliveryError struct {
	// StatusCode is the gateway's HTTP status, or 0 when no response was received.
	StatusCode int
	// Cause is a human-readable reason suitable for the "code not sent" page.
	Cause string
	Err   error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sms: %s: %v", e.Cause, e.Err)
	}
	return "sms: " + e.Cause
}

func (e *DeliveryError) Unwrap() error { return e.Err }
