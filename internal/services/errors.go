package services

import (
	"fmt"
	"strings"

	"citas/internal/models"
)

// ValidationError is returned for a missing required field or identifier,
// an unknown channel, or a patch field outside the allow-list.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// StoreError wraps a failed read or write against the appointment store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failed email or SMS delivery.
type TransportError struct {
	Channel models.Channel
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MissingContactError is returned before any send when the session user has
// no address for the channel.
type MissingContactError struct {
	Channel models.Channel
}

func (e *MissingContactError) Error() string {
	if e.Channel == models.ChannelSMS {
		return "no phone number registered"
	}
	return "no email address registered"
}

func missingIDError() error {
	return &ValidationError{Message: "Missing id"}
}
