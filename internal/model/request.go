package model

import (
	"errors"
	"strings"
)

// ErrNoInput is returned when a request carries neither text nor image data.
var ErrNoInput = errors.New("at least one of claim_text or image_data must be provided")

// Request is the inbound fact-check input.
// At least one of ClaimText or ImageData must be present.
type Request struct {
	ClaimText      string `json:"claim_text,omitempty"`
	ImageData      []byte `json:"image_data,omitempty"`
	UserID         string `json:"user_id"`
	SourcePlatform string `json:"source_platform"` // Originating chat platform, e.g. "whatsapp"
	RequestID      string `json:"request_id,omitempty"`
}

// Validate checks that the request carries at least one verifiable input.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.ClaimText) == "" && len(r.ImageData) == 0 {
		return ErrNoInput
	}
	return nil
}
