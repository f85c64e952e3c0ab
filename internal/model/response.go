package model

import "github.com/recipebox/backend/internal/apperror"

// Response is the envelope of every JSON response.
type Response struct {
	Success          bool                  `json:"success"`
	Data             any                   `json:"data,omitempty"`
	Message          string                `json:"message,omitempty"`
	Error            string                `json:"error,omitempty"`
	ValidationErrors []apperror.FieldError `json:"validationErrors,omitempty"`
}

type ErrorResponse struct {
	Success          bool                  `json:"success"`
	Error            string                `json:"error"`
	ValidationErrors []apperror.FieldError `json:"validationErrors,omitempty"`
}

type RateLimitResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	RetryAfter int64  `json:"retryAfter"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
