package hubspot

import "fmt"

// APIError is a non-2xx response from the CRM API, in HubSpot's standard
// error envelope.
type APIError struct {
	StatusCode    int    `json:"-"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
	Category      string `json:"category"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubspot: %d %s (%s)", e.StatusCode, e.Message, e.CorrelationID)
}
