package dto

import "time"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Message      string    `json:"message" example:"archive unreadable"`
	ErrorDetails string    `json:"error,omitempty" example:"zip: not a valid zip file"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewErrorResponse builds an ErrorResponse stamped with the current time.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
