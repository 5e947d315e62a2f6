package model

// ErrorResponse is the standard envelope for error responses. Every failure
// the API reports uses this shape with a matching HTTP status code.
type ErrorResponse struct {
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
}

// NewError builds an ErrorResponse for the given status and message.
func NewError(status int, message string) ErrorResponse {
	return ErrorResponse{Error: true, Message: message, Status: status}
}

// Pagination describes the page slice returned by list endpoints. Totals come
// from a separate count query over the same filter as the page query.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// StudentListResponse is the envelope for GET /students.
type StudentListResponse struct {
	Success    bool       `json:"success"`
	Data       []Student  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// StudentResponse is the envelope for endpoints returning a single student.
type StudentResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    *Student `json:"data,omitempty"`
}

// MessageResponse is the envelope for mutations that return no record body.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreatedResponse is the envelope for a successful create, carrying the new id.
type CreatedResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    CreatedRef `json:"data"`
}

// CreatedRef holds the id of a newly created record.
type CreatedRef struct {
	ID int64 `json:"id"`
}

// LoginResponse is the payload for a successful login.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// HealthResponse is the payload for the authenticated health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}
