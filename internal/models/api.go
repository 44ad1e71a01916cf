package models

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful API response.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed API response.
	APIStatusError APIStatus = "error"
	// APIStatusProcessed indicates an inbound event was accepted and handled.
	APIStatusProcessed APIStatus = "processed"
	// APIStatusIgnored indicates an inbound event was accepted but filtered out.
	APIStatusIgnored APIStatus = "ignored"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// Processed creates a processed API response for handled webhook events.
func Processed(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusProcessed).
		WithResult(result).
		Build()
}

// Ignored creates an ignored API response for filtered webhook events.
func Ignored(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusIgnored).
		WithMessage(message).
		Build()
}
