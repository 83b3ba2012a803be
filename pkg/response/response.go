package response

// Response is the standard API envelope: {success, data|message|error|errors}.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Success wraps data in a success envelope
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Message returns a success envelope carrying only a message
func Message(message string) Response {
	return Response{Success: true, Message: message}
}

// MessageWithWarning returns a success envelope with a non-fatal warning,
// e.g. a state change that committed but whose notification failed.
func MessageWithWarning(message, warning string) Response {
	return Response{Success: true, Message: message, Warning: warning}
}

// Error returns an error envelope wrapping the error message
func Error(err string) Response {
	return Response{Success: false, Error: err}
}

// Errors returns an error envelope carrying per-field validation errors
func Errors(errs interface{}) Response {
	return Response{Success: false, Errors: errs}
}
