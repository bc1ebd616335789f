package response

import "brincafacil/lib/clock"

type Response struct {
	Data      interface{} `json:"data,omitempty"`
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	Details   string      `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func Ok(message string, data interface{}) Response {
	return Response{
		Data:      data,
		Success:   true,
		Message:   message,
		Timestamp: clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:   false,
		Error:     message,
		Timestamp: clock.Now(),
	}
}
