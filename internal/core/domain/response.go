package domain

import "time"

// AgentResponse is the single envelope returned by every top-level
// operation. Success and Error are mutually exclusive: Success=true implies
// Error is empty, Success=false implies Error is set and Data is nil.
type AgentResponse struct {
	Success       bool    `json:"success"`
	Data          any     `json:"data,omitempty"`
	Message       string  `json:"message"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time"`
	TokensUsed    int     `json:"tokens_used,omitempty"`
}

// SuccessResponse wraps a successful payload. Elapsed time is measured from
// the operation's true start so even pre-network work is accounted for.
func SuccessResponse(data any, message string, started time.Time, tokens int) AgentResponse {
	return AgentResponse{
		Success:       true,
		Data:          data,
		Message:       message,
		ExecutionTime: time.Since(started).Seconds(),
		TokensUsed:    tokens,
	}
}

// FailureResponse wraps a caught failure into the envelope. The caller
// always receives a well-formed envelope, never a raw error.
func FailureResponse(message string, err error, started time.Time) AgentResponse {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	return AgentResponse{
		Success:       false,
		Message:       message,
		Error:         errText,
		ExecutionTime: time.Since(started).Seconds(),
	}
}
