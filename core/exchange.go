package core

// AgentRequest is the immutable input handed to an agent adapter: a snapshot
// of the relevant session slice plus role-specific task instructions. The
// Feedback field carries the rejection reason of a previous attempt so the
// retry gate can steer the next one.
type AgentRequest struct {
	Role Role
	Task string
	// Context carries stable context blocks (outline, world facts) that are
	// never truncated.
	Context []string
	// Continuity carries the append-only continuity entries, ordered oldest
	// first. Adapters drop the oldest entries when the request exceeds the
	// configured size bound.
	Continuity []string
	// Feedback from a prior failed validation, empty on the first attempt.
	Feedback string
}

// AgentResponse is the immutable output of one adapter invocation.
type AgentResponse struct {
	Role         Role
	Text         string
	ModelName    string
	FinishReason string
	PromptTokens int
	OutputTokens int
}

// Reason classifies why a validation attempt failed (or that it passed).
type Reason int

const (
	// ReasonNone marks a passing result.
	ReasonNone Reason = iota
	// ReasonGeneration marks a transport or timeout failure of the model call.
	ReasonGeneration
	// ReasonEmpty marks a blank model response.
	ReasonEmpty
	// ReasonMissingMarker marks output lacking a required section marker.
	ReasonMissingMarker
	// ReasonTooShort marks output below the minimum length requirement.
	ReasonTooShort
	// ReasonTooSimilar marks a story too close to an earlier finalized one.
	ReasonTooSimilar
	// ReasonMalformed marks output that could not be parsed into the
	// expected structure.
	ReasonMalformed
	// ReasonExhaustedRetries marks the terminal result after the attempt
	// budget ran out.
	ReasonExhaustedRetries
	// ReasonCanceled marks a result cut short by run cancellation.
	ReasonCanceled
)

// String returns a stable name for logs and feedback messages.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonGeneration:
		return "generation_error"
	case ReasonEmpty:
		return "empty_response"
	case ReasonMissingMarker:
		return "missing_marker"
	case ReasonTooShort:
		return "too_short"
	case ReasonTooSimilar:
		return "too_similar"
	case ReasonMalformed:
		return "malformed"
	case ReasonExhaustedRetries:
		return "exhausted_retries"
	case ReasonCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ValidationResult is the outcome of the retry gate for one request:
// pass/fail plus a reason code and, on pass, the extracted content. Retryable
// failures flow as values through ordinary control flow, never as errors.
type ValidationResult struct {
	OK      bool
	Reason  Reason
	Detail  string
	Content string
	// Attempts counts adapter invocations spent on this request.
	Attempts int
}

// Pass builds a passing result carrying the extracted content.
func Pass(content string) ValidationResult {
	return ValidationResult{OK: true, Reason: ReasonNone, Content: content}
}

// Fail builds a failing result with a reason code and human-readable detail.
func Fail(reason Reason, detail string) ValidationResult {
	return ValidationResult{Reason: reason, Detail: detail}
}
