package domain

// Category is a stable label assigned to a failure message,
// independent of the exact wording, used to drive escalation routing.
type Category string

const (
	CategoryAPIError      Category = "API_ERROR"
	CategoryCodeError     Category = "CODE_ERROR"
	CategoryResourceError Category = "RESOURCE_ERROR"
	CategoryUnknown       Category = "UNKNOWN"
)

// ErrorRecord is a labeled failure example used for similarity matching.
type ErrorRecord struct {
	Message        string   `json:"message"`
	Classification Category `json:"classification"`
}
