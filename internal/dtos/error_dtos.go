package dtos

// ValidationErrorDetail is one failed field in a 400 response.
type ValidationErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}
