package common

const (
	// MaxSurveyRequestBody limits JSON request bodies for the submission endpoint.
	MaxSurveyRequestBody = 1 << 20
)
