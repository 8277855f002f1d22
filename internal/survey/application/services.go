package application

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

// StatusSuccess is the only write status treated as a persisted row.
const StatusSuccess = "success"

// SheetGateway is the outbound port to the identity provider and the sheet service.
type SheetGateway interface {
	RefreshAccessToken(ctx context.Context, creds domain.ProviderCredentials) (TokenGrant, error)
	AddRecords(ctx context.Context, creds domain.ProviderCredentials, token *oauth2.Token, jsonData string) (WriteResult, error)
}

// TokenGrant is the decoded token endpoint answer. Token is nil when the
// response carried no usable access_token; Raw keeps the body for diagnostics.
type TokenGrant struct {
	Token *oauth2.Token
	Raw   []byte
}

// WriteResult is the decoded record insertion answer.
type WriteResult struct {
	Status  string
	Message string
	Raw     []byte
}

// SubmissionService forwards a survey submission to the sheet.
type SubmissionService interface {
	Forward(ctx context.Context, payload domain.SurveyPayload, creds domain.ProviderCredentials) (domain.Acknowledgement, error)
}
