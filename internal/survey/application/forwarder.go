package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

var validate = validator.New()

// Forwarder turns one survey submission into one appended sheet row.
// It keeps no state between calls; every Forward performs its own token exchange.
type Forwarder struct {
	gateway  SheetGateway
	logger   *zap.SugaredLogger
	location *time.Location
	now      func() time.Time
}

// Option customises a Forwarder.
type Option func(*Forwarder)

// WithClock replaces the capture time source.
func WithClock(now func() time.Time) Option {
	return func(f *Forwarder) {
		if now != nil {
			f.now = now
		}
	}
}

// NewForwarder wires the forwarder to its gateway. A nil location means UTC.
func NewForwarder(gateway SheetGateway, logger *zap.SugaredLogger, location *time.Location, opts ...Option) *Forwarder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if location == nil {
		location = time.UTC
	}
	f := &Forwarder{
		gateway:  gateway,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward validates credentials, obtains an access token and appends the row.
func (f *Forwarder) Forward(ctx context.Context, payload domain.SurveyPayload, creds domain.ProviderCredentials) (domain.Acknowledgement, error) {
	log := f.logger.With("submissionId", uuid.NewString())

	if err := f.checkCredentials(log, creds); err != nil {
		return domain.Acknowledgement{}, err
	}

	token, err := f.acquireToken(ctx, log, creds)
	if err != nil {
		return domain.Acknowledgement{}, err
	}

	row := domain.NewSheetRow(payload, f.now().In(f.location))
	if err := f.insertRow(ctx, log, creds, token, row); err != nil {
		return domain.Acknowledgement{}, err
	}

	log.Infow("survey row appended", "workbookId", creds.WorkbookID, "worksheet", creds.Worksheet())
	return domain.Acknowledgement{Success: true}, nil
}

func (f *Forwarder) checkCredentials(log *zap.SugaredLogger, creds domain.ProviderCredentials) error {
	err := validate.Struct(creds)
	if err == nil {
		return nil
	}

	var missing []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
	}
	log.Warnw("Zoho credentials missing in environment variables", "missing", strings.Join(missing, ","))
	return domain.NewError(domain.KindConfiguration, domain.MessageConfigurationIncomplete, err)
}

func (f *Forwarder) acquireToken(ctx context.Context, log *zap.SugaredLogger, creds domain.ProviderCredentials) (*oauth2.Token, error) {
	grant, err := f.gateway.RefreshAccessToken(ctx, creds)
	if err != nil {
		log.Errorw("token request failed", "error", err)
		return nil, domain.NewError(domain.KindTransport, err.Error(), err)
	}

	if grant.Token == nil || grant.Token.AccessToken == "" {
		detail := string(grant.Raw)
		log.Errorw("Zoho token error", "response", detail)
		fwdErr := domain.NewError(domain.KindAuthentication, domain.MessageTokenRefreshFailed, nil)
		fwdErr.Detail = detail
		return nil, fwdErr
	}

	return grant.Token, nil
}

func (f *Forwarder) insertRow(ctx context.Context, log *zap.SugaredLogger, creds domain.ProviderCredentials, token *oauth2.Token, row domain.SheetRow) error {
	jsonData, err := domain.EncodeRows(row)
	if err != nil {
		log.Errorw("row encoding failed", "error", err)
		return domain.NewError(domain.KindTransport, err.Error(), err)
	}

	result, err := f.gateway.AddRecords(ctx, creds, token, jsonData)
	if err != nil {
		log.Errorw("sheet request failed", "error", err)
		return domain.NewError(domain.KindTransport, err.Error(), err)
	}

	if result.Status != StatusSuccess {
		detail := string(result.Raw)
		log.Errorw("Zoho sheet error", "response", detail)
		message := result.Message
		if message == "" {
			message = domain.MessageWriteFailed
		}
		fwdErr := domain.NewError(domain.KindWrite, message, nil)
		fwdErr.Detail = detail
		return fwdErr
	}

	return nil
}
