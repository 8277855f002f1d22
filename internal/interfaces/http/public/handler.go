package public

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/survey-forwarder/internal/survey/application"
	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger      *zap.SugaredLogger
	submissions application.SubmissionService
	credentials domain.ProviderCredentials
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger      *zap.SugaredLogger
	Submissions application.SubmissionService
	Credentials domain.ProviderCredentials
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		logger:      logger,
		submissions: cfg.Submissions,
		credentials: cfg.Credentials,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/submit-survey", h.surveySubmitHandler())
}
