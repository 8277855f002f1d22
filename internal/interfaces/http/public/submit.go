package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sngm3741/survey-forwarder/internal/interfaces/http/common"
	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

func (h *Handler) surveySubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		payload, status, err := decodeSurveyPayload(r.Header.Get("Content-Type"), r.Body)
		if err != nil {
			common.WriteError(h.logger, w, status, err.Error())
			return
		}

		// A caller hanging up must not abort a row that is already on its way;
		// the outbound client timeout bounds the calls instead.
		ctx := context.WithoutCancel(r.Context())

		ack, err := h.submissions.Forward(ctx, payload, h.credentials)
		if err != nil {
			kind, _ := domain.KindOf(err)
			h.logger.Errorw("survey submission error",
				"requestId", middleware.GetReqID(ctx),
				"kind", string(kind),
				"error", err,
			)
			common.WriteError(h.logger, w, http.StatusInternalServerError, domain.PublicMessage(err))
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, ack)
	}
}

// decodeSurveyPayload follows the usual JSON body parser rules: only JSON
// content types are parsed, the document must start with an object or an
// array, and anything that is not an object yields an empty payload.
func decodeSurveyPayload(contentType string, body io.Reader) (domain.SurveyPayload, int, error) {
	raw, err := io.ReadAll(io.LimitReader(body, common.MaxSurveyRequestBody+1))
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(raw) > common.MaxSurveyRequestBody {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", common.MaxSurveyRequestBody)
	}

	if !isJSONContentType(contentType) {
		return domain.SurveyPayload{}, 0, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.SurveyPayload{}, 0, nil
	}

	switch raw[0] {
	case '{':
		var payload domain.SurveyPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("request body is not valid JSON: %w", err)
		}
		return payload, 0, nil
	case '[':
		if !json.Valid(raw) {
			return nil, http.StatusBadRequest, errors.New("request body is not valid JSON")
		}
		return domain.SurveyPayload{}, 0, nil
	default:
		return nil, http.StatusBadRequest, errors.New("request body must be a JSON object or array")
	}
}

func isJSONContentType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
