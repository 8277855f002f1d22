package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/survey-forwarder/internal/interfaces/http/common"
	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

type stubSubmissions struct {
	ctx         context.Context
	err         error
	calls       int
	payload     domain.SurveyPayload
	credentials domain.ProviderCredentials
}

func (s *stubSubmissions) Forward(ctx context.Context, payload domain.SurveyPayload, creds domain.ProviderCredentials) (domain.Acknowledgement, error) {
	s.calls++
	s.ctx = ctx
	s.payload = payload
	s.credentials = creds
	if s.err != nil {
		return domain.Acknowledgement{}, s.err
	}
	return domain.Acknowledgement{Success: true}, nil
}

func newTestRouter(stub *stubSubmissions) http.Handler {
	router := chi.NewRouter()
	NewHandler(Config{
		Submissions: stub,
		Credentials: domain.ProviderCredentials{WorkbookID: "wb"},
	}).Register(router)
	return router
}

func post(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/submit-survey", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSurveySubmit_Success(t *testing.T) {
	stub := &stubSubmissions{}
	rec := post(t, newTestRouter(stub), `{"name":"Asha","overall_experience":5}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.Equal(t, 1, stub.calls)
	assert.Equal(t, `"Asha"`, string(stub.payload["name"]))
	assert.Equal(t, `5`, string(stub.payload["overall_experience"]))
	assert.Equal(t, "wb", stub.credentials.WorkbookID)
}

func TestSurveySubmit_EmptyBodyIsForwarded(t *testing.T) {
	for _, body := range []string{"", "  ", `["a", 1]`, `[]`} {
		stub := &stubSubmissions{}
		rec := post(t, newTestRouter(stub), body)

		assert.Equal(t, http.StatusOK, rec.Code, body)
		require.Equal(t, 1, stub.calls, body)
		assert.NotNil(t, stub.payload)
		assert.Empty(t, stub.payload)
	}
}

func TestSurveySubmit_MalformedBody(t *testing.T) {
	for _, body := range []string{`{"name":`, `["a"`, `"text"`, `null`, `42`} {
		stub := &stubSubmissions{}
		rec := post(t, newTestRouter(stub), body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Zero(t, stub.calls)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["error"])
	}
}

func TestSurveySubmit_NonJSONContentTypeForwardsEmptyPayload(t *testing.T) {
	for _, contentType := range []string{"", "text/plain", "application/x-www-form-urlencoded", "not a media type;;"} {
		stub := &stubSubmissions{}
		req := httptest.NewRequest(http.MethodPost, "/api/submit-survey", strings.NewReader(`{"name":"Asha"}`))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		newTestRouter(stub).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, contentType)
		require.Equal(t, 1, stub.calls, contentType)
		assert.Empty(t, stub.payload, contentType)
	}
}

func TestSurveySubmit_JSONSuffixContentType(t *testing.T) {
	stub := &stubSubmissions{}
	req := httptest.NewRequest(http.MethodPost, "/api/submit-survey", strings.NewReader(`{"name":"Asha"}`))
	req.Header.Set("Content-Type", "application/vnd.survey+json; charset=utf-8")
	rec := httptest.NewRecorder()
	newTestRouter(stub).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"Asha"`, string(stub.payload["name"]))
}

func TestSurveySubmit_CallerCancellationDoesNotReachForward(t *testing.T) {
	stub := &stubSubmissions{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/submit-survey", strings.NewReader(`{}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(stub).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.ctx)
	assert.NoError(t, stub.ctx.Err())
}

func TestSurveySubmit_BodyTooLarge(t *testing.T) {
	stub := &stubSubmissions{}
	body := `{"name":"` + strings.Repeat("a", common.MaxSurveyRequestBody) + `"}`
	rec := post(t, newTestRouter(stub), body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, stub.calls)
}

func TestSurveySubmit_ErrorsMapTo500(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"configuration", domain.NewError(domain.KindConfiguration, domain.MessageConfigurationIncomplete, nil), "Backend configuration incomplete"},
		{"authentication", &domain.Error{Kind: domain.KindAuthentication, Message: domain.MessageTokenRefreshFailed, Detail: `{"error":"invalid_code"}`}, "Failed to refresh Zoho access token"},
		{"transport", domain.NewError(domain.KindTransport, "connection refused", errors.New("connection refused")), "connection refused"},
		{"write", domain.NewError(domain.KindWrite, "quota exceeded", nil), "quota exceeded"},
		{"unclassified", errors.New("boom"), "boom"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, newTestRouter(&stubSubmissions{err: tc.err}), `{}`)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"`+tc.expected+`"}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "invalid_code")
		})
	}
}
