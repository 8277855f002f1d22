package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var capturedAt = time.Date(2026, time.October, 18, 15, 4, 5, 0, time.UTC)

func fullPayload() SurveyPayload {
	return SurveyPayload{
		"name":                json.RawMessage(`"Asha"`),
		"overall_experience":  json.RawMessage(`5`),
		"trainer_explanation": json.RawMessage(`"Excellent"`),
		"content_usefulness":  json.RawMessage(`"Very useful"`),
		"session_pace":        json.RawMessage(`"Just right"`),
		"recommend_workshop":  json.RawMessage(`true`),
		"future_topic":        json.RawMessage(`"Go generics"`),
	}
}

func TestNewSheetRow_AllFields(t *testing.T) {
	row := NewSheetRow(fullPayload(), capturedAt)

	encoded, err := EncodeRows(row)
	require.NoError(t, err)

	expected := `[{"Name":"Asha","Overall Experience":5,"Trainer Explanation":"Excellent",` +
		`"Content Usefulness":"Very useful","Session Pace":"Just right","Recommend Workshop":true,` +
		`"Future Topic":"Go generics","Timestamp":"10/18/2026, 3:04:05 PM"}]`
	assert.Equal(t, expected, encoded)
}

func TestNewSheetRow_ColumnsMatchPayload(t *testing.T) {
	payload := fullPayload()
	row := NewSheetRow(payload, capturedAt)

	for _, column := range Columns {
		value, ok := row.Value(column.Header)
		require.True(t, ok, column.Header)
		assert.JSONEq(t, string(payload[column.Field]), string(value), column.Header)
	}

	headers := make([]string, 0, len(Columns)+1)
	for _, cell := range row.Cells() {
		headers = append(headers, cell.Header)
	}
	assert.Equal(t, []string{
		"Name", "Overall Experience", "Trainer Explanation", "Content Usefulness",
		"Session Pace", "Recommend Workshop", "Future Topic", "Timestamp",
	}, headers)
}

func TestNewSheetRow_MissingFieldsAreOmitted(t *testing.T) {
	row := NewSheetRow(SurveyPayload{
		"name":         json.RawMessage(`"Ravi"`),
		"session_pace": json.RawMessage(`null`),
		"unknown":      json.RawMessage(`"ignored"`),
	}, capturedAt)

	encoded, err := EncodeRows(row)
	require.NoError(t, err)
	assert.Equal(t, `[{"Name":"Ravi","Session Pace":null,"Timestamp":"10/18/2026, 3:04:05 PM"}]`, encoded)
}

func TestNewSheetRow_EmptyPayloadStillStamped(t *testing.T) {
	row := NewSheetRow(nil, capturedAt)

	stamp, ok := row.Value(TimestampHeader)
	require.True(t, ok)
	assert.Equal(t, `"10/18/2026, 3:04:05 PM"`, string(stamp))
	assert.Len(t, row.Cells(), 1)
}

func TestNewSheetRow_TimestampUsesLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	row := NewSheetRow(nil, time.Date(2026, time.January, 2, 23, 45, 0, 0, time.UTC).In(ist))

	stamp, _ := row.Value(TimestampHeader)
	assert.Equal(t, `"1/3/2026, 5:15:00 AM"`, string(stamp))
}

func TestEncodeRows_KeepsValuesVerbatim(t *testing.T) {
	row := NewSheetRow(SurveyPayload{
		"name":         json.RawMessage(`"<b>Tom & Jerry</b>"`),
		"future_topic": json.RawMessage(`[1, 2,  3]`),
	}, capturedAt)

	encoded, err := EncodeRows(row)
	require.NoError(t, err)
	assert.Equal(t, `[{"Name":"<b>Tom & Jerry</b>","Future Topic":[1,2,3],"Timestamp":"10/18/2026, 3:04:05 PM"}]`, encoded)
}

func TestEncodeRows_Empty(t *testing.T) {
	encoded, err := EncodeRows()
	require.NoError(t, err)
	assert.Equal(t, `[]`, encoded)
}

func TestProviderCredentials_Defaults(t *testing.T) {
	creds := ProviderCredentials{}
	assert.Equal(t, "Sheet2", creds.Worksheet())
	assert.Equal(t, "in", creds.DC())

	creds = ProviderCredentials{WorksheetName: "Feedback", DataCenter: "com"}
	assert.Equal(t, "Feedback", creds.Worksheet())
	assert.Equal(t, "com", creds.DC())
}

func TestProviderCredentials_StringRedactsSecrets(t *testing.T) {
	creds := ProviderCredentials{
		ClientID:     "1000.CLIENT",
		ClientSecret: "top-secret",
		RefreshToken: "1000.refresh",
		WorkbookID:   "wb123",
	}

	for _, out := range []string{creds.String(), fmt.Sprintf("%v", creds), fmt.Sprintf("%#v", creds)} {
		assert.NotContains(t, out, "1000.CLIENT")
		assert.NotContains(t, out, "top-secret")
		assert.NotContains(t, out, "1000.refresh")
		assert.Contains(t, out, "wb123")
	}
	assert.Contains(t, ProviderCredentials{}.String(), "<missing>")
}

func TestError_KindAndMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("forward: %w", NewError(KindTransport, cause.Error(), cause))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, kind)
	assert.Equal(t, "dial tcp: connection refused", PublicMessage(err))
	assert.ErrorIs(t, err, cause)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, "plain", PublicMessage(errors.New("plain")))
	assert.Equal(t, "", PublicMessage(nil))
}
