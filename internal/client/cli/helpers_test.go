package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tripsync/internal/client/state"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

func TestParseEntityType(t *testing.T) {
	et, err := parseEntityType(" packages ")
	require.NoError(t, err)
	assert.Equal(t, api.EntityPackages, et)

	for _, bad := range []string{"", "Bad", "a/b", "with space"} {
		_, err := parseEntityType(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, filters)

	filters, err = parseFilters([]string{"country=PT", "q=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"country": "PT", "q": "a=b", "empty": ""}, filters)

	_, err = parseFilters([]string{"=x"})
	assert.Error(t, err)
	_, err = parseFilters([]string{"novalue"})
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	e := models.Entity{
		"id":         "d-1",
		"name":       "Lisbon",
		"rating":     4.5,
		"created_at": "2026-01-01T00:00:00Z",
		"tags":       []any{"sea"},
	}
	assert.Equal(t, `name="Lisbon" rating=4.5 tags=["sea"]`, summary(e))
	assert.Equal(t, "", summary(models.Entity{"id": "x"}))
}

func TestDescribePayload(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		payload any
		want    string
	}{
		{[]models.Entity{{"id": "1"}, {"id": "2"}}, "2 item(s)"},
		{models.Entity{"id": "7"}, "id=7"},
		{state.FetchErrorPayload{Err: boom, Message: "boom"}, "error: boom"},
		{state.CreateCompletePayload{Entity: models.Entity{"id": "srv"}, TempID: "temp_1"}, "id=srv (was temp_1)"},
		{state.CreateErrorPayload{Err: boom, TempID: "temp_1"}, "id=temp_1 error: boom"},
		{state.UpdateErrorPayload{Err: boom, ID: "3"}, "id=3 error: boom"},
		{state.DeletePayload{ID: "4"}, "id=4"},
		{state.DeleteErrorPayload{Err: boom, ID: "5"}, "id=5 error: boom"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describePayload(tt.payload))
	}
}
