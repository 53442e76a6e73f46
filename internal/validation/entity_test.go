package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEntityType(t *testing.T) {
	tests := []struct {
		name       string
		entityType string
		errMsg     string
		wantErr    bool
	}{
		{
			name:       "valid - destinations",
			entityType: "destinations",
			wantErr:    false,
		},
		{
			name:       "valid - with underscore and hyphen",
			entityType: "tour_packages-v2",
			wantErr:    false,
		},
		{
			name:       "valid - single char",
			entityType: "a",
			wantErr:    false,
		},
		{
			name:       "valid - max length",
			entityType: strings.Repeat("a", 64),
			wantErr:    false,
		},
		{
			name:       "invalid - empty",
			entityType: "",
			wantErr:    true,
			errMsg:     "entity type cannot be empty",
		},
		{
			name:       "invalid - too long",
			entityType: strings.Repeat("a", 65),
			wantErr:    true,
			errMsg:     "must not exceed 64 characters",
		},
		{
			name:       "invalid - uppercase",
			entityType: "Destinations",
			wantErr:    true,
			errMsg:     "lowercase letters",
		},
		{
			name:       "invalid - slash",
			entityType: "destinations/1",
			wantErr:    true,
			errMsg:     "lowercase letters",
		},
		{
			name:       "invalid - wildcard",
			entityType: "*",
			wantErr:    true,
			errMsg:     "lowercase letters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityType(tt.entityType)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateEntityID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		errMsg  string
		wantErr bool
	}{
		{name: "valid - uuid", id: "5b0f4a4e-3f0e-4b1e-9a57-8a1d0b3c2f11"},
		{name: "valid - numeric", id: "42"},
		{name: "valid - temp id", id: "temp_5b0f4a4e"},
		{name: "invalid - empty", id: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "invalid - spaces", id: "   ", wantErr: true, errMsg: "cannot be empty"},
		{name: "invalid - too long", id: strings.Repeat("x", 129), wantErr: true, errMsg: "must not exceed"},
		{name: "invalid - slash", id: "a/b", wantErr: true, errMsg: "cannot contain"},
		{name: "invalid - query", id: "a?b=1", wantErr: true, errMsg: "cannot contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityID(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
