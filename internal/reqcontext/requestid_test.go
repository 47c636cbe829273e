package reqcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetOrGenerateRequestID(t *testing.T) {
	tests := []struct {
		name        string
		providedID  string
		expectReuse bool
	}{
		{"valid provided id is reused", "abc-123_DEF", true},
		{"empty id generates a new one", "", false},
		{"oversized id generates a new one", string(make([]byte, 300)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetOrGenerateRequestID(tt.providedID)
			assert.NotEmpty(t, got)
			if tt.expectReuse {
				assert.Equal(t, tt.providedID, got)
			} else {
				assert.NotEqual(t, tt.providedID, got)
			}
		})
	}
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "", GetRequestID(context.Background()))
	assert.Equal(t, "", GetRequestID(nil))
}

func TestLoggerContextRoundTrip(t *testing.T) {
	logger := zap.NewExample().Sugar()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.NotNil(t, GetLogger(context.Background()))
	assert.NotNil(t, GetLogger(nil))
}
