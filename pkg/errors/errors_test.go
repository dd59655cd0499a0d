package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code      int
		wantType  ErrorType
		retryable bool
	}{
		{408, ErrorTypeNetwork, true},
		{429, ErrorTypeRateLimit, true},
		{500, ErrorTypeServerError, true},
		{503, ErrorTypeServerError, true},
		{403, ErrorTypeClient, false},
		{404, ErrorTypeClient, false},
		{302, ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			err := FromStatusCode(tt.code)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.retryable, IsRetryable(err.Type))
		})
	}
}

func TestTypeOfWrapped(t *testing.T) {
	cause := stderrors.New("connection reset by peer")
	err := fmt.Errorf("fetch page 7: %w", New(ErrorTypeNetwork, cause, "request failed"))

	assert.Equal(t, ErrorTypeNetwork, TypeOf(err))
	assert.True(t, IsType(err, ErrorTypeNetwork))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.False(t, IsType(nil, ErrorTypeNetwork))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "server_error error (code 502): unexpected status 502 Bad Gateway", FromStatusCode(502).Error())
	assert.Equal(t, "io error: write page 3", New(ErrorTypeIO, nil, "write page %d", 3).Error())
}
