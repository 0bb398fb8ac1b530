package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

func TestClassifyAPIError(t *testing.T) {
	err := classify(fmt.Errorf("generate: %w", genai.APIError{Code: 429, Message: "quota"}))
	var se *svcerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, svcerr.KindRateLimit, se.Kind)
	assert.Equal(t, Name, se.Service)
	assert.True(t, se.Retryable)

	err = classify(&genai.APIError{Code: 403})
	assert.Equal(t, svcerr.KindUnavailable, svcerr.KindOf(err))
	assert.False(t, svcerr.IsRetryable(err))
}

func TestClassifyTransportAndDeadline(t *testing.T) {
	err := classify(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
	assert.Equal(t, svcerr.KindNetwork, svcerr.KindOf(err))

	err = classify(context.DeadlineExceeded)
	assert.Equal(t, svcerr.KindTimeout, svcerr.KindOf(err))

	err = classify(errors.New("weird"))
	assert.Equal(t, svcerr.KindProcessingFailed, svcerr.KindOf(err))
}

func TestNoKeyIsUnavailable(t *testing.T) {
	svc, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.False(t, svc.Available(context.Background()))
	assert.Equal(t, Name, svc.Name())

	_, err = svc.Translate(context.Background(), service.TranslateRequest{Text: "hi", From: "en", To: "es"})
	assert.Equal(t, svcerr.KindUnavailable, svcerr.KindOf(err))
}
