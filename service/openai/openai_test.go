package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

func apiError(code int) *openai.Error {
	return &openai.Error{
		StatusCode: code,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: code},
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want svcerr.Kind
	}{
		{apiError(429), svcerr.KindRateLimit},
		{apiError(502), svcerr.KindNetwork},
		{apiError(401), svcerr.KindUnavailable},
		{apiError(400), svcerr.KindInvalidInput},
		{&net.OpError{Op: "read", Net: "tcp", Err: errors.New("reset")}, svcerr.KindNetwork},
		{context.DeadlineExceeded, svcerr.KindTimeout},
		{errors.New("other"), svcerr.KindProcessingFailed},
	}
	for _, tc := range cases {
		err := classify(tc.err)
		var se *svcerr.Error
		require.True(t, errors.As(err, &se))
		assert.Equal(t, tc.want, se.Kind)
		assert.Equal(t, Name, se.Service)
	}
}

func TestNoKeyIsUnavailable(t *testing.T) {
	svc := New(Config{})
	assert.False(t, svc.Available(context.Background()))

	_, err := svc.Summarize(context.Background(), service.SummarizeRequest{Text: "article"})
	assert.Equal(t, svcerr.KindUnavailable, svcerr.KindOf(err))
	assert.ErrorIs(t, err, &svcerr.Error{Kind: svcerr.KindUnavailable, Service: Name})
}
