package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

func TestFuncsCapabilitiesFollowFunctions(t *testing.T) {
	f := &service.Funcs{
		ID: "mock",
		TranslateFunc: func(_ context.Context, req service.TranslateRequest) (string, error) {
			return req.Text + "!", nil
		},
	}
	caps := f.Capabilities(context.Background())
	assert.True(t, caps.Translate)
	assert.True(t, caps.Supports(service.TaskTranslateBatch))
	assert.False(t, caps.Summarize)
	assert.False(t, caps.Supports(service.TaskVocabulary))

	got, err := f.Translate(context.Background(), service.TranslateRequest{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)
}

func TestFuncsMissingCapabilityIsUnavailable(t *testing.T) {
	f := &service.Funcs{ID: "mock"}
	_, err := f.Summarize(context.Background(), service.SummarizeRequest{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, svcerr.KindUnavailable, svcerr.KindOf(err))
	assert.ErrorIs(t, err, &svcerr.Error{Kind: svcerr.KindUnavailable, Service: "mock"})
	assert.False(t, svcerr.IsRetryable(err))
}

func TestFuncsProbe(t *testing.T) {
	ctx := context.Background()
	assert.True(t, (&service.Funcs{ID: "a"}).Available(ctx))
	assert.False(t, (&service.Funcs{ID: "b", Probe: func(context.Context) bool { return false }}).Available(ctx))
}
