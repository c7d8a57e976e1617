// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/httpapi/mocks"
)

// runServer starts a server, sends one login request and stops it.
func runServer(t *testing.T) {
	t.Helper()
	svc := mocks.NewMockService(t)
	svc.On("Login", mock.Anything, "alice", "pw").Return(nil, kindErr(auth.KindInvalidCredentials)).Once()

	server := NewServer("127.0.0.1:0", NewHandler(svc))
	errCh, err := server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr())

	_, err = server.Start()
	require.Error(t, err)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+server.Addr()+BasePath+"/login", "application/json",
		strings.NewReader(`{"username":"alice","password":"pw"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for server to exit")
	}
}

func TestServer_Lifecycle(t *testing.T) {
	// The first run starts process-wide helpers that outlive any one server.
	runServer(t)
	ignore := goleak.IgnoreCurrent()

	runServer(t)
	// fasthttp's idle-worker cleaner sleeps out its interval after shutdown.
	goleak.VerifyNone(t, ignore,
		goleak.IgnoreAnyFunction("github.com/valyala/fasthttp.(*workerPool).Start.func2"))
}

func TestServer_ListenFailure(t *testing.T) {
	server := NewServer("256.0.0.1:bad", NewHandler(mocks.NewMockService(t)))

	_, err := server.Start()
	require.Error(t, err)
	assert.Empty(t, server.Addr())
}
