package authority

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-service/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDispatch_unconfiguredRelayIsNoop(t *testing.T) {
	r := NewRelay("", "", 0, nil, testLogger())
	res := r.Dispatch(context.Background(), Payload{Message: "help"})
	assert.False(t, res.Enabled)

	var nilRelay *Relay
	res = nilRelay.Dispatch(context.Background(), Payload{Message: "help"})
	assert.False(t, res.Enabled)
}

func TestDispatch_postsPayloadWithBearerToken(t *testing.T) {
	var gotAuth string
	var gotPayload Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRelay(srv.URL, "secret-token", time.Second, nil, testLogger())
	res := r.Dispatch(context.Background(), Payload{
		Message:  "help",
		Contacts: []models.DispatchContact{{ID: "c1", Name: "Alice"}},
	})

	assert.True(t, res.Enabled)
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "help", gotPayload.Message)
	assert.Contains(t, gotPayload.Meta, "ts")
}

func TestDispatch_non2xxIsReportedNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	r := NewRelay(srv.URL, "", time.Second, nil, testLogger())
	res := r.Dispatch(context.Background(), Payload{Message: "help"})

	assert.True(t, res.Enabled)
	assert.False(t, res.OK)
	assert.Equal(t, "HTTP_502:upstream down", res.Error)
}

func TestDispatch_timesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRelay(srv.URL, "", 50*time.Millisecond, nil, testLogger())
	res := r.Dispatch(context.Background(), Payload{Message: "help"})

	assert.True(t, res.Enabled)
	assert.False(t, res.OK)
	assert.Equal(t, "TIMEOUT", res.Error)
}
