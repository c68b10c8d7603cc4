package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/pkg/application"
	"github.com/motu-crew/crewboard/pkg/configuration"
)

func TestDefault_UnknownRouteUsesErrorEnvelope(t *testing.T) {
	conf, err := configuration.Parse(env.Options{Environment: map[string]string{
		"RATE_LIMIT_ENABLED": "true",
		"CORS_ORIGINS":       "http://localhost:3000",
	}})
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.PanicLevel)
	app := application.New(&application.ApplicationOptions{Logger: logger})

	srv, err := Default(&DefaultOptions{Logger: logger, Configuration: conf, Application: app})
	require.NoError(t, err)
	assert.Len(t, app.Middleware(), 5)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("X-Request-ID", "req-1")
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Code string            `json:"code"`
		Meta map[string]string `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, "req-1", body.Meta["request_id"])
}
