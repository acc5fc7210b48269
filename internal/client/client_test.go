package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dealership/internal/model"
	"dealership/internal/service"
	"dealership/internal/wizard"
	"dealership/pkg/apperror"
	"dealership/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubmitApplication(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/applications", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var values map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&values))
		assert.Equal(t, "Raj", values["firstName"])

		writeJSON(w, http.StatusCreated, response.Success(http.StatusCreated, model.Application{TrackingID: "DLR-0A1B2C3D"}))
	})

	id, err := c.SubmitApplication(context.Background(), wizard.Values{"firstName": "Raj"})
	require.NoError(t, err)
	assert.Equal(t, "DLR-0A1B2C3D", id)
}

func TestSubmitApplication_ValidationFields(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		status, body := response.FromError(apperror.Validation(map[string]string{"panNumber": "Invalid PAN Number"}))
		writeJSON(w, status, body)
	})

	_, err := c.SubmitApplication(context.Background(), wizard.Values{})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "Invalid PAN Number", apperror.FieldsOf(err)["panNumber"])
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.False(t, appErr.Retryable)
}

func TestTrack(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applications/track/DLR-0A1B2C3D", r.URL.Path)
		writeJSON(w, http.StatusOK, response.Success(http.StatusOK, service.TrackingResponse{
			Application: &model.Application{TrackingID: "DLR-0A1B2C3D", Status: model.StatusApproved},
		}))
	})

	res, err := c.Track(context.Background(), " dlr-0a1b2c3d")
	require.NoError(t, err)
	require.NotNil(t, res.Application)
	assert.Equal(t, model.StatusApproved, res.Status)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      error
		retryable bool
	}{
		{"not found", http.StatusNotFound, `{"status":"error","error":"application not found"}`, apperror.ErrNotFound, false},
		{"conflict", http.StatusConflict, `{"status":"error","error":"already pending"}`, apperror.ErrConflict, false},
		{"unprocessable", http.StatusUnprocessableEntity, `{"status":"error"}`, apperror.ErrValidation, false},
		{"transition", http.StatusBadRequest, `{"status":"error","code":"INVALID_TRANSITION","error":"no"}`, apperror.ErrInvalidTransition, false},
		{"server error", http.StatusInternalServerError, `{"status":"error","error":"Internal server error"}`, apperror.ErrTransport, true},
		{"gateway html", http.StatusBadGateway, `<html>bad gateway</html>`, apperror.ErrTransport, true},
		{"malformed success", http.StatusOK, `not json`, apperror.ErrTransport, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Track(context.Background(), "DLR-0A1B2C3D")
			require.ErrorIs(t, err, tt.want)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.retryable, appErr.Retryable)
			assert.NotEmpty(t, appErr.Message)
		})
	}
}

func TestNetworkFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Track(context.Background(), "DLR-0A1B2C3D")
	require.ErrorIs(t, err, apperror.ErrTransport)
	appErr, _ := apperror.As(err)
	assert.True(t, appErr.Retryable)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.SubmitSupport(context.Background(), service.CreateSupportRequest{Name: "Raj"})
	assert.ErrorIs(t, err, apperror.ErrTransport)
}

func TestClientDrivesWizard(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, response.Success(http.StatusCreated, model.Application{TrackingID: "DLR-FEEDBEEF"}))
	})

	var submitter wizard.Submitter = c
	id, err := submitter.Submit(context.Background(), wizard.Values{})
	require.NoError(t, err)
	assert.Equal(t, "DLR-FEEDBEEF", id)
}
