package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alerts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	err := c.Send(context.Background(), Alert{
		StudentID:   "s1",
		StudentName: "Ada",
		CourseCode:  "CS101",
		Percentage:  42.5,
		Band:        "Critical",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.StudentID)
	assert.Equal(t, 42.5, got.Percentage)
}

func TestSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	assert.Error(t, c.Send(context.Background(), Alert{}))
}

func TestSkipMode(t *testing.T) {
	c := New("http://127.0.0.1:1", true)
	assert.NoError(t, c.Send(context.Background(), Alert{}))
	assert.NoError(t, c.Health(context.Background()))
}
