package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerServesPage(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `<script defer src="app.js"></script>`)
}

func TestAssetsSpeakTheSocketProtocol(t *testing.T) {
	script, err := fs.ReadFile(Assets(), "app.js")
	require.NoError(t, err)

	for _, event := range []string{
		"map.ready", "geolocation.failed", "map.click", "form.submit", "form.cancel",
		"form.type_changed", "workout.delete", "workout.edit", "workout.focus",
		"workouts.clear", "confirm.result",
	} {
		require.Containsf(t, string(script), "'"+event+"'", "page never sends %s", event)
	}
}
