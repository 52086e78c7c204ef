package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/edulink/backend/docs"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc))

	pass := func(next http.Handler) http.Handler { return next }
	routes, ok := (&API{}).Routes(pass, pass).(chi.Routes)
	require.True(t, ok)

	walked := 0
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		walked++
		ops, ok := doc.Paths[route]
		if assert.True(t, ok, "%s %s missing from swagger paths", method, route) {
			_, ok = ops[strings.ToLower(method)]
			assert.True(t, ok, "%s %s missing from swagger operations", method, route)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 20, walked)
}
