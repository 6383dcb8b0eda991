package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/store"
)

func TestGetSettings_Defaults(t *testing.T) {
	server, _, _ := newCandidateTestServer(t, &mockCandidateService{})

	resp, err := http.Get(server.URL + "/api/settings")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var settings SettingsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&settings))
	assert.Equal(t, "gemini-2.5-flash", settings.ModelID)
	assert.False(t, settings.APIKeySet)
}

func TestUpdateSettings_KeepsKeyWhenOmitted(t *testing.T) {
	server, metadata, _ := newCandidateTestServer(t, &mockCandidateService{})

	require.NoError(t, store.SaveSettings(context.Background(), metadata, domain.Settings{
		APIKey:  "secret-api-key",
		ModelID: "gemini-2.5-flash",
	}))

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/settings",
		jsonBody(t, map[string]interface{}{"model_id": "gemini-2.5-pro"}))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body SettingsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "gemini-2.5-pro", body.ModelID)
	assert.True(t, body.APIKeySet)

	stored, err := store.LoadSettings(context.Background(), metadata)
	require.NoError(t, err)
	assert.Equal(t, "secret-api-key", stored.APIKey, "omitted key must not be wiped")
}

func TestUpdateWeights_ComputesHash(t *testing.T) {
	server, metadata, _ := newCandidateTestServer(t, &mockCandidateService{})

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/weights",
		jsonBody(t, map[string]interface{}{
			"name": "senior-backend",
			"values": map[string]float64{
				"experience": 0.6,
				"skills":     0.4,
			},
		}))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := store.LoadWeights(context.Background(), metadata)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "senior-backend", stored.Name)
	assert.Len(t, stored.Hash, 12)
}

func TestGetWeights_NotConfigured(t *testing.T) {
	server, _, _ := newCandidateTestServer(t, &mockCandidateService{})

	resp, err := http.Get(server.URL + "/api/weights")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWeightsHash_Stable(t *testing.T) {
	a := weightsHash(map[string]float64{"experience": 0.6, "skills": 0.4})
	b := weightsHash(map[string]float64{"skills": 0.4, "experience": 0.6})
	c := weightsHash(map[string]float64{"skills": 0.5, "experience": 0.5})

	assert.Equal(t, a, b, "hash must not depend on map order")
	assert.NotEqual(t, a, c)
}
