package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapAndCompareEnvelopes(t *testing.T) {
	goPayload, err := unwrap([]byte(`{"data":[{"id":"a","fitness":1000,"entries":[]}],"pagination":{"page":1}}`), "data")
	require.NoError(t, err)
	legacyPayload, err := unwrap([]byte(`{"success":true,"timetables":[{"id":"b","fitness":1000.0,"entries":[]}]}`), "timetables")
	require.NoError(t, err)

	assert.True(t, payloadsEqual(goPayload, legacyPayload, []string{"id"}))
	assert.False(t, payloadsEqual(goPayload, legacyPayload, nil))
}

func TestCompareTargetReportsStatusMismatch(t *testing.T) {
	goSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND"}}`))
	}))
	defer goSrv.Close()
	legacySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"timetable":{}}`))
	}))
	defer legacySrv.Close()

	comp := compareTarget(goSrv.Client(), endpoints{goBase: goSrv.URL, legacyBase: legacySrv.URL}, target{Method: "GET", Path: "/timetables/x", LegacyKey: "-"})
	require.NoError(t, comp.Error)
	assert.False(t, comp.StatusMatch)
	assert.True(t, comp.BodyMatch)
	assert.Equal(t, http.StatusNotFound, comp.GoStatus)
}
