package csvsource_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/soil-temp-model/internal/adapter/csvsource"
	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestSource_Stations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, csvsource.StationFile,
		"station_name,location,elevation\n"+
			"St.Louis,\"St.Clair, Monroe, Madison\",130\n"+
			"Peoria ,Peoria,200\n")

	got, err := csvsource.New(dir, discardLogger()).Stations(context.Background())
	require.NoError(t, err)

	want := []domain.StationRecord{
		{ID: "St.Louis", Location: "St.Clair, Monroe, Madison"},
		{ID: "Peoria", Location: "Peoria"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stations mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_SoilObservations_FiltersRegionsAndParsesValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, csvsource.SoilFile,
		"date,county,station,avg_soil_temp_8in_sod,avg_soil_temp_4in_bare,year\n"+
			"2023-01-01,Monroe,STL,33.5,31,2023\n"+
			"2023-01-02,Peoria,PIA,30,29,2023\n"+
			"2023-01-02,Monroe,STL,,NaN,2023\n")

	got, err := csvsource.New(dir, discardLogger()).SoilObservations(context.Background(), []domain.Region{"Monroe"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, domain.Region("Monroe"), got[0].Region)
	assert.Equal(t, map[string]float64{
		domain.TargetColumn:      33.5,
		"avg_soil_temp_4in_bare": 31,
		"year":                   2023,
	}, got[0].Values)

	// Blank and NaN cells are absent; the text station column never appears.
	assert.Equal(t, map[string]float64{"year": 2023}, got[1].Values)
}

func TestSource_WeatherObservations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, csvsource.WeatherFile,
		"\ufeffdate,county,avg_wind_dir,precip,pot_evapot,min_rel_hum\n"+
			"1/3/2023,Madison,180,0.1,0.05,48\n"+
			"2023-01-04 00:00:00,Madison,190,0,0.06,51\n")

	got, err := csvsource.New(dir, discardLogger()).WeatherObservations(context.Background(), []domain.Region{"Madison"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2023, time.January, 3, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, time.Date(2023, time.January, 4, 0, 0, 0, 0, time.UTC), got[1].Date)
	assert.InDelta(t, 51.0, got[1].Values[domain.ColumnMinRelHumid], 0)
}

func TestSource_MissingFileIsStorageError(t *testing.T) {
	_, err := csvsource.New(t.TempDir(), discardLogger()).Stations(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_BadDateNamesTheLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, csvsource.SoilFile,
		"date,county,avg_soil_temp_8in_sod\n"+
			"2023-01-01,Monroe,33\n"+
			"yesterday,Monroe,34\n")

	_, err := csvsource.New(dir, discardLogger()).SoilObservations(context.Background(), []domain.Region{"Monroe"})
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.Contains(t, err.Error(), "line 3")
}

func TestSource_MissingCountyColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, csvsource.WeatherFile, "date,precip\n2023-01-01,0.2\n")

	_, err := csvsource.New(dir, discardLogger()).WeatherObservations(context.Background(), []domain.Region{"Monroe"})
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.Contains(t, err.Error(), "county")
}

func TestSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := csvsource.New(t.TempDir(), discardLogger()).Stations(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
