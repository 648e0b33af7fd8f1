package model

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

func trainedArtifact(t *testing.T) *Artifact {
	t.Helper()
	a, err := newTestTrainer(DefaultTrainOptions()).Train(syntheticDataset(150, 11))
	require.NoError(t, err)
	return a
}

func sampleRecord() map[string]float64 {
	return map[string]float64{
		"avg_wind_dir": 215,
		"precip":       0.12,
		"pot_evapot":   0.18,
		"min_rel_hum":  48,
		"Tlag_1":       61.5,
		"Tlag_2":       60.9,
	}
}

func TestArtifact_PredictOne_MissingFeature(t *testing.T) {
	a := trainedArtifact(t)
	rec := sampleRecord()
	delete(rec, "Tlag_2")

	got, err := a.PredictOne(rec)
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
	assert.Zero(t, got)

	var mismatch *domain.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"Tlag_2"}, mismatch.Missing)
	assert.Empty(t, mismatch.Unexpected)
}

func TestArtifact_PredictOne_ExtraFeature(t *testing.T) {
	a := trainedArtifact(t)
	rec := sampleRecord()
	rec["avg_air_temp"] = 70

	_, err := a.PredictOne(rec)
	var mismatch *domain.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"avg_air_temp"}, mismatch.Unexpected)
}

func TestArtifact_PredictOne_MatchesGroundTruth(t *testing.T) {
	a := trainedArtifact(t)
	rec := sampleRecord()
	x := []float64{rec["avg_wind_dir"], rec["precip"], rec["pot_evapot"], rec["min_rel_hum"], rec["Tlag_1"], rec["Tlag_2"]}

	got, err := a.PredictOne(rec)
	require.NoError(t, err)
	assert.InDelta(t, groundTruth(x), got, 1e-6)
}

func TestArtifact_PredictBatch_MatchesPredictOne(t *testing.T) {
	a := trainedArtifact(t)
	r1 := sampleRecord()
	r2 := sampleRecord()
	r2["precip"] = 1.4
	r2["Tlag_1"] = 40

	batch, err := a.PredictBatch([]map[string]float64{r1, r2})
	require.NoError(t, err)

	p1, err := a.PredictOne(r1)
	require.NoError(t, err)
	p2, err := a.PredictOne(r2)
	require.NoError(t, err)

	if diff := cmp.Diff([]float64{p1, p2}, batch); diff != "" {
		t.Fatalf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestArtifact_PredictBatch_RejectsBadRecord(t *testing.T) {
	a := trainedArtifact(t)
	bad := sampleRecord()
	delete(bad, "precip")

	out, err := a.PredictBatch([]map[string]float64{sampleRecord(), bad})
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "record 1")
	assert.Nil(t, out)
}

func TestCodec_RoundTripPredictsIdentically(t *testing.T) {
	a := trainedArtifact(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, a))
	loaded, err := Decode(&buf)
	require.NoError(t, err)

	before, err := a.PredictOne(sampleRecord())
	require.NoError(t, err)
	after, err := loaded.PredictOne(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, before, after) //nolint:testifylint // exact equality is the contract
	assert.Equal(t, a.Coefficients, loaded.Coefficients)
	assert.Equal(t, a.Schema, loaded.Schema)
	assert.True(t, a.TrainedAt.Equal(loaded.TrainedAt))
}

func TestCodec_RejectsOtherVersion(t *testing.T) {
	a := trainedArtifact(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, a))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	raw["format_version"] = FormatVersion + 1
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, domain.ErrIncompatibleArtifact)
}

func TestCodec_RejectsMissingVersion(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte(`{"station_id":"St.Louis"}`)))
	assert.ErrorIs(t, err, domain.ErrIncompatibleArtifact)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not json")))
	assert.ErrorIs(t, err, domain.ErrIncompatibleArtifact)
}

func TestCodec_RejectsReorderedSchemaLength(t *testing.T) {
	a := trainedArtifact(t)
	broken := *a
	broken.Schema = a.Schema[:5]

	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, &broken), domain.ErrIncompatibleArtifact)
}

func TestCodec_RejectsCoefficientCount(t *testing.T) {
	a := trainedArtifact(t)
	broken := *a
	broken.Coefficients = a.Coefficients[:10]

	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, &broken), domain.ErrIncompatibleArtifact)
}
