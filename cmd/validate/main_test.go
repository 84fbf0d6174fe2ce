package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/hazard-score/internal/classifier"
	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(dir string) Options {
	return Options{
		LayerDir:   dir,
		FloodLayer: "flood.geojson",
		FireLayer:  "fire.geojson",
		QuakeLayer: "quake.geojson",
		StormLayer: "storm.geojson",
		BBox:       "-122.0,38.35,-121.50,38.70",
		Grid:       6,
	}
}

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, layers.WriteSet(layers.Sample(domain.DefaultTrainingBBox), layers.DefaultPaths(dir)))
	return dir
}

func TestRun_SampleLayersPass(t *testing.T) {
	var out bytes.Buffer

	code := run(testOptions(writeSample(t)), &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_MissingLayerFails(t *testing.T) {
	dir := writeSample(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "fire.geojson")))
	var out bytes.Buffer

	code := run(testOptions(dir), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Layer files load")
	assert.Contains(t, out.String(), "fire")
}

func TestRun_BadAttributeFails(t *testing.T) {
	dir := writeSample(t)
	bad := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{"PGA_G":-1}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quake.geojson"), []byte(bad), 0o600))
	var out bytes.Buffer

	code := run(testOptions(dir), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Layer geometry and attributes")
}

func TestRun_ConstantModelAgreement(t *testing.T) {
	dir := writeSample(t)
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, classifier.Save(classifier.NewConstant(domain.LabelLow), modelPath))

	opts := testOptions(dir)
	opts.ModelPath = modelPath

	var out bytes.Buffer
	assert.Equal(t, 0, run(opts, &out), out.String())
	assert.Contains(t, out.String(), "grid points agree")

	opts.MinAgreement = 1.01
	out.Reset()
	assert.Equal(t, 1, run(opts, &out))
	assert.Contains(t, out.String(), "below minimum")
}

func TestRun_UnreadableModelFails(t *testing.T) {
	dir := writeSample(t)
	opts := testOptions(dir)
	opts.ModelPath = filepath.Join(dir, "missing.json")
	var out bytes.Buffer

	assert.Equal(t, 1, run(opts, &out))
	assert.Contains(t, out.String(), "Model artifact")
}
