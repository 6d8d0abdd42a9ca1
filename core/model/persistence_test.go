package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedKnots struct {
	Name string
	Xs   []float64
	Qs   []float64
}

func TestSaveLoadModel(t *testing.T) {
	in := savedKnots{Name: "feature-0", Xs: []float64{1, 2, 3}, Qs: []float64{-0.9999, 0.0002, 0.9999}}

	for _, name := range []string{"model.gob", "model.gob" + CompressedExt} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveModel(in, path))

			var out savedKnots
			require.NoError(t, LoadModel(&out, path))
			assert.Equal(t, in, out)
		})
	}
}

func TestLoadModel_MissingFile(t *testing.T) {
	var out savedKnots
	err := LoadModel(&out, filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}

func TestLoadModel_WrongCompression(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "model.gob")
	require.NoError(t, SaveModel(savedKnots{Name: "x"}, plain))

	var out savedKnots
	assert.Error(t, LoadModelFromReader(&out, bytes.NewReader([]byte("not gob"))))
	assert.NoError(t, LoadModel(&out, plain))
}
