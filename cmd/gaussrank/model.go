package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/YuminosukeSato/gaussrank/core/model"
	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

const jsonExt = ".json"

// saveScaler writes s as JSON when path ends in ".json" and as gob
// otherwise.
func saveScaler(s *preprocessing.GaussRankScaler, path string) error {
	if !strings.HasSuffix(path, jsonExt) {
		return model.SaveModel(s, path)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode scaler")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "failed to write %s", path)
}

// loadScaler reads a fitted scaler written by saveScaler. opts are
// applied before decoding, so only options that are not saved with the
// scaler (logger, metrics) survive.
func loadScaler(path string, opts ...preprocessing.Option) (*preprocessing.GaussRankScaler, error) {
	s := preprocessing.NewGaussRankScaler(opts...)
	if strings.HasSuffix(path, jsonExt) {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		if err := json.Unmarshal(data, s); err != nil {
			return nil, err
		}
	} else if err := model.LoadModel(s, path); err != nil {
		return nil, err
	}
	if !s.IsFitted() {
		return nil, errors.NewValueError("loadScaler", path+" holds an unfitted scaler")
	}
	return s, nil
}
