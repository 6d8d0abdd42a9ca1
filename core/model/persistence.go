package model

import (
	"encoding/gob"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// CompressedExt is the file suffix that selects zstd compression in
// SaveModel and LoadModel.
const CompressedExt = ".zst"

// SaveModel gob-encodes model into filename. Filenames ending in ".zst"
// are zstd-compressed.
//
//	scaler := preprocessing.NewGaussRankScaler()
//	// ... fit ...
//	err := model.SaveModel(scaler, "scaler.gob.zst")
func SaveModel(model interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", filename)
		}
	}()

	if !strings.HasSuffix(filename, CompressedExt) {
		return SaveModelToWriter(model, file)
	}

	zw, err := zstd.NewWriter(file)
	if err != nil {
		return errors.Wrap(err, "failed to create zstd writer")
	}
	if err := SaveModelToWriter(model, zw); err != nil {
		zw.Close()
		return err
	}
	return errors.Wrap(zw.Close(), "failed to flush zstd stream")
}

// LoadModel decodes a model written by SaveModel into model, which must be
// a pointer.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()

	if !strings.HasSuffix(filename, CompressedExt) {
		return LoadModelFromReader(model, file)
	}

	zr, err := zstd.NewReader(file)
	if err != nil {
		return errors.Wrap(err, "failed to create zstd reader")
	}
	defer zr.Close()
	return LoadModelFromReader(model, zr)
}

// SaveModelToWriter gob-encodes model into w.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader gob-decodes a model from r into model.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
