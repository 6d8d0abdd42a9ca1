package preprocessing

import (
	"bytes"
	"encoding/gob"
	"encoding/json"

	"github.com/YuminosukeSato/gaussrank/core/model"
	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// snapshotVersion is bumped whenever scalerSnapshot changes incompatibly.
const snapshotVersion = 1

// scalerSnapshot is the serialized form of a GaussRankScaler. Only the
// control points of each mapping are stored; interpolators are rebuilt
// on decode.
type scalerSnapshot struct {
	Version  int               `json:"version"`
	Params   Config            `json:"params"`
	State    model.ModelState  `json:"state"`
	Features []featureSnapshot `json:"features,omitempty"`
}

type featureSnapshot struct {
	Xs   []float64 `json:"xs"`
	Qs   []float64 `json:"qs"`
	Kind string    `json:"kind"`
}

func (s *GaussRankScaler) snapshot() scalerSnapshot {
	snap := scalerSnapshot{
		Version: snapshotVersion,
		Params:  s.Config(),
		State:   s.state.GetState(),
	}
	for _, m := range s.mappings {
		snap.Features = append(snap.Features, featureSnapshot{Xs: m.xs, Qs: m.qs, Kind: string(m.requested)})
	}
	return snap
}

// restore replaces the scaler's parameters and mappings with snap. On
// error the scaler is left unchanged.
func (s *GaussRankScaler) restore(snap scalerSnapshot) error {
	if snap.Version != snapshotVersion {
		return errors.NewValueError(modelName+".restore", "unsupported snapshot version")
	}
	if err := snap.Params.Validate(); err != nil {
		return err
	}
	if snap.State.Fitted && len(snap.Features) != snap.State.NFeatures {
		return errors.NewDimensionError(modelName+".restore", snap.State.NFeatures, len(snap.Features), 1)
	}

	bound := 1 - snap.Params.Epsilon
	mappings := make([]*FeatureMapping, 0, len(snap.Features))
	for j, f := range snap.Features {
		kind, err := ParseInterpKind(f.Kind)
		if err != nil {
			return err
		}
		if err := validateKnots(f.Xs, f.Qs, bound); err != nil {
			return errors.Wrapf(err, "feature %d", j)
		}
		m, err := newFeatureMapping(f.Xs, f.Qs, bound, kind, snap.Params.InterpCopy)
		if err != nil {
			return errors.Wrapf(err, "feature %d", j)
		}
		mappings = append(mappings, m)
	}

	if s.state == nil {
		s.state = model.NewStateManager()
	}
	if s.logger == nil {
		s.initLogger()
	}
	for _, opt := range snap.Params.Options() {
		opt(s)
	}
	s.state.SetState(snap.State)
	s.mappings = nil
	if snap.State.Fitted {
		s.mappings = mappings
	}
	return nil
}

// GobEncode implements gob.GobEncoder so a scaler can be saved with
// model.SaveModel.
func (s *GaussRankScaler) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.snapshot()); err != nil {
		return nil, errors.Wrap(err, "failed to encode GaussRankScaler")
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (s *GaussRankScaler) GobDecode(data []byte) error {
	var snap scalerSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return errors.Wrap(err, "failed to decode GaussRankScaler")
	}
	return s.restore(snap)
}

// MarshalJSON implements json.Marshaler.
func (s *GaussRankScaler) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.snapshot())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *GaussRankScaler) UnmarshalJSON(data []byte) error {
	var snap scalerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "failed to decode GaussRankScaler")
	}
	return s.restore(snap)
}
