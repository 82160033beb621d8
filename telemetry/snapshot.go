package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/lumen/geometry"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// FieldOptions is the JSON form of geometry.Options.
type FieldOptions struct {
	Count        int     `json:"count"`
	SpawnRadius  float64 `json:"spawn_radius"`
	InitialSpeed float64 `json:"initial_speed"`
	Damping      float64 `json:"damping"`
	LifetimeMin  float64 `json:"lifetime_min"`
	LifetimeMax  float64 `json:"lifetime_max"`
	Seed         int64   `json:"seed"`
	Position     string  `json:"position"`
	Velocity     string  `json:"velocity"`
}

// Snapshot holds a particle field at one frame for replay and inspection.
type Snapshot struct {
	Version int          `json:"version"`
	Options FieldOptions `json:"options"`

	Frame int32   `json:"frame"`
	Time  float32 `json:"time"`

	Positions  []float32 `json:"positions"`
	Velocities []float32 `json:"velocities"`
	Lifetimes  []float32 `json:"lifetimes"`
	Seeds      []float32 `json:"seeds"`
	Dampings   []float32 `json:"dampings"`
	Masses     []float32 `json:"masses"`
	Phases     []float32 `json:"phases"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// NewSnapshot copies the field's buffers.
func NewSnapshot(f *geometry.Field, frame int32, simTime float32) *Snapshot {
	o := f.Options()
	b := f.Buffers
	return &Snapshot{
		Version: SnapshotVersion,
		Options: FieldOptions{
			Count:        o.Count,
			SpawnRadius:  o.SpawnRadius,
			InitialSpeed: o.InitialSpeed,
			Damping:      o.Damping,
			LifetimeMin:  o.LifetimeMin,
			LifetimeMax:  o.LifetimeMax,
			Seed:         o.Seed,
			Position:     o.Position.String(),
			Velocity:     o.Velocity.String(),
		},
		Frame:      frame,
		Time:       simTime,
		Positions:  clone(b.Positions),
		Velocities: clone(b.Velocities),
		Lifetimes:  clone(b.Lifetimes),
		Seeds:      clone(b.Seeds),
		Dampings:   clone(b.Dampings),
		Masses:     clone(b.Masses),
		Phases:     clone(b.Phases),
	}
}

func clone(s []float32) []float32 {
	return append([]float32(nil), s...)
}

// GeometryOptions converts the stored options back to generator options.
func (s *Snapshot) GeometryOptions() (geometry.Options, error) {
	pos, err := geometry.ParsePositionDistribution(s.Options.Position)
	if err != nil {
		return geometry.Options{}, err
	}
	vel, err := geometry.ParseVelocityDistribution(s.Options.Velocity)
	if err != nil {
		return geometry.Options{}, err
	}
	return geometry.Options{
		Count:        s.Options.Count,
		SpawnRadius:  s.Options.SpawnRadius,
		InitialSpeed: s.Options.InitialSpeed,
		Damping:      s.Options.Damping,
		LifetimeMin:  s.Options.LifetimeMin,
		LifetimeMax:  s.Options.LifetimeMax,
		Seed:         s.Options.Seed,
		Position:     pos,
		Velocity:     vel,
	}, nil
}

// Restore copies the snapshot's buffers into f in place. The particle
// counts must match.
func (s *Snapshot) Restore(f *geometry.Field) error {
	b := f.Buffers
	n := b.Len()
	if len(s.Lifetimes) != n || len(s.Positions) != 3*n || len(s.Velocities) != 3*n ||
		len(s.Seeds) != n || len(s.Dampings) != n || len(s.Masses) != n || len(s.Phases) != n {
		return fmt.Errorf("restore %d particles into field of %d: %w", len(s.Lifetimes), n, geometry.ErrCountMismatch)
	}
	copy(b.Positions, s.Positions)
	copy(b.Velocities, s.Velocities)
	copy(b.Lifetimes, s.Lifetimes)
	copy(b.Seeds, s.Seeds)
	copy(b.Dampings, s.Dampings)
	copy(b.Masses, s.Masses)
	copy(b.Phases, s.Phases)
	f.UpdateBounds()
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Frame)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Frame, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
