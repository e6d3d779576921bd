package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Monomer is the HP classification of a single residue.
type Monomer byte

const (
	Hydrophobic Monomer = 'H'
	Polar       Monomer = 'P'
)

func (m Monomer) String() string {
	return string(m)
}

// Sequence is the ordered list of monomer kinds of a chain. It is never
// mutated after construction.
type Sequence []Monomer

func (s Sequence) String() string {
	out := make([]byte, len(s))
	for i, m := range s {
		out[i] = byte(m)
	}
	return string(out)
}

// Point is an integer lattice coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Conformation assigns one lattice point to every monomer; index i matches
// sequence position i.
type Conformation []Point

func (c Conformation) Clone() Conformation {
	if c == nil {
		return nil
	}
	return append(Conformation(nil), c...)
}

// MoveOperation identifies one entry of the fold move catalog.
type MoveOperation int

const (
	MoveRotateCW MoveOperation = iota + 1
	MoveRotateCCW
	MoveRotate180
	MoveReflectX
	MoveReflectY
	MoveReflectMainDiagonal
	MoveReflectAntiDiagonal
	MoveDiagonal
)

// RunRecord is the stored summary of one finished simulation.
type RunRecord struct {
	VersionedRecord
	RunID             string       `json:"run_id"`
	Sequence          string       `json:"sequence"`
	Steps             int          `json:"steps"`
	Temperature       float64      `json:"temperature"`
	Annealing         bool         `json:"annealing"`
	Seed              int64        `json:"seed"`
	FinalEnergy       float64      `json:"final_energy"`
	MinEnergy         float64      `json:"min_energy"`
	MaxCompactness    int          `json:"max_compactness"`
	AcceptedMoves     int          `json:"accepted_moves"`
	FoldAttempts      int          `json:"fold_attempts"`
	Final             Conformation `json:"final"`
	MinEnergyConf     Conformation `json:"min_energy_conformation"`
	MaxCompactConf    Conformation `json:"max_compactness_conformation"`
	ArtifactsDir      string       `json:"artifacts_dir,omitempty"`
	CreatedAtUTC      string       `json:"created_at_utc"`
	DurationMillis    int64        `json:"duration_ms"`
	ConvertedSequence bool         `json:"converted_sequence,omitempty"`
}

func (op MoveOperation) String() string {
	switch op {
	case MoveRotateCW:
		return "rotate_cw"
	case MoveRotateCCW:
		return "rotate_ccw"
	case MoveRotate180:
		return "rotate_180"
	case MoveReflectX:
		return "reflect_x"
	case MoveReflectY:
		return "reflect_y"
	case MoveReflectMainDiagonal:
		return "reflect_main_diagonal"
	case MoveReflectAntiDiagonal:
		return "reflect_anti_diagonal"
	case MoveDiagonal:
		return "diagonal"
	default:
		return "unknown"
	}
}
