package harvest

import (
	"time"

	"menuscope/internal/services"
)

// Stage names reported in outcomes and logs.
const (
	StageRun       = "run"
	StageExtract   = "extract"
	StageFlatten   = "flatten"
	StageNutrition = "nutrition"
)

// FileOutcome is the result of one page or document in a batch.
type FileOutcome struct {
	Name       string        `json:"name"`
	Source     string        `json:"source"`
	Kind       services.Kind `json:"kind"`
	Error      string        `json:"error,omitempty"`
	Restaurant string        `json:"restaurant,omitempty"`
	Records    int           `json:"records"`
	JSONPath   string        `json:"json_path,omitempty"`
	CSVPath    string        `json:"csv_path,omitempty"`
	// Offset and Context locate a decode failure; Offset is -1 otherwise.
	Offset  int    `json:"offset"`
	Context string `json:"context,omitempty"`

	err error
}

// Err returns the underlying failure, if any.
func (o FileOutcome) Err() error { return o.err }

func (o *FileOutcome) fail(err error) {
	o.err = err
	o.Kind = services.KindOf(err)
	if err != nil {
		o.Error = err.Error()
	}
}

// Summary reports a whole batch. Files are ordered by source name.
type Summary struct {
	RunID   string        `json:"run_id"`
	Stage   string        `json:"stage"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
	Files   []FileOutcome `json:"files"`
}

// Count returns how many files ended with kind.
func (s Summary) Count(kind services.Kind) int {
	n := 0
	for _, f := range s.Files {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Succeeded returns the number of files processed without error.
func (s Summary) Succeeded() int { return s.Count(services.KindOK) }

// Failed returns the number of files that did not complete.
func (s Summary) Failed() int { return len(s.Files) - s.Succeeded() }

// Records returns the total number of item records written.
func (s Summary) Records() int {
	n := 0
	for _, f := range s.Files {
		n += f.Records
	}
	return n
}
