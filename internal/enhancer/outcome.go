package enhancer

// Outcome is how a single job ended.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSucceeded
	OutcomeToolMissing
	OutcomeToolCrashed
	OutcomeMalformedOutput
	OutcomeToolError
	OutcomeException
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeToolMissing:
		return "tool-missing"
	case OutcomeToolCrashed:
		return "failed-exit"
	case OutcomeMalformedOutput:
		return "failed-parse"
	case OutcomeToolError:
		return "failed-tool"
	case OutcomeException:
		return "failed-exception"
	}
	return "unknown"
}

// Failed reports whether the job did not produce (or find) an output file.
func (o Outcome) Failed() bool {
	return o != OutcomeSkipped && o != OutcomeSucceeded
}

// Summary tallies a run.
type Summary struct {
	// Total is the number of images discovered.
	Total int
	// Processed is the number of jobs attempted, skipped ones included.
	Processed int
	Counts    map[Outcome]int
}

func (s *Summary) record(o Outcome) {
	if s.Counts == nil {
		s.Counts = make(map[Outcome]int)
	}
	s.Counts[o]++
	s.Processed++
}

// Failed is the number of jobs that ended in any failure outcome.
func (s Summary) Failed() int {
	n := 0
	for o, c := range s.Counts {
		if o.Failed() {
			n += c
		}
	}
	return n
}
