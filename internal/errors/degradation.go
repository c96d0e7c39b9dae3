package errors

// Degradation records a per-file failure that the pipeline absorbed.
type Degradation struct {
	Path   string    `json:"path"`
	Stage  string    `json:"stage"`
	Code   ErrorCode `json:"code"`
	Reason string    `json:"reason"`
}

// Pipeline stages a degradation can be attributed to.
const (
	StageDetect      = "detect"
	StageScore       = "score"
	StageFingerprint = "fingerprint"
)

// NewDegradation builds a Degradation from err, taking the code from the
// first ScopeError in its chain.
func NewDegradation(path, stage string, err error) Degradation {
	d := Degradation{Path: path, Stage: stage, Code: CodeOf(err)}
	if err != nil {
		d.Reason = err.Error()
	}
	return d
}
