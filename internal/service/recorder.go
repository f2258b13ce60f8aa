package service

// Recorder receives business events for instrumentation. The Prometheus
// collectors in internal/metrics implement it; a nil Recorder passed to a
// constructor is replaced by a no-op.
type Recorder interface {
	SnippetCreated()
	SnippetUpdated()
	CommentCreated()
	// Login records a login attempt. method is "password" or "github",
	// result is "success" or "failure".
	Login(method, result string)
}

type nopRecorder struct{}

func (nopRecorder) SnippetCreated()      {}
func (nopRecorder) SnippetUpdated()      {}
func (nopRecorder) CommentCreated()      {}
func (nopRecorder) Login(string, string) {}

func orNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
