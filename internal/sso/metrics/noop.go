package metrics

// Noop discards everything.
type Noop struct{}

var _ Recorder = (*Noop)(nil)

func NewNoop() *Noop { return &Noop{} }

func (*Noop) RecordTokenIssued(string)                       {}
func (*Noop) RecordTokenVerification(string, string)         {}
func (*Noop) RecordSSOOutcome(string)                        {}
func (*Noop) RecordGrantRedemption(string)                   {}
func (*Noop) RecordRegistryReload(bool)                      {}
func (*Noop) RecordLogin(string, bool)                       {}
func (*Noop) RecordOAuthCallback(string, bool)               {}
func (*Noop) RecordRateLimited(string)                       {}
func (*Noop) RecordHTTPRequest(string, string, int, float64) {}
