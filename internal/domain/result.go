package domain

// ResultKind tags the outcome of an orchestrated action.
type ResultKind string

const (
	ResultSuccess           ResultKind = "success"
	ResultValidationFailure ResultKind = "validation_failure"
	ResultStoreFailure      ResultKind = "store_failure"
)

// ActionResult is what create/update/delete hand back to the calling form.
//
// Errors is populated only for ResultValidationFailure. Redirect is set only
// when a successful action expects the caller to navigate away.
type ActionResult struct {
	Kind     ResultKind          `json:"kind"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Message  string              `json:"message,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// OK reports whether the action completed without error.
func (r ActionResult) OK() bool { return r.Kind == ResultSuccess }
