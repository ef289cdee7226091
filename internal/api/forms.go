package api

import (
	"encoding/json"
	"net/http"

	"github.com/ignite/invoice-admin/internal/domain"
	"github.com/ignite/invoice-admin/internal/pkg/httputil"
	"github.com/ignite/invoice-admin/internal/pkg/logger"
	"github.com/ignite/invoice-admin/internal/service/invoice"
)

// prevStateField carries the result the form last rendered. HTML forms send
// it as a JSON string, JSON clients as a nested object.
const prevStateField = "prevState"

// decodeSubmission reads an invoice form from an HTML form post or a JSON
// body. It writes a 400 and returns false when the body cannot be parsed.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (domain.ActionResult, invoice.Form, bool) {
	var prev domain.ActionResult

	if httputil.IsJSONBody(r) {
		var body map[string]any
		if !httputil.Decode(w, r, &body) {
			return prev, nil, false
		}
		if raw, ok := body[prevStateField]; ok {
			delete(body, prevStateField)
			data, err := json.Marshal(raw)
			if err == nil {
				err = json.Unmarshal(data, &prev)
			}
			if err != nil {
				logger.Debug("ignoring malformed prevState", "path", r.URL.Path, "error", err)
			}
		}
		return prev, invoice.Form(body), true
	}

	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "invalid form body")
		return prev, nil, false
	}
	if raw := r.PostForm.Get(prevStateField); raw != "" {
		if err := json.Unmarshal([]byte(raw), &prev); err != nil {
			logger.Debug("ignoring malformed prevState", "path", r.URL.Path, "error", err)
		}
	}
	return prev, invoice.FormFromValues(r.PostForm), true
}
