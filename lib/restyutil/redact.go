package restyutil

import (
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
)

const redacted = "<redacted>"

// SecretFields lists the form fields whose values never leave the process
// through traces or recordings.
var SecretFields = []string{"password"}

// RedactedForm returns a copy of the form data of req with every field in
// SecretFields replaced.
func RedactedForm(req *resty.Request) url.Values {
	if len(req.FormData) == 0 {
		return nil
	}
	form := url.Values{}
	for k, v := range req.FormData {
		form[k] = append([]string(nil), v...)
	}
	for _, field := range SecretFields {
		if form.Has(field) {
			form.Set(field, redacted)
		}
	}
	return form
}

func isCookieHeader(name string) bool {
	name = http.CanonicalHeaderKey(name)
	return name == "Cookie" || name == "Set-Cookie"
}
