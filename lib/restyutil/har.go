package restyutil

import (
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pb33f/harhar"
)

type harCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type harLog struct {
	Version string         `json:"version"`
	Creator harCreator     `json:"creator"`
	Entries []harhar.Entry `json:"entries"`
}

type harFile struct {
	Log harLog `json:"log"`
}

// HarRecorder keeps every exchange made by an instrumented client so it can
// be written out as an HTTP archive. Cookie values and SecretFields are
// never recorded.
type HarRecorder struct {
	creator string

	mutex   sync.Mutex
	entries []harhar.Entry
}

func NewHarRecorder(creator string) *HarRecorder {
	return &HarRecorder{creator: creator}
}

// InstrumentClient attaches the recorder to client, a nil recorder makes
// this a no-op.
func InstrumentClient(client *resty.Client, recorder *HarRecorder) {
	if recorder == nil {
		return
	}
	client.OnAfterResponse(recorder.onAfterResponse)
}

func (r *HarRecorder) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	entry := harEntry(res)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// Entries returns the exchanges recorded so far, oldest first.
func (r *HarRecorder) Entries() []harhar.Entry {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]harhar.Entry(nil), r.entries...)
}

func (r *HarRecorder) WriteFile(path string) error {
	out := harFile{
		Log: harLog{
			Version: "1.2",
			Creator: harCreator{Name: r.creator, Version: "1.2"},
			Entries: r.Entries(),
		},
	}
	if out.Log.Entries == nil {
		out.Log.Entries = []harhar.Entry{}
	}
	serialized, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, serialized, 0600)
}

func nameValues(values map[string][]string, redactCookies bool) []harhar.NameValuePair {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []harhar.NameValuePair
	for _, k := range keys {
		for _, v := range values[k] {
			if redactCookies && isCookieHeader(k) {
				v = redacted
			}
			out = append(out, harhar.NameValuePair{Name: k, Value: v})
		}
	}
	return out
}

func harCookies(cookies []*http.Cookie) []harhar.Cookie {
	var out []harhar.Cookie
	for _, c := range cookies {
		out = append(out, harhar.Cookie{Name: c.Name, Value: redacted})
	}
	return out
}

func harEntry(res *resty.Response) harhar.Entry {
	req := res.Request
	entry := harhar.Entry{
		Start: req.Time.Format(time.RFC3339),
		Time:  float64(res.Time().Microseconds()) / 1000,
	}

	entry.Request.Method = req.Method
	entry.Request.URL = req.URL
	if raw := req.RawRequest; raw != nil {
		entry.Request.URL = raw.URL.String()
		entry.Request.HTTPVersion = raw.Proto
		entry.Request.Headers = nameValues(raw.Header, true)
		entry.Request.QueryParams = nameValues(raw.URL.Query(), false)
		entry.Request.Cookies = harCookies(raw.Cookies())
	}
	if form := RedactedForm(req); len(form) > 0 {
		encoded := form.Encode()
		entry.Request.Body = harhar.BodyType{
			MIMEType: "application/x-www-form-urlencoded",
			Content:  encoded,
		}
		entry.Request.BodySize = len(encoded)
	}

	body := res.Body()
	entry.Response.StatusCode = res.StatusCode()
	entry.Response.StatusText = http.StatusText(res.StatusCode())
	entry.Response.Headers = nameValues(res.Header(), true)
	entry.Response.Body = harhar.BodyResponseType{
		Size:     len(body),
		MIMEType: res.Header().Get("Content-Type"),
		Content:  string(body),
	}
	entry.Response.BodySize = len(body)
	if raw := res.RawResponse; raw != nil {
		entry.Response.HTTPVersion = raw.Proto
		entry.Response.Cookies = harCookies(raw.Cookies())
	}

	return entry
}
