package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"formflow-analytics/internal/app"
	"formflow-analytics/internal/domain"
	"formflow-analytics/internal/infra/memory"
	"formflow-analytics/internal/summary"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	service := app.NewSurveyService(app.Repositories{
		Forms:     memory.NewFormCache(store, time.Minute),
		Responses: store,
		Summaries: store,
		Feeds:     memory.NewFeedStore(),
	}, summary.NewTemplate(0), "https://forms.example.com/")
	server := httptest.NewServer(NewRouter(service))
	t.Cleanup(server.Close)
	return server
}

const sampleFormBody = `{
  "title": "Launch Day",
  "description": "Feedback",
  "questions": [
    {"id": "q1", "type": "rating", "question": "How was it?", "required": true},
    {"id": "q2", "type": "multiple-choice", "question": "Best talk", "options": ["Keynote", "Workshop"]},
    {"id": "q3", "type": "text", "question": "Anything else?"}
  ]
}`

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func createSampleForm(t *testing.T, server *httptest.Server) formResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/forms", sampleFormBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	return decodeBody[formResponse](t, resp)
}

func TestCreateAndGetForm(t *testing.T) {
	server := newTestServer(t)
	created := createSampleForm(t, server)

	if created.Form.ID == "" || !created.Form.Active {
		t.Fatalf("unexpected form %+v", created.Form)
	}
	if created.ShareURL != "https://forms.example.com/?form="+created.Form.ID {
		t.Fatalf("unexpected share url %q", created.ShareURL)
	}

	resp := doJSON(t, http.MethodGet, server.URL+"/forms/"+created.Form.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	got := decodeBody[formResponse](t, resp)
	if got.Form.Title != "Launch Day" || len(got.Form.Questions) != 3 {
		t.Fatalf("unexpected form %+v", got.Form)
	}

	list := decodeBody[[]domain.Form](t, doJSON(t, http.MethodGet, server.URL+"/forms", ""))
	if len(list) != 1 {
		t.Fatalf("expected one form, got %d", len(list))
	}
}

func TestErrorStatusCodes(t *testing.T) {
	server := newTestServer(t)
	created := createSampleForm(t, server)
	formURL := server.URL + "/forms/" + created.Form.ID

	cases := []struct {
		name   string
		method string
		url    string
		body   string
		status int
	}{
		{"unknown form", http.MethodGet, server.URL + "/forms/nope", "", http.StatusNotFound},
		{"invalid draft", http.MethodPost, server.URL + "/forms", `{"title":"","questions":[]}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, server.URL + "/forms", `{`, http.StatusBadRequest},
		{"missing required", http.MethodPost, formURL + "/responses", `{"answers":{"q2":"Keynote"}}`, http.StatusBadRequest},
		{"unknown question", http.MethodPost, formURL + "/responses", `{"answers":{"q1":3,"zz":"x"}}`, http.StatusBadRequest},
		{"rating out of range", http.MethodPost, formURL + "/responses", `{"answers":{"q1":9}}`, http.StatusBadRequest},
		{"no summary yet", http.MethodGet, formURL + "/summary", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, tc.method, tc.url, tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			body := decodeBody[errorResponse](t, resp)
			if body.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestSubmitStatsAndClose(t *testing.T) {
	server := newTestServer(t)
	created := createSampleForm(t, server)
	formURL := server.URL + "/forms/" + created.Form.ID

	for _, body := range []string{
		`{"answers":{"q1":5,"q2":"Keynote","q3":"Loved the keynote session"}}`,
		`{"answers":{"q1":4,"q2":"Keynote"}}`,
		`{"answers":{"q1":5,"q2":"Workshop"}}`,
	} {
		if resp := doJSON(t, http.MethodPost, formURL+"/responses", body); resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
	}

	snapshot := decodeBody[domain.FormStats](t, doJSON(t, http.MethodGet, formURL+"/stats", ""))
	if snapshot.TotalResponses != 3 {
		t.Fatalf("expected 3 responses, got %d", snapshot.TotalResponses)
	}
	rating := snapshot.QuestionStats["q1"]
	if len(rating.Responses) != 2 || rating.Responses[0].Value != "5" || rating.Responses[0].Count != 2 {
		t.Fatalf("unexpected rating tally %+v", rating.Responses)
	}
	text := snapshot.QuestionStats["q3"]
	if len(text.TextResponses) != 1 || text.Skipped != 2 {
		t.Fatalf("unexpected text stats %+v", text)
	}

	responses := decodeBody[[]domain.Response](t, doJSON(t, http.MethodGet, formURL+"/responses", ""))
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}

	closed := decodeBody[domain.Form](t, doJSON(t, http.MethodPost, formURL+"/toggle", ""))
	if closed.Active || closed.ClosedAt == nil {
		t.Fatalf("expected closed form, got %+v", closed)
	}
	if resp := doJSON(t, http.MethodPost, formURL+"/responses", `{"answers":{"q1":1}}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on closed form, got %d", resp.StatusCode)
	}
}

func TestSummaryAndExport(t *testing.T) {
	server := newTestServer(t)
	created := createSampleForm(t, server)
	formURL := server.URL + "/forms/" + created.Form.ID
	doJSON(t, http.MethodPost, formURL+"/responses", `{"answers":{"q1":5,"q2":"Keynote","q3":"Loved the keynote session"}}`)

	resp := doJSON(t, http.MethodPost, formURL+"/summary", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	generated := decodeBody[domain.Summary](t, resp)
	if len(generated.KeyInsights) != 3 || len(generated.Recommendations) != 3 {
		t.Fatalf("unexpected summary %+v", generated)
	}

	resp = doJSON(t, http.MethodGet, formURL+"/export", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="launch_day_data.json"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	for _, key := range []string{"form", "responses", "stats", "aiSummary"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("export missing %q", key)
		}
	}
	var exported domain.FormStats
	if err := json.Unmarshal(raw["stats"], &exported); err != nil || exported.TotalResponses != 1 {
		t.Fatalf("unexpected export stats %s (%v)", raw["stats"], err)
	}
}

func TestExportFilename(t *testing.T) {
	cases := map[string]string{
		"Launch Day":       "launch_day_data.json",
		"Q3 Survey: Beta!": "q3_survey__beta__data.json",
		"":                 "_data.json",
		"Café feedback":    "caf__feedback_data.json",
	}
	for title, want := range cases {
		if got := exportFilename(title); got != want {
			t.Fatalf("exportFilename(%q) = %q, want %q", title, got, want)
		}
	}
}
