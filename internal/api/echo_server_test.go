package api

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/prefixscan/internal/backend/sim"
	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/scan"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	dev := sim.New(sim.Options{})
	engine, err := scan.New(dev, scan.Config{
		Launch:   compute.LaunchConfig{GroupSize: 4, ElementsPerWorker: 2},
		Strategy: scan.Recursive,
	}, nil)
	if err != nil {
		t.Fatalf("scan.New: %v", err)
	}
	t.Cleanup(func() {
		_ = engine.Close()
		_ = dev.Close()
	})
	server := NewServer(NewJobStore(), engine, nil, "test")
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) ScanJob {
	t.Helper()
	var job ScanJob
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode scan job: %v body=%s", err, rec.Body.String())
	}
	return job
}

func TestCreateGetDeleteScanLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	createRec := doJSON(t, e, http.MethodPost, "/v1/scans", `{"values":[1,2,3,4,5],"mode":"inclusive"}`)
	if createRec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decodeJob(t, createRec)
	if !strings.HasPrefix(created.ID, "scan_") {
		t.Fatalf("unexpected scan id %q", created.ID)
	}
	if created.Status != statusCompleted {
		t.Fatalf("expected completed status, got %q", created.Status)
	}
	if !slices.Equal(created.Output, []int32{1, 3, 6, 10, 15}) {
		t.Fatalf("unexpected output: %v", created.Output)
	}
	if created.Strategy != "recursive" || created.Mode != "inclusive" {
		t.Fatalf("unexpected strategy/mode: %q/%q", created.Strategy, created.Mode)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/scans/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}

	delRec := doJSON(t, e, http.MethodDelete, "/v1/scans/"+created.ID, "")
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if !strings.Contains(delRec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete response missing deleted=true: %s", delRec.Body.String())
	}

	getDeletedRec := doJSON(t, e, http.MethodGet, "/v1/scans/"+created.ID, "")
	if getDeletedRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d body=%s", getDeletedRec.Code, getDeletedRec.Body.String())
	}
}

func TestBackgroundScanCompletes(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	values := make([]int32, 1000)
	for i := range values {
		values[i] = 1
	}
	background := true
	body, _ := json.Marshal(ScanRequest{Values: values, Strategy: "stream", Background: &background})
	createRec := doJSON(t, e, http.MethodPost, "/v1/scans", string(body))
	if createRec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decodeJob(t, createRec)
	if !created.Background {
		t.Fatalf("expected background job")
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		job := decodeJob(t, doJSON(t, e, http.MethodGet, "/v1/scans/"+created.ID, ""))
		if job.Status == statusCompleted {
			if len(job.Output) != 1000 || job.Output[999] != 999 {
				t.Fatalf("unexpected background output tail")
			}
			return
		}
		if job.Status != statusInProgress {
			t.Fatalf("unexpected status %q", job.Status)
		}
		if time.Now().After(deadline) {
			t.Fatalf("background scan did not complete")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCreateScanValidationErrors(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	cases := map[string]string{
		`{"values":[1],"mode":"sideways"}`:  "unknown scan mode",
		`{"values":[1],"strategy":"magic"}`: "unknown scan strategy",
		`{"values":"nope"}`:                 "invalid JSON body",
	}
	for body, want := range cases {
		rec := doJSON(t, e, http.MethodPost, "/v1/scans", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", body, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%s: unexpected error body: %s", body, rec.Body.String())
		}
	}
}

func TestEmptyScan(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/scans", `{"values":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	job := decodeJob(t, rec)
	if job.Status != statusCompleted || job.N != 0 {
		t.Fatalf("unexpected empty job: %+v", job)
	}
}

func TestScaleAccumulateEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/saxpy", `{"alpha":2,"x":[1,2,3],"y":[1,1,1]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp ScaleAccumulateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode saxpy response: %v", err)
	}
	if !slices.Equal(resp.Y, []float32{3, 5, 7}) {
		t.Fatalf("unexpected y: %v", resp.Y)
	}

	bad := doJSON(t, e, http.MethodPost, "/v1/saxpy", `{"alpha":2,"x":[1,2],"y":[1]}`)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatched lengths, got %d", bad.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Backend != "sim" || health.GroupSize != 4 || health.ElementsPerWorker != 2 {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestJobStoreFinishAfterDelete(t *testing.T) {
	t.Parallel()

	s := NewJobStore()
	job := s.Create(&ScanRequest{Values: []int32{1}}, "exclusive", "recursive", time.Now())
	if !s.Delete(job.ID) {
		t.Fatalf("delete failed")
	}
	if _, ok := s.Finish(job.ID, []int32{0}, nil, time.Now()); ok {
		t.Fatalf("finish of deleted job reported ok")
	}
}

func TestInvalidRequestNamesParam(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/scans", `{"values":[1],"strategy":"magic"}`)
	if !strings.Contains(rec.Body.String(), `"param":"strategy"`) {
		t.Fatalf("error body does not name the field: %s", rec.Body.String())
	}
}
