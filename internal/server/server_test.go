// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/citaciones/internal/extract"
	"github.com/pdiddy/citaciones/internal/render"
	"github.com/pdiddy/citaciones/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExtractor struct {
	count   int
	records []types.ExtractedRecord
	err     error
}

func (f *fakeExtractor) CountEntries(context.Context, extract.Document, extract.Document) int {
	return f.count
}

func (f *fakeExtractor) Extract(context.Context, extract.Document, extract.Document) ([]types.ExtractedRecord, error) {
	return f.records, f.err
}

type fakeRecorder struct {
	runs []types.Run
}

func (f *fakeRecorder) Record(_ context.Context, run types.Run) (int, error) {
	f.runs = append(f.runs, run)
	return len(run.Outcomes), nil
}

func testTemplate() types.TemplateConfig {
	cfg := types.DefaultTemplate(time.Now())
	cfg.HearingDate = "2025-04-01"
	cfg.StartOficioNumber = "100"
	return cfg
}

type testServer struct {
	t       *testing.T
	handler *Handler
	router  *gin.Engine
}

func newTestServer(t *testing.T, ex *fakeExtractor) *testServer {
	t.Helper()
	reg := NewRegistry(testTemplate, time.Hour, t.TempDir())
	t.Cleanup(reg.Close)
	h := &Handler{
		Sessions: reg,
		Ledger:   &fakeRecorder{},
		NewSurface: func() (render.Surface, error) {
			return render.NewCanvasSurface(0.25)
		},
	}
	if ex != nil {
		h.Extractor = ex
	}
	return &testServer{t: t, handler: h, router: NewRouter(h)}
}

func (ts *testServer) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	ts.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) json(method, path string, v any) *httptest.ResponseRecorder {
	ts.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(ts.t, err)
	return ts.do(method, path, bytes.NewBuffer(b), "application/json")
}

func (ts *testServer) login() string {
	ts.t.Helper()
	w := ts.json(http.MethodPost, "/api/v1/login", loginRequest{})
	require.Equal(ts.t, http.StatusOK, w.Code)
	var resp struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(ts.t, resp.Data.SessionID)
	return "/api/v1/sessions/" + resp.Data.SessionID
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".pdf")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) generate(base string) *httptest.ResponseRecorder {
	ts.t.Helper()
	body, ct := multipartBody(ts.t, map[string]string{"denuncias": "%PDF-1.4 a", "ciav": "%PDF-1.4 b"})
	return ts.do(http.MethodPost, base+"/citations", body, ct)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (Response, map[string]any) {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

func threeRecords() []types.ExtractedRecord {
	return []types.ExtractedRecord{
		{ProcessNumber: "10", OwnerName: "Juan Pérez", Plate: "rhpt14", Street: "Calle 1", Municipality: "El Quisco"},
		{ProcessNumber: "11", OwnerName: "Ana Soto", Street: "Calle 2", Municipality: "Algarrobo"},
		{ProcessNumber: "12", OwnerName: "Luis Rojas", Street: "Calle 3", Municipality: "Cartagena"},
	}
}

// --- login ---

func TestLogin(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.handler.AccessCode = "1234"

	w := ts.json(http.MethodPost, "/api/v1/login", loginRequest{Code: "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, -1, resp.Code)
	assert.Equal(t, msgBadAccessCode, resp.Msg)

	w = ts.json(http.MethodPost, "/api/v1/login", loginRequest{Code: "1234"})
	assert.Equal(t, http.StatusOK, w.Code)
	resp, data := decode(t, w)
	assert.Equal(t, 0, resp.Code)
	assert.NotEmpty(t, data["session_id"])
	assert.Equal(t, 1, ts.handler.Sessions.Len())
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(http.MethodGet, "/api/v1/sessions/nope/citations", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, msgSessionExpired, resp.Msg)
}

// --- extraction ---

func TestGenerate(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 3, records: threeRecords()})
	base := ts.login()

	w := ts.generate(base)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decode(t, w)
	assert.EqualValues(t, 3, data["total"])
	outcomes := data["outcomes"].([]any)
	require.Len(t, outcomes, 3)
	first := outcomes[0].(map[string]any)
	assert.Equal(t, "success", first["kind"])
	rows := data["correspondence"].([]any)
	require.Len(t, rows, 3)
	assert.NotEmpty(t, data["progress"])

	rec := ts.handler.Ledger.(*fakeRecorder)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, "denuncias.pdf", rec.runs[0].Files.Complaints)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		ex         *fakeExtractor
		wantStatus int
		wantMsg    string
		wantFail   bool
	}{
		{"no api key", nil, http.StatusServiceUnavailable, types.MsgMissingAPIKey, false},
		{"no entries", &fakeExtractor{count: 0}, http.StatusUnprocessableEntity, types.MsgNoEntries, false},
		{"nothing extracted", &fakeExtractor{count: 2}, http.StatusUnprocessableEntity, types.MsgNothingExtracted, false},
		{
			"policy block",
			&fakeExtractor{count: 2, err: &extract.ExtractionError{Kind: types.ErrProviderPolicyBlocked}},
			http.StatusBadGateway, types.MsgPolicyBlocked, true,
		},
		{
			"unclassified",
			&fakeExtractor{count: 2, err: &extract.ExtractionError{Err: errors.New("boom")}},
			http.StatusBadGateway, types.MsgExtractionFailed, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.ex)
			base := ts.login()
			w := ts.generate(base)
			assert.Equal(t, tt.wantStatus, w.Code)
			resp, data := decode(t, w)
			assert.Equal(t, tt.wantMsg, resp.Msg)
			if tt.wantFail {
				outcomes := data["outcomes"].([]any)
				require.Len(t, outcomes, 1)
				assert.Equal(t, "failure", outcomes[0].(map[string]any)["kind"])
				assert.Equal(t, tt.wantMsg, outcomes[0].(map[string]any)["error"])
			}
		})
	}
}

func TestGenerate_MissingFile(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 1, records: threeRecords()})
	base := ts.login()
	body, ct := multipartBody(t, map[string]string{"denuncias": "%PDF"})
	w := ts.do(http.MethodPost, base+"/citations", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, types.MsgMissingDocuments, resp.Msg)
}

// --- selection and edits ---

func TestSelectAndEdit(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 3, records: threeRecords()})
	base := ts.login()
	require.Equal(t, http.StatusOK, ts.generate(base).Code)

	w := ts.do(http.MethodPost, base+"/select/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.EqualValues(t, 1, data["index"])
	edits := data["edits"].(map[string]any)
	assert.Equal(t, "101/2025", edits["oficio"])

	w = ts.json(http.MethodPatch, base+"/view", map[string]string{"oficio": "999/2025"})
	require.Equal(t, http.StatusOK, w.Code)
	_, data = decode(t, w)
	assert.Equal(t, "999/2025", data["edits"].(map[string]any)["oficio"])
	assert.Equal(t, "101", data["data"].(map[string]any)["oficioNumber"], "record untouched")

	w = ts.do(http.MethodPost, base+"/select/7", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.json(http.MethodPatch, base+"/view", map[string]string{"fecha": "x"})
	assert.Equal(t, http.StatusConflict, w.Code, "nothing selected after out-of-range select")
}

func TestSelectDuringBatch(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 3, records: threeRecords()})
	base := ts.login()
	require.Equal(t, http.StatusOK, ts.generate(base).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/select/0", nil, "").Code)

	s, ok := ts.handler.Sessions.Get(strings.TrimPrefix(base, "/api/v1/sessions/"))
	require.True(t, ok)
	b, err := s.AcquireBatch()
	require.NoError(t, err)

	w := ts.do(http.MethodPost, base+"/select/2", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, types.MsgBatchInProgress, resp.Msg)

	w = ts.json(http.MethodPatch, base+"/view", map[string]string{"oficio": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	resp, _ = decode(t, w)
	assert.Equal(t, types.MsgBatchInProgress, resp.Msg)

	w = ts.json(http.MethodPut, base+"/config", testTemplate())
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(http.MethodGet, base+"/export/pdf", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	b.Release()
	assert.Equal(t, 0, s.Selected())
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/select/2", nil, "").Code)
}

func TestSelectFailure(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 1, err: &extract.ExtractionError{Err: errors.New("boom")}})
	base := ts.login()
	ts.generate(base)

	w := ts.do(http.MethodPost, base+"/select/0", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	failure := data["failure"].(map[string]any)
	assert.Equal(t, types.MsgExtractionFailed, failure["error"])
}

// --- template configuration ---

func TestConfig(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 3, records: threeRecords()})
	base := ts.login()
	require.Equal(t, http.StatusOK, ts.generate(base).Code)

	cfg := testTemplate()
	cfg.HearingDate = "2026-01-15"
	w := ts.json(http.MethodPut, base+"/config", cfg)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, base+"/correspondence", nil, "")
	_, data := decode(t, w)
	rows := data["rows"].([]any)
	assert.Equal(t, "10-2026", rows[0].(map[string]any)["DCTO."])

	cfg.HearingDate = "15/01/2026"
	w = ts.json(http.MethodPut, base+"/config", cfg)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, msgInvalidTemplate, resp.Msg)

	w = ts.do(http.MethodGet, base+"/config", nil, "")
	_, data = decode(t, w)
	assert.Equal(t, "2026-01-15", data["audienciaDate"])
}

// --- exports ---

func TestExports(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 3, records: threeRecords()})
	base := ts.login()

	w := ts.do(http.MethodGet, base+"/export/pdf", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "no citations yet")

	require.Equal(t, http.StatusOK, ts.generate(base).Code)

	w = ts.do(http.MethodGet, base+"/export/pdf", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), render.BatchPDFName)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = ts.do(http.MethodGet, base+"/export/print", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, strings.Count(w.Body.String(), `class="page-break"`))

	ts.do(http.MethodPost, base+"/select/0", nil, "")
	w = ts.do(http.MethodGet, base+"/export/citation.pdf", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")

	w = ts.do(http.MethodGet, base+"/export/xlsx", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Correspondencia")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestAppendTemplate(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 3, records: threeRecords()})
	base := ts.login()
	require.Equal(t, http.StatusOK, ts.generate(base).Code)

	w := ts.do(http.MethodPost, base+"/template/append", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tmpl := excelize.NewFile()
	require.NoError(t, tmpl.SetSheetRow("Sheet1", "A1", &[]any{"N°", "Guía"}))
	require.NoError(t, tmpl.SetSheetRow("Sheet1", "A2", &[]any{"41", "x"}))
	var xb bytes.Buffer
	require.NoError(t, tmpl.Write(&xb))
	require.NoError(t, tmpl.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "libro.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(xb.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w = ts.do(http.MethodPost, base+"/template", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decode(t, w)
	assert.Equal(t, "Sheet1", data["default_sheet"])

	w = ts.do(http.MethodPost, base+"/template/append?sheet=Missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, base+"/template/append", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "42", rows[2][0])
	assert.Equal(t, "44", rows[4][0])
}

func TestReset(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{count: 3, records: threeRecords()})
	base := ts.login()
	require.Equal(t, http.StatusOK, ts.generate(base).Code)

	w := ts.do(http.MethodPost, base+"/reset", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Empty(t, data["outcomes"])
	assert.EqualValues(t, -1, data["selected"])
}

// --- registry ---

func TestRegistryReap(t *testing.T) {
	reg := NewRegistry(testTemplate, 50*time.Millisecond, t.TempDir())
	defer reg.Close()

	idle := reg.Create()
	time.Sleep(100 * time.Millisecond)
	active := reg.Create()

	assert.Equal(t, 1, reg.Reap())
	_, ok := reg.Get(idle.ID)
	assert.False(t, ok)
	_, ok = reg.Get(active.ID)
	assert.True(t, ok)
}

func TestRegistryReap_NoTTL(t *testing.T) {
	reg := NewRegistry(testTemplate, 0, t.TempDir())
	defer reg.Close()
	reg.Create()
	reg.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Zero(t, reg.Reap())
}

func TestRegistryStart(t *testing.T) {
	reg := NewRegistry(testTemplate, time.Minute, t.TempDir())
	require.NoError(t, reg.Start(""))
	reg.Close()

	reg = NewRegistry(testTemplate, time.Minute, t.TempDir())
	assert.Error(t, reg.Start("not a schedule"))
}
