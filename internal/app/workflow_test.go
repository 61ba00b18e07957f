package app

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"kpianalyzer/internal/shared/testutil"
	"kpianalyzer/pkg/contracts/domain"
)

// WorkflowSuite drives the HTTP API end to end the way the dashboard does:
// upload, select, read views, export, remove.
type WorkflowSuite struct {
	suite.Suite
	app    *Application
	server *httptest.Server
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.app = newTestApp(s.T(), nil)
	s.server = httptest.NewServer(s.app.Router)
}

func (s *WorkflowSuite) TearDownTest() {
	s.server.Close()
}

func (s *WorkflowSuite) upload(files map[string]string) *http.Response {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		s.Require().NoError(err)
		_, err = io.WriteString(part, content)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	resp, err := http.Post(s.server.URL+"/api/agencies/upload", mw.FormDataContentType(), &body)
	s.Require().NoError(err)
	return resp
}

func (s *WorkflowSuite) request(method, path, body string) *http.Response {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, r)
	s.Require().NoError(err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *WorkflowSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *WorkflowSuite) TestUploadSelectExportRemove() {
	resp := s.upload(map[string]string{
		"KIA.csv": testutil.CSV(
			[]string{"KPI", "Enero", "Febrero"},
			[]string{"Ventas", "10", "20"},
			[]string{"Leads", "5", "5"},
		),
		"Mazda.csv": testutil.CSV(
			[]string{"KPI", "Enero", "Febrero"},
			[]string{"Ventas", "10", "30"},
			[]string{"Leads", "1", "1"},
		),
		"notes.pdf": "%PDF",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var batch domain.BatchReport
	s.decode(resp, &batch)
	s.Len(batch.Succeeded, 2)
	s.Require().Len(batch.Failed, 1)
	s.Equal("notes.pdf", batch.Failed[0].Source)

	s.Run("ranking over the default selection", func() {
		var ranking []domain.AgencyRank
		s.decode(s.request(http.MethodGet, "/api/views/ranking", ""), &ranking)
		s.Require().Len(ranking, 2)
		s.Equal("Mazda", ranking[0].Agency)
		s.Equal(42.0, ranking[0].Total)
	})

	s.Run("narrowed selection", func() {
		resp := s.request(http.MethodPut, "/api/selection", `{"agencies":["KIA"],"periods":["Enero"]}`)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		var ranking []domain.AgencyRank
		s.decode(s.request(http.MethodGet, "/api/views/ranking", ""), &ranking)
		s.Require().Len(ranking, 1)
		s.Equal(15.0, ranking[0].Total)
	})

	s.Run("csv export follows the selection", func() {
		resp := s.request(http.MethodGet, "/api/exports/comparison.csv", "")
		defer resp.Body.Close()
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		data, err := io.ReadAll(resp.Body)
		s.Require().NoError(err)
		s.Contains(string(data), "KPI,Period,KIA,Leaders")
		s.NotContains(string(data), "Mazda")
	})

	s.Run("removing an agency drops it from the selection", func() {
		resp := s.request(http.MethodDelete, "/api/agencies/KIA", "")
		resp.Body.Close()
		s.Require().Equal(http.StatusNoContent, resp.StatusCode)

		var sel domain.Selection
		s.decode(s.request(http.MethodGet, "/api/selection", ""), &sel)
		s.Empty(sel.Agencies)
	})
}

func (s *WorkflowSuite) TestUploadOnlyFailuresKeepsCatalog() {
	resp := s.upload(map[string]string{"notes.pdf": "%PDF"})
	resp.Body.Close()
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp = s.request(http.MethodGet, "/api/catalog", "")
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
