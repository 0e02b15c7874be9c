package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/blogem/registros/config"
	"github.com/blogem/registros/controllers"
	"github.com/blogem/registros/database"
	"github.com/blogem/registros/models"
	"github.com/blogem/registros/repositories"
	"github.com/blogem/registros/services"
)

// PortalTestSuite drives the full router against a SQLite database.
type PortalTestSuite struct {
	suite.Suite
	server *httptest.Server
	repos  *repositories.Repositories
}

func (s *PortalTestSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "portal.db")
	db, err := database.Open(database.DriverSQLite, "file:"+path+"?_busy_timeout=5000&_txlock=immediate")
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })

	seeds, err := seedUsers(config.SeedConfig{AdminPassword: "admin123", ViewerPassword: "viewer123"})
	s.Require().NoError(err)
	schema := database.NewSchema(db, seeds...)
	s.Require().NoError(schema.Bootstrap(context.Background()))

	santiago, err := time.LoadLocation("America/Santiago")
	s.Require().NoError(err)

	s.repos = repositories.NewRepositories(db, schema)
	srvs := services.NewServices(s.repos, santiago)
	ctrl := controllers.NewControllers(srvs, db, 1<<20)

	r, err := setupRouter(ctrl, srvs.Auth, config.ServerConfig{
		SessionCookie:   "test_session",
		SessionLifetime: 3600,
	})
	s.Require().NoError(err)

	s.server = httptest.NewServer(r)
	s.T().Cleanup(s.server.Close)
}

func (s *PortalTestSuite) client() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *PortalTestSuite) do(c *http.Client, req *http.Request) (*http.Response, []byte) {
	resp, err := c.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, body
}

func (s *PortalTestSuite) get(c *http.Client, path string) (*http.Response, []byte) {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	return s.do(c, req)
}

func (s *PortalTestSuite) login(c *http.Client, username, password string) (*http.Response, []byte) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/login", strings.NewReader(form.Encode()))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(c, req)
}

func (s *PortalTestSuite) upload(c *http.Client, field string, content []byte) (*http.Response, []byte) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, "datos.xlsx")
		s.Require().NoError(err)
		_, err = part.Write(content)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/upload", &body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(c, req)
}

func (s *PortalTestSuite) workbook(rows ...[]interface{}) []byte {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		s.Require().NoError(err)
		s.Require().NoError(f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	s.Require().NoError(err)
	return buf.Bytes()
}

func (s *PortalTestSuite) events() []models.Event {
	events, err := s.repos.Events.ListNewestFirst(context.Background())
	s.Require().NoError(err)
	return events
}

func (s *PortalTestSuite) TestUnauthenticatedRedirectsToLogin() {
	c := s.client()
	for _, path := range []string{"/", "/data", "/download", "/eventos", "/logout"} {
		resp, _ := s.get(c, path)
		s.Equal(http.StatusSeeOther, resp.StatusCode, path)
		s.Equal("/login", resp.Header.Get("Location"), path)
	}
	s.Empty(s.events())
}

func (s *PortalTestSuite) TestLoginFailureRendersFormWithoutEvent() {
	resp, body := s.login(s.client(), "admin", "wrong")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "Invalid username or password")

	resp, body = s.login(s.client(), "ghost", "admin123")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "Invalid username or password")

	resp, _ = s.login(s.client(), "", "")
	s.Equal(http.StatusOK, resp.StatusCode)

	s.Empty(s.events())
}

func (s *PortalTestSuite) TestUploaderScenario() {
	c := s.client()

	resp, _ := s.login(c, "admin", "admin123")
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)
	s.Equal("/", resp.Header.Get("Location"))

	resp, body := s.get(c, "/")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "admin")
	s.Contains(string(body), "uploader")
	s.Contains(string(body), "uploadForm")

	resp, body = s.get(c, "/data")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`[]`, string(body))

	resp, body = s.upload(c, "file", s.workbook(
		[]interface{}{"nombre", "email", "puntaje"},
		[]interface{}{"Ana", "ana@example.com", 90},
		[]interface{}{"Luis", "luis@example.com", 75},
	))
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	s.JSONEq(`{"message":"Records imported successfully","count":2}`, string(body))

	resp, body = s.get(c, "/data")
	s.Equal(http.StatusOK, resp.StatusCode)
	var records []models.Record
	s.Require().NoError(json.Unmarshal(body, &records))
	s.Require().Len(records, 2)
	s.Equal("Luis", records[0].Name)
	s.Equal("Ana", records[1].Name)

	resp, body = s.get(c, "/download")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	s.Contains(resp.Header.Get("Content-Disposition"), "registros.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(body))
	s.Require().NoError(err)
	rows, err := f.GetRows("Registros")
	s.Require().NoError(err)
	s.Len(rows, 3)
	f.Close()

	resp, body = s.get(c, "/eventos")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "download")
	s.NotContains(string(body), "view-events")

	resp, _ = s.get(c, "/logout")
	s.Equal(http.StatusSeeOther, resp.StatusCode)
	s.Equal("/login", resp.Header.Get("Location"))

	resp, _ = s.get(c, "/")
	s.Equal(http.StatusSeeOther, resp.StatusCode)

	var actions []models.Action
	for _, e := range s.events() {
		actions = append(actions, e.Action)
	}
	s.Equal([]models.Action{
		models.ActionLogout,
		models.ActionViewEvents,
		models.ActionDownload,
		models.ActionUpload,
		models.ActionLogin,
	}, actions)
}

func (s *PortalTestSuite) TestViewerIsReadOnly() {
	c := s.client()
	resp, _ := s.login(c, "viewer", "viewer123")
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)

	_, body := s.get(c, "/")
	s.NotContains(string(body), "uploadForm")

	resp, body = s.upload(c, "file", s.workbook([]interface{}{"nombre", "email", "puntaje"}))
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.JSONEq(`{"error":"insufficient permissions"}`, string(body))

	resp, body = s.get(c, "/eventos")
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.JSONEq(`{"error":"insufficient permissions"}`, string(body))

	resp, _ = s.get(c, "/data")
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.get(c, "/download")
	s.Equal(http.StatusOK, resp.StatusCode)

	var actions []models.Action
	for _, e := range s.events() {
		s.Equal("viewer", e.User)
		actions = append(actions, e.Action)
	}
	s.Equal([]models.Action{models.ActionDownload, models.ActionLogin}, actions)
}

func (s *PortalTestSuite) TestUploadErrors() {
	c := s.client()
	resp, _ := s.login(c, "admin", "admin123")
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)

	resp, body := s.upload(c, "", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.JSONEq(`{"error":"no file provided"}`, string(body))

	resp, body = s.upload(c, "file", []byte("definitely not xlsx"))
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), "invalid spreadsheet")

	resp, body = s.get(c, "/data")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`[]`, string(body))

	// only the login event; failed uploads write nothing
	s.Len(s.events(), 1)
}

func (s *PortalTestSuite) TestPublicEndpoints() {
	c := s.client()

	resp, body := s.get(c, "/health")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"status":"ok"}`, string(body))

	resp, body = s.get(c, "/static/script.js")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "/upload")

	resp, body = s.get(c, "/login")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), `name="password"`)

	resp, body = s.get(c, "/metrics")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "http_requests_total")
}

func TestPortalTestSuite(t *testing.T) {
	suite.Run(t, new(PortalTestSuite))
}
