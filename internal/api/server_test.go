package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icsr-triage-engine/internal/assess"
	"github.com/icsr-triage-engine/internal/config"
	"github.com/icsr-triage-engine/internal/domain"
	"github.com/icsr-triage-engine/internal/extract"
	"github.com/icsr-triage-engine/internal/meddra"
	"github.com/icsr-triage-engine/internal/pipeline"
	"github.com/icsr-triage-engine/internal/refdata"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<MCCI_IN200100UV01 xmlns="urn:hl7-org:v3">
  <creationTime value="20240315"/>
  <id root="2.16.840.1.113883.3.989.2.1.3.1" extension="IN-CELIX-2024-0001"/>
  <asQualifiedEntity><code code="1"/></asQualifiedEntity>
  <administrativeGenderCode code="2"/>
  <component>
    <substanceAdministration>
      <id root="d1"/>
      <consumable><instanceOfKind><kindOfProduct>
        <name>Abiraterone</name>
      </kindOfProduct></instanceOfKind></consumable>
    </substanceAdministration>
  </component>
  <component>
    <causalityAssessment>
      <value code="1"/>
      <subject2><productUseReference><id root="d1"/></productUseReference></subject2>
    </causalityAssessment>
  </component>
  <component>
    <observation>
      <code displayName="reaction"/>
      <value code="10028813"/>
    </observation>
  </component>
</MCCI_IN200100UV01>`

func newTestServer(t *testing.T, health HealthChecker) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	terms := meddra.NewMapping([][3]string{{"10028813", "Nausea", "Nausea"}})
	provider := refdata.NewTable([]domain.ReferenceEntry{
		{DrugName: "Abiraterone", Company: "Celix", ListedTerms: []string{"Nausea"}},
	})

	p := pipeline.New(
		extract.New(logger, terms),
		assess.NewListednessAssessor(provider, terms, logger),
		assess.NewAnnotator("Celix"),
		logger,
	)
	runner := pipeline.NewBatchRunner(p, 2, logger)

	cfg := config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Logging.Level = "info"

	return NewServer(cfg, runner, health, logger)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestHandleTriage(t *testing.T) {
	server := newTestServer(t, nil)

	body, contentType := multipartBody(t, map[string]string{
		"case1.xml":  sampleDoc,
		"broken.xml": "<unclosed",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Documents int                         `json:"documents"`
		Failed    int                         `json:"failed"`
		Outcomes  []*domain.CaseOutcomeRecord `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Documents)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Outcomes, 2)

	bySource := map[string]*domain.CaseOutcomeRecord{}
	for _, o := range resp.Outcomes {
		bySource[o.Source] = o
	}
	require.Contains(t, bySource, "case1.xml")
	require.Contains(t, bySource, "broken.xml")
	assert.False(t, bySource["case1.xml"].Failed())
	assert.Equal(t, "IN-CELIX-2024-0001", bySource["case1.xml"].Case.SafetyReportID)
	assert.True(t, bySource["broken.xml"].Failed())
}

func TestHandleTriage_CSVFormat(t *testing.T) {
	server := newTestServer(t, nil)

	body, contentType := multipartBody(t, map[string]string{"case1.xml": sampleDoc})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triage?format=csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "SL No")
	assert.Contains(t, rec.Body.String(), "IN-CELIX-2024-0001")
}

func TestHandleTriage_NoFiles(t *testing.T) {
	server := newTestServer(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHandleHealth_BackendDown(t *testing.T) {
	server := newTestServer(t, func(context.Context) error {
		return errors.New("database unreachable")
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
	assert.Contains(t, rec.Body.String(), domain.ErrCodeReferenceData)
}

func TestCorrelationIDHeader(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
