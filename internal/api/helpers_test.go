package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/auth"
	"resumeStudio/internal/database"
	"resumeStudio/internal/export"
	"resumeStudio/internal/resume"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withSession 在测试中代替 AuthMiddleware。
func withSession(session *auth.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session != nil {
			middleware.SetSession(c, session)
		}
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleRecord(userID uint) *database.ResumeRecord {
	return &database.ResumeRecord{
		ID:         7,
		UserID:     userID,
		TemplateID: resume.TemplateModernMinimal,
		Document: resume.Document{
			Personal: resume.Personal{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com"},
			Experience: []resume.Experience{
				{Company: "Analytical Engines", Position: "Engineer", StartDate: "2022-01", Current: true},
			},
			Skills: []string{"Math"},
		},
		Style:     resume.DefaultStyle(),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type fakeResumeStore struct {
	mu      sync.Mutex
	latest  *database.ResumeRecord
	err     error
	reads   int
	upserts []database.ResumeRecord
}

func (s *fakeResumeStore) GetLatest(_ context.Context, userID uint) (*database.ResumeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	if s.latest == nil || s.latest.UserID != userID {
		return nil, database.ErrResumeNotFound
	}
	rec := *s.latest
	return &rec, nil
}

func (s *fakeResumeStore) Upsert(_ context.Context, userID uint, rec database.ResumeRecord) (*database.ResumeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rec.UserID = userID
	if s.latest != nil && s.latest.UserID == userID {
		rec.ID = s.latest.ID
	} else {
		rec.ID = uint(len(s.upserts) + 1)
	}
	s.upserts = append(s.upserts, rec)
	saved := rec
	s.latest = &saved
	return &rec, nil
}

type fakePaymentStore struct {
	paid    bool
	err     error
	orders  []*database.PaymentOrder
	marked  []string
	markErr error
}

func (s *fakePaymentStore) CreateOrder(_ context.Context, order *database.PaymentOrder) error {
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, order)
	return nil
}

func (s *fakePaymentStore) MarkPaid(_ context.Context, _ uint, orderID, _ string, _ time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, orderID)
	s.paid = true
	return nil
}

func (s *fakePaymentStore) HasPaid(context.Context, uint) (bool, error) {
	return s.paid, s.err
}

type fakeCapturer struct {
	mu     sync.Mutex
	calls  int
	target export.Target
	format export.Format
	data   []byte
	err    error
}

func (c *fakeCapturer) Capture(_ context.Context, target export.Target, format export.Format) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.target = target
	c.format = format
	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

type upload struct {
	key         string
	size        int64
	contentType string
}

type fakeObjects struct {
	dataURIs map[string]string
	uploads  []upload
	signed   []string
	deleted  []string
	err      error
}

func (o *fakeObjects) UploadFile(_ context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error) {
	if o.err != nil {
		return nil, o.err
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	o.uploads = append(o.uploads, upload{key: objectName, size: size, contentType: contentType})
	return &minio.UploadInfo{Key: objectName, Size: size}, nil
}

func (o *fakeObjects) DataURI(_ context.Context, objectKey string, _ int64) (string, error) {
	if uri, ok := o.dataURIs[objectKey]; ok {
		return uri, nil
	}
	return "", minio.ErrorResponse{Code: "NoSuchKey"}
}

func (o *fakeObjects) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	o.signed = append(o.signed, objectKey)
	return "https://objects.example/" + objectKey + "?sig=1", nil
}

func (o *fakeObjects) DeleteObject(_ context.Context, objectKey string) error {
	if o.err != nil {
		return o.err
	}
	o.deleted = append(o.deleted, objectKey)
	return nil
}
