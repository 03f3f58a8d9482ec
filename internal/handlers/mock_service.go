package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pitwatch/internal/logger"
	"pitwatch/internal/models"
	"pitwatch/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockPit struct {
	status    models.StatusBundle
	statusErr error
	actionErr error
	endErr    error

	lastNote    string
	actionCalls int
	endCalls    int
}

func (m *mockPit) Run(ctx context.Context) {}
func (m *mockPit) AddAction(ctx context.Context, note string) error {
	m.actionCalls++
	m.lastNote = note
	return m.actionErr
}
func (m *mockPit) Status(ctx context.Context) (models.StatusBundle, error) {
	return m.status, m.statusErr
}
func (m *mockPit) EndSession(ctx context.Context) error {
	m.endCalls++
	return m.endErr
}

type mockEventLog struct {
	resp     []models.CookEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CookEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, logger.Get(logger.ErrorLevel))
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
