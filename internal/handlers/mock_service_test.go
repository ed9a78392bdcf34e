package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseOp       service.Operator
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (service.Operator, error) {
	m.lastParseToken = token
	return m.parseOp, m.parseErr
}

var testOperator = service.Operator{ID: 1, Username: "pit"}

type mockMonitoring struct {
	status    service.StatusView
	samples   service.SamplesView
	csv       string
	xlsx      []byte
	exportErr error
}

func (m *mockMonitoring) Status(ctx context.Context) service.StatusView   { return m.status }
func (m *mockMonitoring) Samples(ctx context.Context) service.SamplesView { return m.samples }
func (m *mockMonitoring) ExportCSV(w io.Writer) error {
	if m.exportErr != nil {
		return m.exportErr
	}
	_, err := io.WriteString(w, m.csv)
	return err
}
func (m *mockMonitoring) ExportXLSX(w io.Writer) error {
	if m.exportErr != nil {
		return m.exportErr
	}
	_, err := w.Write(m.xlsx)
	return err
}

type mockEventLog struct {
	resp     []pitwatch.Event
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]pitwatch.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}
func (m *mockEventLog) Record(ctx context.Context, typ, description string, meta any) {}

// mockAlarms embeds service.Alarms so only the handler-facing methods need bodies.
type mockAlarms struct {
	service.Alarms

	engine    alarm.Engine
	report    alarm.Report
	updateErr error
	updates   int
	lastSaved alarm.Settings
	operator  service.Operator
}

func (m *mockAlarms) Get() service.AlarmView {
	return viewOf(m.engine)
}
func (m *mockAlarms) Update(ctx context.Context, s alarm.Settings) (service.AlarmView, error) {
	m.updates++
	m.lastSaved = s
	m.operator, _ = service.OperatorFrom(ctx)
	if m.updateErr != nil {
		return service.AlarmView{}, m.updateErr
	}
	m.engine = alarm.NewEngine(s)
	return viewOf(m.engine), nil
}
func (m *mockAlarms) Check() alarm.Report { return m.report }

func viewOf(e alarm.Engine) service.AlarmView {
	v := service.AlarmView{Settings: e.Settings(), HasAlarms: e.HasAnyEnabled()}
	for p := 0; p < pitwatch.NumProbes; p++ {
		v.Lo[p] = e.Lo(p)
		v.Hi[p] = e.Hi(p)
	}
	return v
}

type mockSetpoint struct {
	err   error
	calls int
	last  int

	passwordErr  error
	lastPassword string

	operator service.Operator
}

func (m *mockSetpoint) ChangeSetpoint(ctx context.Context, setpoint int) error {
	m.calls++
	m.last = setpoint
	m.operator, _ = service.OperatorFrom(ctx)
	return m.err
}
func (m *mockSetpoint) SetDevicePassword(ctx context.Context, password string) error {
	m.lastPassword = password
	m.operator, _ = service.OperatorFrom(ctx)
	return m.passwordErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
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
