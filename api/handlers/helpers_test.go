package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/malkhana-api/api/handlers"
	"github.com/linesmerrill/malkhana-api/api/testhelpers"
	"github.com/linesmerrill/malkhana-api/config"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
)

func init() {
	services.PasswordCost = bcrypt.MinCost
}

type fakePhotos struct {
	uploaded [][]byte
	err      error
}

func (f *fakePhotos) UploadPhoto(_ context.Context, file io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, b)
	return "https://res.cloudinary.com/demo/image/upload/malkhana/properties/photo.png", nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	app    *handlers.App
	users  *testhelpers.UserStore
	cases  *testhelpers.CaseStore
	photos *fakePhotos

	superAdmin, admin, officer string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		users:  testhelpers.NewUserStore(),
		cases:  testhelpers.NewCaseStore(),
		photos: &fakePhotos{},
	}
	ta.app = &handlers.App{
		Config: config.Config{
			SessionSecret:       "test-secret",
			BaseURL:             "https://malkhana.example.com",
			LoginRatePerMinute:  100,
			CloudinaryAPISecret: "cloudinary-secret",
		},
		Users:  ta.users,
		Cases:  ta.cases,
		Photos: ta.photos,
	}
	ta.app.Router = ta.app.New()

	svc := &services.UserService{Users: ta.users}
	ctx := context.Background()
	sa, err := svc.CreateUser(ctx, nil, newUser("root", "SA-1", ""))
	require.NoError(t, err)
	admin, err := svc.CreateUser(ctx, models.CallerFromUser(*sa), newUser("asha", "AD-1", models.RoleAdmin))
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, models.CallerFromUser(*admin), newUser("ravi", "OF-1", models.RoleOfficer))
	require.NoError(t, err)

	ta.superAdmin = ta.login(t, "root", "secret123")
	ta.admin = ta.login(t, "asha", "secret123")
	ta.officer = ta.login(t, "ravi", "secret123")
	return ta
}

func newUser(username, badge string, role models.Role) services.CreateUserInput {
	return services.CreateUserInput{
		Username:          username,
		Password:          "secret123",
		FullName:          "Officer " + username,
		PoliceStationName: "Central",
		BadgeID:           badge,
		Role:              role,
	}
}

func (ta *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ta.app.Router.ServeHTTP(rr, req)
	return rr
}

// call sends body as JSON with token as a bearer token, when given
func (ta *testApp) call(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ta.do(req)
}

func (ta *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	rr := ta.call("POST", "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decodeData(t, rr, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rr)
	require.True(t, env.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func caseBody(crimeNumber string) map[string]interface{} {
	return map[string]interface{}{
		"policeStationName":        "Central",
		"investigatingOfficerName": "Inspector Rao",
		"investigatingOfficerId":   "IO-7",
		"crimeNumber":              crimeNumber,
		"crimeYear":                2025,
		"dateOfFIR":                "2025-01-10",
		"dateOfSeizure":            "2025-01-12",
		"actAndLaw":                "IPC",
		"sectionOfLaw":             "379",
	}
}

func propertyBody() map[string]string {
	return map[string]string{
		"category":    "Electronics",
		"belongingTo": "ACCUSED",
		"nature":      "Mobile phone",
		"quantity":    "1",
		"location":    "Rack A-3",
		"description": "Black handset",
	}
}
