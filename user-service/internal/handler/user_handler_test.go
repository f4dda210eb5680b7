package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/errcode"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ---- mock implementations ----

type mockUserCommander struct {
	saveFn         func(cqrs.SaveUserCommand) (*models.UserView, error)
	updateFn       func(cqrs.UpdateUserCommand) (*models.UserView, error)
	removeFn       func(cqrs.RemoveUsersCommand) error
	resetFn        func(cqrs.ResetPasswordsCommand) error
	updatePassFn   func(cqrs.UpdatePasswordCommand) error
	resetErrNumFn  func(int64) (int64, error)
	incrErrNumFn   func(int64) error
	loginTimeFn    func(string) error
	assignRolesFn  func(cqrs.AssignRolesCommand) error
	uploadAvatarFn func(cqrs.UploadAvatarCommand) (*models.UserView, error)
}

func (m *mockUserCommander) SaveUser(_ context.Context, cmd cqrs.SaveUserCommand) (*models.UserView, error) {
	if m.saveFn != nil {
		return m.saveFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdateUser(_ context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) Remove(_ context.Context, cmd cqrs.RemoveUsersCommand) error {
	if m.removeFn != nil {
		return m.removeFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) Reset(_ context.Context, cmd cqrs.ResetPasswordsCommand) error {
	if m.resetFn != nil {
		return m.resetFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdatePassword(_ context.Context, cmd cqrs.UpdatePasswordCommand) error {
	if m.updatePassFn != nil {
		return m.updatePassFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) ResetPassErrorNum(_ context.Context, id int64) (int64, error) {
	if m.resetErrNumFn != nil {
		return m.resetErrNumFn(id)
	}
	return 0, fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdatePasswordErrorNumByID(_ context.Context, id int64) error {
	if m.incrErrNumFn != nil {
		return m.incrErrNumFn(id)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdateLoginTime(_ context.Context, account string) error {
	if m.loginTimeFn != nil {
		return m.loginTimeFn(account)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) AssignRoles(_ context.Context, cmd cqrs.AssignRolesCommand) error {
	if m.assignRolesFn != nil {
		return m.assignRolesFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) UploadAvatar(_ context.Context, cmd cqrs.UploadAvatarCommand) (*models.UserView, error) {
	if m.uploadAvatarFn != nil {
		return m.uploadAvatarFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockUserQuerier struct {
	getFn       func(cqrs.GetUserQuery) (*models.UserView, error)
	byAccountFn func(cqrs.GetUserByAccountQuery) (*models.UserView, error)
	pageFn      func(cqrs.UserPageQuery) (*models.Page[models.UserView], error)
	byRoleFn    func(cqrs.FindUsersByRoleQuery) ([]models.UserView, error)
	rolesFn     func() ([]models.Role, error)
	avatarFn    func(cqrs.GetUserQuery) (string, error)
}

func (m *mockUserQuerier) GetUser(_ context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) GetByAccount(_ context.Context, q cqrs.GetUserByAccountQuery) (*models.UserView, error) {
	if m.byAccountFn != nil {
		return m.byAccountFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) FindPage(_ context.Context, q cqrs.UserPageQuery) (*models.Page[models.UserView], error) {
	if m.pageFn != nil {
		return m.pageFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) FindUserByRoleID(_ context.Context, q cqrs.FindUsersByRoleQuery) ([]models.UserView, error) {
	if m.byRoleFn != nil {
		return m.byRoleFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListRoles(_ context.Context) ([]models.Role, error) {
	if m.rolesFn != nil {
		return m.rolesFn()
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) AvatarURL(_ context.Context, q cqrs.GetUserQuery) (string, error) {
	if m.avatarFn != nil {
		return m.avatarFn(q)
	}
	return "", fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newUserTestRouter(cmds UserCommander, qrys UserQuerier, authUserID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := middleware.NewEngine(zap.NewNop())
	Register(r, NewUserHandler(cmds, qrys), fakeAuthUser(authUserID))
	return r
}

func userDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(w *httptest.ResponseRecorder) result.Result {
	var env result.Result
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return env
}

// ---- test data ----

var uTestUserView = &models.UserView{
	ID: 1, Account: "alice", Name: "Alice", Email: "alice@example.com",
	Mobile: "13800000000", Sex: models.SexFemale, Status: true,
	CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

func uValidSaveBody() map[string]interface{} {
	return map[string]interface{}{
		"account": "alice", "name": "Alice Smith", "password": "securepass123",
		"email": "alice@example.com", "mobile": "13800000000", "sex": "W",
	}
}

// ---- tests ----

func TestSaveUser(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		saveFn         func(cqrs.SaveUserCommand) (*models.UserView, error)
		expectedStatus int
		expectedCode   int
	}{
		{
			name:           "success - creates new user",
			body:           uValidSaveBody(),
			saveFn:         func(cmd cqrs.SaveUserCommand) (*models.UserView, error) { return uTestUserView, nil },
			expectedStatus: http.StatusCreated,
			expectedCode:   errcode.Success.Code,
		},
		{
			name:           "conflict - account already exists",
			body:           uValidSaveBody(),
			saveFn:         func(cmd cqrs.SaveUserCommand) (*models.UserView, error) { return nil, exception.Conflict("account [alice] already exists") },
			expectedStatus: http.StatusConflict,
			expectedCode:   errcode.Conflict.Code,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]interface{}{"email": "alice@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errcode.BaseValidParam.Code,
		},
		{
			name:           "bad request - invalid email format",
			body:           map[string]interface{}{"account": "alice", "name": "Alice", "password": "pass12345", "email": "not-valid"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errcode.BaseValidParam.Code,
		},
		{
			name:           "bad request - unknown sex",
			body:           map[string]interface{}{"account": "alice", "name": "Alice", "password": "pass12345", "sex": "X"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errcode.BaseValidParam.Code,
		},
		{
			name:           "bad request - wrong json type",
			body:           map[string]interface{}{"account": 12, "name": "Alice", "password": "pass12345"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errcode.ParamEx.Code,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{saveFn: tt.saveFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, 1)
			w := userDoRequest(router, http.MethodPost, "/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if env := decodeEnvelope(w); env.Code != tt.expectedCode {
				t.Errorf("[%s] expected code %d, got %d; body: %s", tt.name, tt.expectedCode, env.Code, w.Body.String())
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		getFn          func(cqrs.GetUserQuery) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name:           "success - fetch user details",
			url:            "/v1/users/1",
			getFn:          func(q cqrs.GetUserQuery) (*models.UserView, error) { return uTestUserView, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - user does not exist",
			url:            "/v1/users/999",
			getFn:          func(q cqrs.GetUserQuery) (*models.UserView, error) { return nil, exception.NotFound("user") },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - id is not a number",
			url:            "/v1/users/abc",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{getFn: tt.getFn}, 1)
			w := userDoRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetUserDoesNotLeakPassword(t *testing.T) {
	router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{
		getFn: func(q cqrs.GetUserQuery) (*models.UserView, error) {
			u := &models.User{ID: 1, Account: "alice", Password: "$2a$10$hash"}
			return u.View(), nil
		},
	}, 1)

	w := userDoRequest(router, http.MethodGet, "/v1/users/1", nil)
	if strings.Contains(w.Body.String(), "$2a$10$hash") {
		t.Errorf("password hash leaked; body: %s", w.Body.String())
	}
}

func TestFindPage(t *testing.T) {
	var got cqrs.UserPageQuery
	qrys := &mockUserQuerier{pageFn: func(q cqrs.UserPageQuery) (*models.Page[models.UserView], error) {
		got = q
		return models.NewPage(q.PageParams.Normalize(), 1, []models.UserView{*uTestUserView}), nil
	}}
	router := newUserTestRouter(&mockUserCommander{}, qrys, 1)

	w := userDoRequest(router, http.MethodGet, "/v1/users?current=2&size=5&account=ali&orgId=3&status=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	if got.Current != 2 || got.Size != 5 || got.Account != "ali" || got.OrgID == nil || *got.OrgID != 3 || got.Status == nil || !*got.Status {
		t.Errorf("unexpected query %+v", got)
	}

	w = userDoRequest(router, http.MethodGet, "/v1/users?orgId=x", nil)
	if env := decodeEnvelope(w); env.Code != errcode.ParamEx.Code {
		t.Errorf("expected code %d got %d; body: %s", errcode.ParamEx.Code, env.Code, w.Body.String())
	}
}

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		body           interface{}
		updateFn       func(cqrs.UpdateUserCommand) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name: "success - partial update",
			url:  "/v1/users/1",
			body: map[string]interface{}{"name": "Alice Updated"},
			updateFn: func(cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
				if cmd.Name == nil || *cmd.Name != "Alice Updated" || cmd.Email != nil {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return uTestUserView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - user does not exist",
			url:            "/v1/users/999",
			body:           map[string]interface{}{"name": "Nobody"},
			updateFn:       func(cmd cqrs.UpdateUserCommand) (*models.UserView, error) { return nil, exception.NotFound("user") },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - password too short",
			url:            "/v1/users/1",
			body:           map[string]interface{}{"password": "123"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{updateFn: tt.updateFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, 1)
			w := userDoRequest(router, http.MethodPatch, tt.url, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRemoveUsers(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		removeFn       func(cqrs.RemoveUsersCommand) error
		expectedStatus int
		expectedCode   int
	}{
		{
			name: "success - removes listed users",
			url:  "/v1/users?ids=1,2",
			removeFn: func(cmd cqrs.RemoveUsersCommand) error {
				if len(cmd.UserIDs) != 2 {
					return fmt.Errorf("unexpected ids %v", cmd.UserIDs)
				}
				return nil
			},
			expectedStatus: http.StatusOK,
			expectedCode:   errcode.Success.Code,
		},
		{
			name:           "illegal argument - ids missing",
			url:            "/v1/users",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errcode.IllegalArgumentEx.Code,
		},
		{
			name:           "not found - nothing removed",
			url:            "/v1/users?ids=9",
			removeFn:       func(cmd cqrs.RemoveUsersCommand) error { return exception.NotFound("user") },
			expectedStatus: http.StatusNotFound,
			expectedCode:   errcode.NotFound.Code,
		},
		{
			name:           "system busy - unclassified failure",
			url:            "/v1/users?ids=1",
			removeFn:       func(cmd cqrs.RemoveUsersCommand) error { return fmt.Errorf("delete: %w", io.ErrUnexpectedEOF) },
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   errcode.SystemBusy.Code,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{removeFn: tt.removeFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, 1)
			w := userDoRequest(router, http.MethodDelete, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if env := decodeEnvelope(w); env.Code != tt.expectedCode {
				t.Errorf("[%s] expected code %d, got %d; body: %s", tt.name, tt.expectedCode, env.Code, w.Body.String())
			}
		})
	}
}

func TestResetPasswords(t *testing.T) {
	cmds := &mockUserCommander{resetFn: func(cmd cqrs.ResetPasswordsCommand) error { return nil }}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, 1)

	w := userDoRequest(router, http.MethodPost, "/v1/users/reset", map[string]interface{}{"ids": []int64{1, 2}})
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}

	w = userDoRequest(router, http.MethodPost, "/v1/users/reset", map[string]interface{}{"ids": []int64{}})
	if env := decodeEnvelope(w); env.Code != errcode.BaseValidParam.Code {
		t.Errorf("expected code %d got %d; body: %s", errcode.BaseValidParam.Code, env.Code, w.Body.String())
	}
}

func TestUpdatePassword(t *testing.T) {
	body := map[string]interface{}{"oldPassword": "old", "password": "newpass1", "confirmPassword": "newpass1"}
	tests := []struct {
		name           string
		url            string
		authUserID     int64
		updatePassFn   func(cqrs.UpdatePasswordCommand) error
		expectedStatus int
	}{
		{
			name: "success - change own password", url: "/v1/users/1/password", authUserID: 1,
			updatePassFn:   func(cmd cqrs.UpdatePasswordCommand) error { return nil },
			expectedStatus: http.StatusOK,
		},
		{
			name: "forbidden - change another user's password", url: "/v1/users/2/password", authUserID: 1,
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "bad request - wrong old password", url: "/v1/users/1/password", authUserID: 1,
			updatePassFn:   func(cmd cqrs.UpdatePasswordCommand) error { return exception.BadRequest("old password is incorrect") },
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{updatePassFn: tt.updatePassFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, tt.authUserID)
			w := userDoRequest(router, http.MethodPut, tt.url, body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestPasswordErrorRoutes(t *testing.T) {
	var incremented int64
	cmds := &mockUserCommander{
		resetErrNumFn: func(id int64) (int64, error) { return 1, nil },
		incrErrNumFn:  func(id int64) error { incremented = id; return nil },
	}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, 1)

	w := userDoRequest(router, http.MethodPost, "/v1/users/4/password-errors", nil)
	if w.Code != http.StatusOK || incremented != 4 {
		t.Errorf("increment: expected 200 for user 4 got %d (%d); body: %s", w.Code, incremented, w.Body.String())
	}

	w = userDoRequest(router, http.MethodPost, "/v1/users/4/password-errors/reset", nil)
	if env := decodeEnvelope(w); env.Data != float64(1) {
		t.Errorf("reset: expected 1 row got %v; body: %s", env.Data, w.Body.String())
	}
}

func TestAccountRoutes(t *testing.T) {
	var loggedIn string
	cmds := &mockUserCommander{loginTimeFn: func(account string) error { loggedIn = account; return nil }}
	qrys := &mockUserQuerier{byAccountFn: func(q cqrs.GetUserByAccountQuery) (*models.UserView, error) {
		if q.Account != "alice" {
			return nil, exception.NotFound("user")
		}
		return uTestUserView, nil
	}}
	router := newUserTestRouter(cmds, qrys, 1)

	if w := userDoRequest(router, http.MethodGet, "/v1/users/by-account/alice", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	if w := userDoRequest(router, http.MethodGet, "/v1/users/by-account/bob", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d; body: %s", w.Code, w.Body.String())
	}
	if w := userDoRequest(router, http.MethodPost, "/v1/users/by-account/alice/login", nil); w.Code != http.StatusOK || loggedIn != "alice" {
		t.Errorf("expected login time update for alice, got %d (%q); body: %s", w.Code, loggedIn, w.Body.String())
	}
}

func TestAssignRoles(t *testing.T) {
	var got cqrs.AssignRolesCommand
	cmds := &mockUserCommander{assignRolesFn: func(cmd cqrs.AssignRolesCommand) error { got = cmd; return nil }}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, 1)

	w := userDoRequest(router, http.MethodPut, "/v1/users/3/roles", map[string]interface{}{"roleIds": []int64{1, 2}})
	if w.Code != http.StatusOK || got.UserID != 3 || len(got.RoleIDs) != 2 {
		t.Errorf("expected roles assigned to user 3, got %d %+v; body: %s", w.Code, got, w.Body.String())
	}

	w = userDoRequest(router, http.MethodPut, "/v1/users/3/roles", map[string]interface{}{"roleIds": []int64{0}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 got %d; body: %s", w.Code, w.Body.String())
	}
}

func avatarRequest(t *testing.T, url, field, contentType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="me.png"`, field))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAvatar(t *testing.T) {
	var got cqrs.UploadAvatarCommand
	cmds := &mockUserCommander{uploadAvatarFn: func(cmd cqrs.UploadAvatarCommand) (*models.UserView, error) {
		got = cmd
		return uTestUserView, nil
	}}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, 1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, avatarRequest(t, "/v1/users/1/avatar", "file", "image/png"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	if got.FileName != "me.png" || got.ContentType != "image/png" || got.Size != int64(len("png-bytes")) {
		t.Errorf("unexpected upload command %+v", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, avatarRequest(t, "/v1/users/1/avatar", "other", "image/png"))
	if env := decodeEnvelope(w); env.Code != errcode.RequiredFileParamEx.Code {
		t.Errorf("missing part: expected code %d got %d; body: %s", errcode.RequiredFileParamEx.Code, env.Code, w.Body.String())
	}

	w = userDoRequest(router, http.MethodPost, "/v1/users/1/avatar", map[string]string{"file": "x"})
	if env := decodeEnvelope(w); env.Code != errcode.RequiredFileParamEx.Code {
		t.Errorf("not multipart: expected code %d got %d; body: %s", errcode.RequiredFileParamEx.Code, env.Code, w.Body.String())
	}
}

func TestRoles(t *testing.T) {
	var got cqrs.FindUsersByRoleQuery
	qrys := &mockUserQuerier{
		rolesFn: func() ([]models.Role, error) { return []models.Role{{ID: 1, Code: "SUPER_ADMIN"}}, nil },
		byRoleFn: func(q cqrs.FindUsersByRoleQuery) ([]models.UserView, error) {
			got = q
			return []models.UserView{*uTestUserView}, nil
		},
	}
	router := newUserTestRouter(&mockUserCommander{}, qrys, 1)

	if w := userDoRequest(router, http.MethodGet, "/v1/roles", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	w := userDoRequest(router, http.MethodGet, "/v1/roles/1/users?keyword=ali", nil)
	if w.Code != http.StatusOK || got.RoleID != 1 || got.Keyword != "ali" {
		t.Errorf("expected role 1 keyword ali, got %d %+v; body: %s", w.Code, got, w.Body.String())
	}
}
