package exception

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"testing"

	"github.com/changzer/choppy/shared/errcode"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type loginBody struct {
	Account  string `json:"account" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestTranslateCodes(t *testing.T) {
	var nilMap map[string]int
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"biz error keeps its code", NewBiz(errcode.Conflict, "account already exists"), errcode.Conflict.Code},
		{"wrapped biz error", fmt.Errorf("save: %w", NotFound("user")), errcode.NotFound.Code},
		{"not readable", NotReadable(&json.SyntaxError{Offset: 3}), errcode.ParamEx.Code},
		{"bind", &BindError{Object: "page", Err: &strconv.NumError{Func: "ParseInt", Num: "x", Err: strconv.ErrSyntax}}, errcode.ParamEx.Code},
		{"type mismatch", &TypeMismatchError{Name: "id", Value: "abc", RequiredType: "int64"}, errcode.ParamEx.Code},
		{"illegal state", fmt.Errorf("avatar: %w", ErrIllegalState), errcode.IllegalArgumentEx.Code},
		{"missing parameter", &MissingParameterError{Name: "ids", Type: "[]int64"}, errcode.IllegalArgumentEx.Code},
		{"null pointer", FromPanic(recoverOf(func() { nilMap["a"] = 1 })), errcode.NullPointEx.Code},
		{"illegal argument", fmt.Errorf("move org: %w", ErrIllegalArgument), errcode.IllegalArgumentEx.Code},
		{"media type", &MediaTypeError{ContentType: "text/plain"}, errcode.MediaTypeEx.Code},
		{"missing part", &MissingPartError{Name: "file"}, errcode.RequiredFileParamEx.Code},
		{"not multipart", http.ErrNotMultipart, errcode.RequiredFileParamEx.Code},
		{"multipart too large", multipart.ErrMessageTooLarge, errcode.RequiredFileParamEx.Code},
		{"missing file", fmt.Errorf("form: %w", http.ErrMissingFile), errcode.RequiredFileParamEx.Code},
		{"constraint violation", &ConstraintViolationError{Violations: []string{"ids: This field is required"}}, errcode.BaseValidParam.Code},
		{"argument not valid", ValidateStruct(loginBody{Account: "admin"}), errcode.BaseValidParam.Code},
		{"method not allowed", ErrMethodNotAllowed, errcode.MethodNotAllowed.Code},
		{"pq error", fmt.Errorf("query: %w", &pq.Error{Code: "42P01"}), errcode.SQLEx.Code},
		{"tx done", sql.ErrTxDone, errcode.SQLEx.Code},
		{"anything else", errors.New("boom"), errcode.SystemBusy.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err)
			assert.Equal(t, tt.wantCode, got.Code, "kind=%s message=%s", got.Kind, got.Message)
			assert.NotEmpty(t, got.Message)
			assert.NotZero(t, got.Status)
		})
	}
}

func TestTranslateMessages(t *testing.T) {
	got := Translate(&ConstraintViolationError{Violations: []string{"a: x", "b: y"}})
	assert.Equal(t, "a: x;b: y", got.Message)

	got = Translate(ValidateStruct(loginBody{Account: "admin", Password: "123"}))
	assert.Equal(t, "password: Value is too short", got.Message)

	got = Translate(&BindError{Object: "page", Err: &strconv.NumError{Func: "ParseInt", Num: "abc", Err: strconv.ErrSyntax}})
	assert.Equal(t, "parameter [page] value [abc] does not match the expected type.", got.Message)

	got = Translate(&MediaTypeError{})
	assert.Equal(t, "invalid Content-Type", got.Message)

	got = Translate(&MediaTypeError{ContentType: "text/plain"})
	assert.Equal(t, "content type [text/plain] does not match the endpoint", got.Message)

	var decoded map[string]any
	got = Translate(NotReadable(json.Unmarshal([]byte("{"), &decoded)))
	assert.Equal(t, "could not parse JSON parameter: unexpected end of JSON input at offset 1", got.Message)

	got = Translate(NotReadable(errors.New("EOF")))
	assert.Equal(t, errcode.ParamEx.Msg, got.Message)

	got = Translate(&MissingParameterError{Name: "ids", Type: "[]int64"})
	assert.Equal(t, "missing required parameter [ids] of type [[]int64]", got.Message)

	got = Translate(errors.New("secret internals"))
	assert.Equal(t, errcode.SystemBusy.Msg, got.Message)
}

func TestTranslateBizStatus(t *testing.T) {
	got := Translate(NotFound("user"))
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "user not found", got.Message)

	got = Translate(&BizError{Code: 7, Message: "custom"})
	assert.Equal(t, http.StatusBadRequest, got.Status)
}

func TestBizErrorIs(t *testing.T) {
	err := fmt.Errorf("get: %w", NotFound("station"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestCheckVar(t *testing.T) {
	assert.NoError(t, CheckVar("ids", []int64{1, 2}, "required,min=1,dive,gt=0"))

	err := CheckVar("ids", []int64{}, "required,min=1,dive,gt=0")
	var cv *ConstraintViolationError
	assert.ErrorAs(t, err, &cv)
	assert.Len(t, cv.Violations, 1)
}

func TestAssertions(t *testing.T) {
	assert.NoError(t, AssertEqual("a", "a", "mismatch"))
	assert.ErrorIs(t, AssertEqual("a", "b", "mismatch"), ErrBadRequest)

	var p *loginBody
	assert.ErrorIs(t, AssertNotNil(p, "user not found"), ErrNotFound)
	assert.NoError(t, AssertNotNil(&loginBody{}, "user not found"))
	assert.ErrorIs(t, AssertTrue(false, "nope"), ErrBadRequest)
}

func recoverOf(fn func()) (rec any) {
	defer func() { rec = recover() }()
	fn()
	return nil
}
