package middleware

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/utils"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into obj and validates it.
func BindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return exception.NotReadable(err)
	}
	return exception.ValidateStruct(obj)
}

// BindQuery binds query parameters into obj and validates it. Both binding
// and validation failures are reported as a BindError.
func BindQuery(c *gin.Context, obj any) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return &exception.BindError{Object: objectName(obj), Err: err}
	}
	if err := exception.Validator().Struct(obj); err != nil {
		return &exception.BindError{Object: objectName(obj), Err: err}
	}
	return nil
}

// PathInt64 reads a path parameter that must be an int64.
func PathInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &exception.TypeMismatchError{Name: name, Value: raw, RequiredType: "int64"}
	}
	return id, nil
}

// QueryInt64s reads a required id list given as ids=1,2 or ids=1&ids=2.
func QueryInt64s(c *gin.Context, name string) ([]int64, error) {
	values, ok := c.GetQueryArray(name)
	if !ok || strings.TrimSpace(strings.Join(values, "")) == "" {
		return nil, &exception.MissingParameterError{Name: name, Type: "[]int64"}
	}
	raw := strings.Join(values, ",")
	ids, err := utils.ParseIDs(raw)
	if err != nil {
		return nil, &exception.TypeMismatchError{Name: name, Value: raw, RequiredType: "[]int64"}
	}
	return ids, nil
}

// ValidateRequest validates an already decoded request.
func ValidateRequest(obj any) error {
	return exception.ValidateStruct(obj)
}

func objectName(obj any) string {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := []rune(t.Name())
	if len(name) == 0 {
		return "object"
	}
	name[0] = unicode.ToLower(name[0])
	return string(name)
}
