package exception

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/changzer/choppy/shared/errcode"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
)

// Translation is what an error becomes in the response envelope.
type Translation struct {
	Kind    string
	Status  int
	Code    int
	Message string
}

func from(kind string, ec errcode.Code, message string) Translation {
	if message == "" {
		message = ec.Msg
	}
	return Translation{Kind: kind, Status: ec.Status, Code: ec.Code, Message: message}
}

// Translate maps err onto a response code and message. It never fails:
// anything it does not recognise becomes SystemBusy.
func Translate(err error) Translation {
	var (
		biz       *BizError
		notRead   *NotReadableError
		bind      *BindError
		mismatch  *TypeMismatchError
		missing   *MissingParameterError
		nilPtr    *NullPointerError
		media     *MediaTypeError
		part      *MissingPartError
		mpErr     *MultipartError
		violation *ConstraintViolationError
		notValid  *ArgumentNotValidError
		pqErr     *pq.Error
	)

	switch {
	case err == nil:
		return from("Success", errcode.Success, "")

	case errors.As(err, &biz):
		status := biz.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		return Translation{Kind: "BizError", Status: status, Code: biz.Code, Message: biz.Message}

	case errors.As(err, &notRead):
		if notRead.Detail != "" {
			return from("NotReadable", errcode.ParamEx, "could not parse JSON parameter: "+notRead.Detail)
		}
		return from("NotReadable", errcode.ParamEx, "")

	case errors.As(err, &bind):
		return from("Bind", errcode.ParamEx, bindMessage(bind))

	case errors.As(err, &mismatch):
		return from("TypeMismatch", errcode.ParamEx, mismatch.Error())

	case errors.Is(err, ErrIllegalState):
		return from("IllegalState", errcode.IllegalArgumentEx, "")

	case errors.As(err, &missing):
		return from("MissingParameter", errcode.IllegalArgumentEx, missing.Error())

	case errors.As(err, &nilPtr):
		return from("NullPointer", errcode.NullPointEx, "")

	case errors.Is(err, ErrIllegalArgument):
		return from("IllegalArgument", errcode.IllegalArgumentEx, "")

	case errors.As(err, &media):
		return from("MediaType", errcode.MediaTypeEx, media.Error())

	case errors.As(err, &part):
		return from("MissingPart", errcode.RequiredFileParamEx, "")

	case errors.Is(err, http.ErrNotMultipart):
		return from("NotMultipart", errcode.RequiredFileParamEx, "")

	case errors.As(err, &mpErr), errors.Is(err, multipart.ErrMessageTooLarge), errors.Is(err, http.ErrMissingFile):
		return from("Multipart", errcode.RequiredFileParamEx, "")

	case errors.As(err, &violation):
		return from("ConstraintViolation", errcode.BaseValidParam, strings.Join(violation.Violations, ";"))

	case errors.As(err, &notValid):
		msg := ""
		if len(notValid.Errs) > 0 {
			msg = FieldMessage(notValid.Errs[0])
		}
		return from("ArgumentNotValid", errcode.BaseValidParam, msg)

	case errors.Is(err, ErrMethodNotAllowed):
		return from("MethodNotAllowed", errcode.MethodNotAllowed, "")

	case errors.As(err, &pqErr), errors.Is(err, sql.ErrConnDone), errors.Is(err, sql.ErrTxDone), errors.Is(err, driver.ErrBadConn):
		return from("SQL", errcode.SQLEx, "")
	}

	return from("Unclassified", errcode.SystemBusy, "")
}

func bindMessage(e *BindError) string {
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) && len(verrs) > 0 {
		return FieldMessage(verrs[0])
	}
	var numErr *strconv.NumError
	if errors.As(e.Err, &numErr) {
		return fmt.Sprintf("parameter [%s] value [%s] does not match the expected type.", e.Object, numErr.Num)
	}
	if e.Value != "" {
		return fmt.Sprintf("parameter [%s] value [%s] does not match the expected type.", e.Object, e.Value)
	}
	return ""
}

// NotReadable classifies a JSON decoding failure of a request body.
func NotReadable(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return &NotReadableError{Detail: fmt.Sprintf("%s at offset %d", syntaxErr.Error(), syntaxErr.Offset), Err: err}
	case errors.As(err, &typeErr):
		return &NotReadableError{Detail: fmt.Sprintf("field [%s] expects [%s] but got [%s]", typeErr.Field, typeErr.Type, typeErr.Value), Err: err}
	}
	return &NotReadableError{Err: err}
}
