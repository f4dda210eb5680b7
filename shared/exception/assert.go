package exception

import "reflect"

// AssertEqual fails with a BadRequest biz error when a and b differ.
func AssertEqual(a, b any, message string) error {
	if !reflect.DeepEqual(a, b) {
		return BadRequest(message)
	}
	return nil
}

// AssertNotNil fails with a NotFound biz error when v is nil or a nil pointer.
func AssertNotNil(v any, message string) error {
	if v == nil {
		return NewBizNotFound(message)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return NewBizNotFound(message)
		}
	}
	return nil
}

func AssertTrue(cond bool, message string) error {
	if !cond {
		return BadRequest(message)
	}
	return nil
}
