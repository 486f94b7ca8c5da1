package driver

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибки адаптера. Наружу всегда уходит пара
// (вид, сообщение); исходные ошибки драйвера за пределы пакета не выходят.
type Kind string

const (
	KindConnection    Kind = "ConnectionError"
	KindConfiguration Kind = "ConfigurationError"
	KindDeviceFault   Kind = "DeviceFault"
	KindShape         Kind = "ShapeError"
	KindProtocol      Kind = "ProtocolError"
	KindTimeout       Kind = "TimeoutError"
)

// Error — структурированная ошибка адаптера.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf создает Error указанного вида.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Convert приводит произвольную ошибку к *Error. Ошибки, пришедшие не из
// адаптера (например, от сессии), получают вид по контексту вызова.
func Convert(err error, fallback Kind) *Error {
	if err == nil {
		return nil
	}
	var derr *Error
	if errors.As(err, &derr) {
		return derr
	}
	return &Error{Kind: fallback, Message: err.Error()}
}

// KindOf возвращает вид ошибки или пустую строку для посторонних ошибок.
func KindOf(err error) Kind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return ""
}
