package domain

import "errors"

// Классы ошибок конвейера. Адаптеры оборачивают исходную ошибку,
// вызывающая сторона проверяет класс через errors.Is.
var (
	ErrTransport             = errors.New("transport error")
	ErrDecode                = errors.New("decode error")
	ErrUnexpectedContentType = errors.New("unexpected content type")
)
