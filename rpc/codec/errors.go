package codec

import "errors"

var (
	ErrInvalidMagic      = errors.New("codec: invalid magic")
	ErrPayloadTooLarge   = errors.New("codec: payload too large")
	ErrInvalidMaxPayload = errors.New("codec: max payload out of range")
)
