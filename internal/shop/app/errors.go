package app

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("member name already exists")
	ErrInvalidInput  = errors.New("invalid input")
)
