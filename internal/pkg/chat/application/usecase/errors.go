package usecase

import "errors"

// ErrPersistence indicates an infrastructure/repository failure inside a use case.
var ErrPersistence = errors.New("chat use case persistence error")

// ErrInvalidInput indicates a request that fails validation before any state change.
var ErrInvalidInput = errors.New("chat use case invalid input")
