package service

import "errors"

var (
	ErrNotInFamily      = errors.New("user is not a member of a family")
	ErrNotAuthorized    = errors.New("not authorized for this family")
	ErrForbidden        = errors.New("only the owner can change this")
	ErrNotFound         = errors.New("not found")
	ErrInvalidDate      = errors.New("photos can only be uploaded for today")
	ErrValidation       = errors.New("invalid input")
	ErrDerivativeFailed = errors.New("failed to process image")
	ErrStorageWrite     = errors.New("failed to store image")
	ErrRowWrite         = errors.New("failed to save photo")
	ErrTagExists        = errors.New("tag already exists on this photo")
)
