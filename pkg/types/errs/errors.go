package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNoNextImage    = errors.New("no next image to promote")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("record was modified concurrently")

	ErrStorage = errors.New("blob storage error")
	ErrStore   = errors.New("relational store error")

	ErrSeekRejected = errors.New("seek offset rejected")
	ErrThumbnail    = errors.New("thumbnail extraction failed")
)
