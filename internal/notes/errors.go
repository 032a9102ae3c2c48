package notes

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("not the note owner")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUploadFailed  = errors.New("file upload failed")
	ErrInvalidResult = errors.New("recognized text must be set exactly when status is DONE")
)

const (
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeNotFound   = "NOT_FOUND"
	ErrorCodeForbidden  = "FORBIDDEN"
	ErrorCodeUpload     = "FILE_UPLOAD_FAIL"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)
