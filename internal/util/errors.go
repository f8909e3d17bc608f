package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email is already registered to another user")
	ErrAlgorithmNotFound  = errors.New("algorithm not found")
	ErrProgressNotFound   = errors.New("progress not found")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus      = errors.New("invalid progress status")
	ErrTimeSpentDecreased = errors.New("time_spent cannot decrease")
	ErrEmptyMessage       = errors.New("message is required")
	ErrMissingUserID      = errors.New("user id is required")
	ErrMissingAlgorithmID = errors.New("algorithm id is required")
	ErrMissingSectionID   = errors.New("section id is required")
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file too large")
)

// IsValidationError 对应 400 的业务错误
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidRating,
		ErrInvalidStatus,
		ErrTimeSpentDecreased,
		ErrEmptyMessage,
		ErrMissingUserID,
		ErrMissingAlgorithmID,
		ErrMissingSectionID,
		ErrInvalidFileType,
		ErrFileTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
