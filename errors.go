package inkpost

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrNotFound is returned for unknown or invisible posts and unknown tags.
	ErrNotFound = errors.New("inkpost: not found")
	// ErrForbidden is returned when a user acts on a post they do not own.
	ErrForbidden = errors.New("inkpost: forbidden")
	// ErrInvalidCredentials is returned by Authenticate on a bad login.
	ErrInvalidCredentials = errors.New("inkpost: invalid credentials")
	// ErrDuplicateTag is returned when a tag name or slug is already taken.
	ErrDuplicateTag = errors.New("inkpost: duplicate tag")
	// ErrDuplicateUser is returned when a username is already taken.
	ErrDuplicateUser = errors.New("inkpost: duplicate user")
)

// IsValidation reports whether err is caused by user input and should be
// shown back to the user rather than treated as a server failure.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return true
	}
	return errors.Is(err, ErrDuplicateTag) || errors.Is(err, ErrDuplicateUser)
}

// FieldErrors flattens a validation error into field → message. Errors that
// do not name a field are reported under "form".
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}
	if err != nil {
		out["form"] = strings.TrimPrefix(err.Error(), "inkpost: ")
	}
	return out
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
