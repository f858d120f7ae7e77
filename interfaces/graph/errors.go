package graph

import (
	apperrors "learninglog-backend/pkg/errors"
)

// wireError adapts an AppError to the gqlerrors.ExtendedError interface
// so the formatted response carries the code (and field map, for
// validation) in the error extensions.
type wireError struct {
	app *apperrors.AppError
}

func (e *wireError) Error() string {
	return e.app.Message
}

func (e *wireError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code": string(e.app.Code),
	}
	if len(e.app.Fields) > 0 {
		ext["fields"] = e.app.Fields
	}
	return ext
}

// asWireError converts any resolver error into the wire form. Errors
// outside the taxonomy are masked as internal.
func asWireError(err error) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return &wireError{app: appErr}
	}
	return &wireError{app: apperrors.NewInternalError("Internal server error", err)}
}
