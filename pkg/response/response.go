package response

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var EmptyRequestBodyResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Empty Request Body",
	Message:    "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Bad Request",
	Message:    "The request could not be processed.",
}

var LinkNotAvailableResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusNotFound,
	Error:      "Link Not Available",
	Message:    "The requested link is not available.",
}

var CodeGenerationResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusServiceUnavailable,
	Error:      "Code Generation Failed",
	Message:    "Could not allocate a unique short code. Please try again.",
}

var ServerErrorResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusInternalServerError,
	Error:      "Server Error",
	Message:    "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
	Details    []any  `json:"details,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func SuccessResponse(statusCode int, msg string, data ...any) Response {
	resp := Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Message:    msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:     StatusError,
		StatusCode: http.StatusBadRequest,
		Error:      "Validation Error",
		Message:    "The request contains invalid data.",
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			resp.Details = append(resp.Details, map[string]string{
				"field": fieldErr.Field(),
				"rule":  fieldErr.Tag(),
			})
		}
	}

	return resp
}
