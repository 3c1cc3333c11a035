package router

import (
	"net/http"

	"github.com/akeren/waitlist-api/internal/log"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	return log.FromContext(ctx.Request.Context(), nil)
}

func OKResult(body any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

func CreatedResult(body any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusCreated,
		Body:       body,
	}
}

func ErrorResult(statusCode int, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Body:       ErrorBody{Error: message},
	}
}

func TooManyRequestsResult(details RateLimitResponse) *ServiceResult {
	details.Error = "Too many requests"
	return &ServiceResult{
		StatusCode: http.StatusTooManyRequests,
		Body:       details,
	}
}

func BadRequestResult(message string) *ServiceResult {
	return ErrorResult(http.StatusBadRequest, message)
}

func ConflictResult(message string) *ServiceResult {
	return ErrorResult(http.StatusConflict, message)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return ErrorResult(http.StatusInternalServerError, message)
}

// AppErrorResult maps err onto its HTTP status and client message.
func AppErrorResult(err error) *ServiceResult {
	return ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err))
}
