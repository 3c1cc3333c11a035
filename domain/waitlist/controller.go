package waitlist

import (
	"errors"
	"net/http"

	"github.com/akeren/waitlist-api/config/router"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
)

// NewWaitlistController mounts POST and GET on /api/waitlist. signupLimiter
// overrides the global limiter for POST only.
func NewWaitlistController(service WaitlistService, signupLimiter ratelimit.RateLimiter) *router.RESTController {
	return router.NewVersionedRESTController(
		"WaitlistController",
		"api",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPostHandler(c, signupLimiter, "", submitWaitlistHandler(service))
			rs.AddGetHandler(c, nil, "", listWaitlistHandler(service))
		},
	)
}

func submitWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SubmitWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return router.ErrorResult(http.StatusRequestEntityTooLarge, "Request payload too large")
			}

			logger.Info("Failed to bind waitlist request", "error", err)
			return router.AppErrorResult(validationError(err))
		}

		response, err := service.Submit(ctx.Request.Context(), &req)
		if err != nil {
			return submitErrorResult(err)
		}

		return router.CreatedResult(response)
	}
}

func listWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.List(ctx.Request.Context())
		if err != nil {
			return router.InternalServerErrorResult(MessageListFailed)
		}

		return router.OKResult(response)
	}
}

// submitErrorResult passes validation and duplicate messages through and
// reports everything else as an unexpected error with its detail attached.
func submitErrorResult(err error) *router.ServiceResult {
	switch apperrors.GetErrorType(err) {
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeDuplicate:
		return router.AppErrorResult(err)
	}

	detail := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		detail = appErr.Message
	}

	return router.InternalServerErrorResult(MessageUnexpectedError + detail)
}
