package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is what a handler hands back to the router: a status and the
// JSON body written verbatim.
type ServiceResult struct {
	StatusCode int
	Body       any
}

type ErrorBody struct {
	Error string `json:"error"`
}

type RateLimitResponse struct {
	Error      string `json:"error"`
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func (result *ServiceResult) ToJSON() any {
	if result.Body == nil {
		return gin.H{}
	}
	return result.Body
}
