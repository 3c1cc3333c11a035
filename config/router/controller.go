package router

import (
	"fmt"
	"net/http"
	"path"

	"github.com/akeren/waitlist-api/pkg/ratelimit"
)

// routeKey identifies one registered handler; path is gin's full route pattern.
type routeKey struct {
	method string
	path   string
}

func (k routeKey) String() string {
	return k.method + " " + k.path
}

// route is what the rate limit middleware needs to know about a handler.
// A nil limiter means the global one applies.
type route struct {
	controller *RESTController
	limiter    ratelimit.RateLimiter
}

func normalizePath(controller *RESTController, relativePath string) string {
	return path.Join("/", controller.mountPoint, relativePath)
}

func cleanMountPoint(parts ...string) string {
	return path.Join(append([]string{"/"}, parts...)...)
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanMountPoint(mountPoint),
		prepare:    prepare,
	}
}

// NewVersionedRESTController mounts the controller under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanMountPoint(version, mountPoint),
		version:    version,
		prepare:    prepare,
	}
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.register(controller, http.MethodPost, limiter, relativePath, handler, middlewares)
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.register(controller, http.MethodGet, limiter, relativePath, handler, middlewares)
}

// register panics when another handler already owns method and path; routes
// are wired once at startup.
func (routerService *RouterService) register(
	controller *RESTController,
	method string,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares []MiddlewareFunc,
) {
	key := routeKey{method: method, path: normalizePath(controller, relativePath)}
	if existing, taken := routerService.routes[key]; taken {
		panic(fmt.Sprintf("route %s is already registered by controller %q", key, existing.controller.name))
	}

	routerService.routes[key] = &route{controller: controller, limiter: limiter}
	controller.handlerCount++

	chain := append(middlewares, respond(handler))
	routerService.engine.Handle(method, key.path, chain...)
	routerService.logger.Debug("Handler registered", "route", key.String())
}

func (routerService *RouterService) lookupRoute(method, fullPath string) (*route, bool) {
	r, ok := routerService.routes[routeKey{method: method, path: fullPath}]
	return r, ok && r.controller != nil
}

func respond(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			GetLogger(c).Error("Handler returned no result", "path", c.FullPath())
			result = InternalServerErrorResult("An unexpected error occurred: handler returned no result")
		}
		c.JSON(result.StatusCode, result.ToJSON())
	}
}
