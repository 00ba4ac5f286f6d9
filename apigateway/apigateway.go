// Package apigateway assembles the auth, user and task services and mounts
// their HTTP transports on a single router.
package apigateway

import (
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/authsvc/pkg/authservice"
	"github.com/ichigozero/taskapi/authsvc/pkg/authtransport"
	"github.com/ichigozero/taskapi/tasksvc"
	"github.com/ichigozero/taskapi/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/taskapi/tasksvc/pkg/taskservice"
	"github.com/ichigozero/taskapi/tasksvc/pkg/tasktransport"
	"github.com/ichigozero/taskapi/usersvc"
	"github.com/ichigozero/taskapi/usersvc/pkg/userendpoint"
	"github.com/ichigozero/taskapi/usersvc/pkg/userservice"
	"github.com/ichigozero/taskapi/usersvc/pkg/usertransport"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Stores struct {
	Users   usersvc.UserRepository
	Avatars usersvc.AvatarRepository
	Tokens  authsvc.TokenRepository
	Tasks   tasksvc.TaskRepository
}

type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int

	// Registry receives the service metrics and is served on /metrics.
	Registry *stdprometheus.Registry
}

func New(s Stores, c Config, logger log.Logger) (http.Handler, error) {
	fieldKeys := []string{"method"}

	var authService authservice.Service
	{
		tokenizer := authservice.NewTokenizer(c.Secret, c.TokenTTL)
		authService = authservice.New(tokenizer, s.Tokens, s.Users, log.With(logger, "component", "authservice"))
	}
	authn := authtransport.NewAuthenticater(authService)

	var taskService taskservice.Service
	{
		requestCount := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
			Namespace: "api",
			Subsystem: "task_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys)
		requestLatency := stdprometheus.NewSummaryVec(stdprometheus.SummaryOpts{
			Namespace: "api",
			Subsystem: "task_service",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, fieldKeys)
		if err := register(c.Registry, requestCount, requestLatency); err != nil {
			return nil, err
		}

		taskService = taskservice.New(s.Tasks, log.With(logger, "component", "taskservice"))
		taskService = taskservice.InstrumentingMiddleware(
			kitprometheus.NewCounter(requestCount),
			kitprometheus.NewSummary(requestLatency),
		)(taskService)
	}

	var userService userservice.Service
	{
		requestCount := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
			Namespace: "api",
			Subsystem: "user_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys)
		requestLatency := stdprometheus.NewSummaryVec(stdprometheus.SummaryOpts{
			Namespace: "api",
			Subsystem: "user_service",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, fieldKeys)
		if err := register(c.Registry, requestCount, requestLatency); err != nil {
			return nil, err
		}

		svc, err := userservice.New(s.Users, s.Avatars, authService, s.Tasks, c.BcryptCost, log.With(logger, "component", "userservice"))
		if err != nil {
			return nil, err
		}
		userService = userservice.InstrumentingMiddleware(
			kitprometheus.NewCounter(requestCount),
			kitprometheus.NewSummary(requestLatency),
		)(svc)
	}

	var (
		userEndpoints = userendpoint.New(userService, authn, log.With(logger, "component", "userendpoint"))
		taskEndpoints = taskendpoint.New(taskService, authn, log.With(logger, "component", "taskendpoint"))
	)

	r := mux.NewRouter()
	r.PathPrefix("/users").Handler(usertransport.NewHTTPHandler(userEndpoints, log.With(logger, "component", "usertransport")))
	r.PathPrefix("/tasks").Handler(tasktransport.NewHTTPHandler(taskEndpoints, log.With(logger, "component", "tasktransport")))
	r.Methods("GET").Path("/metrics").Handler(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))

	return r, nil
}

func register(reg *stdprometheus.Registry, cs ...stdprometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
