package monitoring

import (
	"context"
	"net/http"
	"runtime"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/logger"
	"github.com/warp-contracts/dealer/src/utils/task"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Rest API server, serves health checks and monitor counters
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	monitor Monitor
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "rest-server").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router = gin.New()
	self.Router.Use(
		gin.LoggerWithWriter(logger.Logger().WriterLevel(logrus.DebugLevel), "/v1/health", "/metrics"),
		gin.Recovery(),
	)

	self.httpServer = &http.Server{
		Addr:    config.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor Monitor) *Server {
	self.monitor = monitor

	registry := prometheus.NewRegistry()
	registry.MustRegister(monitor.GetPrometheusCollector())

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("state", self.monitor.OnGetState)
	}

	self.Router.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if self.Config.Profiler.Enabled {
		runtime.SetBlockProfileRate(self.Config.Profiler.BlockProfileRate)
		pprof.Register(self.Router)
	}

	return self
}

func (self *Server) run() (err error) {
	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}
