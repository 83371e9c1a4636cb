package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"recordquality-service/api"
	_ "recordquality-service/docs"
	"recordquality-service/service"
	"strconv"
	"syscall"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title 记录质量评分服务 API
// @version 1.0
// @description 按记录类型配置加权字段规则，在记录保存时计算完整度分数并提供规则管理与即时评分接口
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.InitServices(ctx, ""); err != nil {
		log.Fatalf("服务初始化失败: %v", err)
	}
	defer service.Shutdown()

	port := service.Config.Server.Port
	baseContext := service.Config.Server.BaseContext

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if baseContext != "" {
		mux.Route(baseContext, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(port), mux)
	go func() {
		<-ctx.Done()
		if err := s.GracefulStop(); err != nil {
			slog.Warn("停止HTTP服务失败", "error", err)
		}
	}()

	slog.Info("HTTP服务启动", "port", port, "base_context", baseContext)
	if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("error: %v", err)
	}
}
