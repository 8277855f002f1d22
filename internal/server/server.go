package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sngm3741/survey-forwarder/internal/config"
	"github.com/sngm3741/survey-forwarder/internal/infrastructure/zoho"
	commonhttp "github.com/sngm3741/survey-forwarder/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/survey-forwarder/internal/interfaces/http/public"
	"github.com/sngm3741/survey-forwarder/internal/survey/application"
	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

const defaultAllowedHeaders = "Authorization,Content-Type"

// Server は HTTP サーバーのライフサイクルを管理し、フォワーダーをルータへ接続するコンポジションルート。
type Server struct {
	logger         *zap.SugaredLogger
	submissions    application.SubmissionService
	credentials    domain.ProviderCredentials
	addr           string
	allowedOrigins []string
}

// New は Zoho フォワーダーを組み込んだ Server を返す。
func New(cfg config.Config, logger *zap.SugaredLogger) *Server {
	return NewWithService(cfg, logger, NewForwarder(cfg, logger))
}

// NewForwarder は Config から Zoho ゲートウェイとフォワーダーを組み立てる。
// serve と submit の双方から利用する。
func NewForwarder(cfg config.Config, logger *zap.SugaredLogger) *application.Forwarder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Warnw("タイムゾーンの読み込みに失敗、UTC を使用します", "timezone", cfg.Timezone, "error", err)
	}

	gateway := zoho.NewClient(zoho.Config{
		HTTPClient:      &http.Client{Timeout: cfg.ZohoTimeout},
		AccountsBaseURL: cfg.AccountsBaseURL,
		SheetBaseURL:    cfg.SheetBaseURL,
	})
	return application.NewForwarder(gateway, logger, loc)
}

// NewWithService は既存の SubmissionService を使って Server を組み立てる。
func NewWithService(cfg config.Config, logger *zap.SugaredLogger, submissions application.SubmissionService) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		logger:         logger,
		submissions:    submissions,
		credentials:    cfg.Credentials,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}
}

// Routes はミドルウェアと各エンドポイントを組み込んだルータを返す。
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/health", s.healthHandler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:      s.logger,
		Submissions: s.submissions,
		Credentials: s.credentials,
	})
	publicHandler.Register(router)

	return router
}

// Run はHTTPサーバーを起動し、停止またはシグナル受信までブロックする。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Infow("HTTP サーバー起動", "addr", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s.logger)
}

// healthHandler は死活のみを返す。設定の妥当性は見ない。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
// 全オリジン許可時はプリフライトで要求されたヘッダーをそのまま許可する。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders(r, allowAll))
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allowedHeaders は Access-Control-Allow-Headers の値を決める。
func allowedHeaders(r *http.Request, allowAll bool) string {
	if allowAll {
		if requested := strings.TrimSpace(r.Header.Get("Access-Control-Request-Headers")); requested != "" {
			return requested
		}
	}
	return defaultAllowedHeaders
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// requestLogger はリクエストごとに 1 行を zap で出力する。
func requestLogger(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Infow("request",
					"requestId", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, logger *zap.SugaredLogger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigChan:
		logger.Infow("シグナルを受信。サーバー停止処理を開始します。", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Errorw("サーバー停止時にエラー", "error", err)
			return err
		}
	}
	return nil
}
