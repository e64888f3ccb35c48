package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cushionflow/internal/config"
	"cushionflow/internal/cushion"
	"cushionflow/internal/model"
	"cushionflow/internal/pipeline"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type PipelineService interface {
	Run(ctx context.Context, in cushion.RawInput) (pipeline.RunResult, error)
}

type ModelChecker interface {
	CheckModel(ctx context.Context) error
	Model() string
}

type MetricsObserver interface {
	ObserveHTTP(route, method string, status int, duration time.Duration)
	ObserveTransformation(outcome string, score int)
}

// Dependencies wires the handler. Checker is nil when no provider credential
// is configured.
type Dependencies struct {
	Pipeline       PipelineService
	Checker        ModelChecker
	Metrics        MetricsObserver
	MetricsHandler http.Handler
}

type server struct {
	cfg          config.Config
	logger       *slog.Logger
	pipeline     PipelineService
	checker      ModelChecker
	metrics      MetricsObserver
	metricsRoute http.Handler
}

type ctxKey string

const (
	requestIDHeader  = "X-Request-Id"
	requestIDContext = ctxKey("request_id")
	serviceName      = "CushionFlow"
)

const (
	msgEmptyInput        = "전달할 메시지를 입력하거나 캡처한 이미지를 첨부해주세요."
	msgMalformedImage    = "첨부한 이미지를 읽을 수 없습니다. 이미지를 다시 첨부해주세요."
	msgInvalidBody       = "요청 형식이 올바르지 않습니다."
	msgBodyTooLarge      = "요청이 너무 큽니다. 더 작은 이미지를 첨부해주세요."
	msgMissingCredential = "GEMINI_API_KEY 환경 변수가 설정되지 않았습니다. 서버 환경 설정을 확인해주세요."
	msgTransformFailed   = "메시지 변환 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	msgNotFound          = "요청한 경로를 찾을 수 없습니다."
	msgMethodNotAllowed  = "허용되지 않은 요청 방식입니다."
	msgNotReady          = "모델 연결을 확인할 수 없습니다. 잠시 후 다시 시도해주세요."
)

func NewServer(cfg config.Config, logger *slog.Logger, deps Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Pipeline == nil {
		panic("httpapi: pipeline dependency is required")
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		pipeline:     deps.Pipeline,
		checker:      deps.Checker,
		metrics:      deps.Metrics,
		metricsRoute: deps.MetricsHandler,
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.metricsRoute != nil {
		r.Handle("/metrics", s.metricsRoute)
	}

	r.Post("/api/cushion", s.handleCushion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/cushion", s.handleCushion)
		r.Get("/options", s.handleOptions)
	})

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{OK: true})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: serviceName})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.checker.CheckModel(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "readiness check failed",
			"request_id", requestIDFromContext(r.Context()),
			"model", s.checker.Model(),
			"error", err,
		)
		s.writeError(w, r, http.StatusServiceUnavailable, msgNotReady)
		return
	}
	writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: serviceName, Model: s.checker.Model()})
}

func (s *server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.OptionsResponse{
		RecipientStyles:         cushion.RecipientStyles,
		SituationContexts:       cushion.SituationContexts,
		DefaultRecipientStyle:   cushion.DefaultRecipientStyle,
		DefaultSituationContext: cushion.DefaultSituationContext,
	})
}

func (s *server) handleCushion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var req model.CushionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}

	out, err := s.pipeline.Run(r.Context(), toRawInput(req))
	if err != nil {
		s.observeTransformation(cushion.KindOf(err).String(), 0)
		s.writeMappedError(w, r, err)
		return
	}
	s.observeTransformation("ok", out.Result.Score)

	s.logger.DebugContext(r.Context(), "transformation completed",
		"request_id", requestIDFromContext(r.Context()),
		"score", out.Result.Score,
		"invocation_ms", out.Timings.Invocation.Milliseconds(),
		"total_ms", out.Timings.Total.Milliseconds(),
	)
	writeJSON(w, http.StatusOK, toCushionResponse(out.Result))
}

func toRawInput(req model.CushionRequest) cushion.RawInput {
	style := req.RecipientStyle
	if strings.TrimSpace(style) == "" {
		style = req.Mbti
	}
	situation := req.SituationContext
	if strings.TrimSpace(situation) == "" {
		situation = req.Context
	}
	return cushion.RawInput{
		OriginalMessage:  req.OriginalMessage,
		RecipientStyle:   style,
		SituationContext: situation,
		ImageBase64:      req.ImageBase64,
		ImageMIMEType:    req.ImageMimeType,
	}
}

func toCushionResponse(res cushion.Result) model.CushionResponse {
	insights := res.Insights
	if insights == nil {
		insights = []string{}
	}
	return model.CushionResponse{
		Score:             res.Score,
		Suggestion:        res.Suggestion,
		KoreanTranslation: res.KoreanTranslation,
		Insights:          insights,
	}
}

func (s *server) observeTransformation(outcome string, score int) {
	if s.metrics != nil {
		s.metrics.ObserveTransformation(outcome, score)
	}
}

func (s *server) handleJSONDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, msgInvalidBody)
}

// writeMappedError turns a pipeline failure into a status and a user-facing
// message. Causes stay in the logs.
func (s *server) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := msgTransformFailed

	switch cushion.KindOf(err) {
	case cushion.KindValidation:
		status = http.StatusBadRequest
		message = msgEmptyInput
		if cushion.ReasonOf(err) == cushion.ReasonMalformedImage {
			message = msgMalformedImage
		}
	case cushion.KindConfiguration:
		message = msgMissingCredential
	case cushion.KindInvocation:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "transformation failed",
			"request_id", requestIDFromContext(r.Context()),
			"kind", cushion.KindOf(err).String(),
			"reason", cushion.ReasonOf(err),
			"status", status,
			"error", err,
		)
	}
	s.writeError(w, r, status, message)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if rid := requestIDFromContext(r.Context()); rid != "" {
		w.Header().Set(requestIDHeader, rid)
	}
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContext, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, duration)
		}

		s.logger.Info("http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", requestIDFromContext(r.Context()), "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, msgTransformFailed)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func ensureBodyFullyConsumed(decoder *json.Decoder) error {
	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("multiple JSON values")
		}
		return err
	}
	return nil
}

func requestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContext).(string)
	return value
}
