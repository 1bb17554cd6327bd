package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/logging"
	"github.com/rezonia/facturae-processor/internal/metrics"
	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
	"github.com/rezonia/facturae-processor/internal/render"
	"github.com/rezonia/facturae-processor/internal/signature"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Config holds server configuration
type Config struct {
	Address       string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64
	// Location is used for registration and render timestamps
	Location *time.Location
	Render   render.Options
	Resolver *codes.Resolver
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	// Now is the wall clock; tests replace it
	Now   func() time.Time
	Debug bool
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 20 << 20
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New()
	}
	logger := logging.Nop(config.Logger)

	s := &Server{
		config:  config,
		router:  gin.New(),
		logger:  logger,
		metrics: config.Metrics,
		pipeline: processor.NewPipeline(
			processor.WithLogger(logger),
			processor.WithRecorder(config.Metrics),
			processor.WithResolver(config.Resolver),
			processor.WithRenderer(render.NewRenderer(config.Render)),
			processor.WithInspection(true),
		),
	}

	s.router.Use(gin.Recovery(), s.requestID(), s.accessLog())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/render", s.handleRender)
		v1.POST("/extract", s.handleExtract)
		v1.POST("/certificate", s.handleCertificate)
		v1.GET("/codes", s.handleCodes)
	}

	// path used by existing clients
	s.router.POST("/api/xml2pdf", s.handleRender)
}

// Run starts the HTTP server and stops it when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("address", s.config.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.IncrementRequest(route, c.Request.Method, strconv.Itoa(status))
		s.logger.Info("request",
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   s.config.Now().UTC().Format(time.RFC3339),
	})
}

// readUpload returns the "file" part of a multipart form, or the raw body
// for any other content type, with the content type implied by the file
// name or ?type= query.
func (s *Server) readUpload(c *gin.Context) ([]byte, model.ContentType, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadSize)

	ct := model.ParseContentType(c.Query("type"))

	var data []byte
	var err error
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, ferr := c.FormFile(fieldFile)
		if ferr != nil {
			s.fail(c, http.StatusBadRequest, "missing file upload", ferr)
			return nil, ct, false
		}
		if ct == model.ContentTypeAuto {
			ct = model.ParseContentType(filepath.Ext(fh.Filename))
		}
		f, ferr := fh.Open()
		if ferr != nil {
			s.fail(c, http.StatusBadRequest, "failed to read upload", ferr)
			return nil, ct, false
		}
		defer f.Close()
		data, err = io.ReadAll(f)
	} else {
		data, err = c.GetRawData()
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.fail(c, http.StatusRequestEntityTooLarge, "upload too large", err)
		return nil, ct, false
	case err != nil:
		s.fail(c, http.StatusBadRequest, "failed to read request body", err)
		return nil, ct, false
	case len(data) == 0:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty file"})
		return nil, ct, false
	}
	return data, ct, true
}

func (s *Server) handleRender(c *gin.Context) {
	data, ct, ok := s.readUpload(c)
	if !ok {
		return
	}

	form := registryForm{
		Number:    c.PostForm(fieldNumRegistro),
		Type:      c.PostForm(fieldTipoRegistro),
		RCF:       c.PostForm(fieldNumRCF),
		Timestamp: c.PostForm(fieldFecha),
		Date:      c.PostForm(fieldFechaDate),
		Time:      c.PostForm(fieldHoraTime),
	}
	now := s.config.Now().In(s.config.Location)
	reg, err := form.resolve(s.config.Location, now)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	out := s.pipeline.Render(ctx, data, ct, reg, now)
	if out.Error != nil {
		s.respondError(c, out.Error, out.Warnings)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="Factura_%s.pdf"`, safeFilename(reg.RCF)))
	if out.Pages > 0 {
		c.Header("X-PDF-Pages", strconv.Itoa(out.Pages))
	}
	if len(out.Warnings) > 0 {
		c.Header("X-Extraction-Warnings", strconv.Itoa(len(out.Warnings)))
	}
	c.Data(http.StatusOK, "application/pdf", out.PDF)
}

func (s *Server) handleExtract(c *gin.Context) {
	data, ct, ok := s.readUpload(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result := s.pipeline.Extract(ctx, data, ct)
	if result.Error != nil {
		s.respondError(c, result.Error, result.Warnings)
		return
	}

	resp := ExtractResponse{
		Invoice:  result.Record,
		Format:   result.Format.String(),
		Warnings: result.Warnings,
	}
	if c.Query("reconcile") == "true" {
		resp.Discrepancies = processor.Reconcile(result.Record)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCertificate(c *gin.Context) {
	data, _, ok := s.readUpload(c)
	if !ok {
		return
	}

	result, err := s.pipeline.Certificate(c.Request.Context(), data)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	resp := CertificateResponse{
		SignatureFound: result.SignatureFound,
		Algorithm:      signature.AlgorithmName(result.Algorithm),
		AlgorithmURI:   result.Algorithm,
		Warnings:       result.Warnings,
	}
	if cert, ok := result.Certificate.Get(); ok {
		resp.Certificate = &cert
		resp.Status = string(cert.StatusAt(s.config.Now()))
		if valid, known := cert.ValidAtSigning(); known {
			resp.ValidAtSigning = &valid
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCodes(c *gin.Context) {
	c.JSON(http.StatusOK, CodesResponse{Tables: s.pipeline.Resolver().Tables()})
}

// respondError maps pipeline errors to status codes: bad registry input is
// 400, a rejected document 422, a render failure 500.
func (s *Server) respondError(c *gin.Context, err error, warnings []string) {
	var (
		ve *model.ValidationError
		pe *model.ParseError
		re *model.RenderError
	)
	resp := ErrorResponse{Error: err.Error(), Warnings: warnings}

	switch {
	case errors.As(err, &ve):
		resp.Field = ve.Field
		c.JSON(http.StatusBadRequest, resp)
	case errors.As(err, &pe):
		resp.Field = model.FieldOf(err)
		c.JSON(http.StatusUnprocessableEntity, resp)
	case errors.As(err, &re):
		s.logger.Error("render failed", zap.String("request_id", c.GetString(RequestIDHeader)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp)
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, resp)
	default:
		s.logger.Error("request failed", zap.String("request_id", c.GetString(RequestIDHeader)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func (s *Server) fail(c *gin.Context, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}
