package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
	"github.com/samcharles93/prefixscan/internal/scan"
)

// MaxScanValues bounds the values accepted by one request.
const MaxScanValues = 1 << 24

type Server struct {
	store   *JobStore
	engine  *scan.Engine
	log     logger.Logger
	clock   func() time.Time
	version string
}

func NewServer(store *JobStore, engine *scan.Engine, log logger.Logger, version string) *Server {
	if store == nil {
		store = NewJobStore()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		store:   store,
		engine:  engine,
		log:     log,
		clock:   time.Now,
		version: version,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/health", s.handleHealth)

	e.POST("/v1/scans", s.handleCreateScan)
	e.GET("/v1/scans/:id", s.handleGetScan)
	e.DELETE("/v1/scans/:id", s.handleDeleteScan)

	e.POST("/v1/saxpy", s.handleScaleAccumulate)
}

func (s *Server) handleHealth(c *echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.version}
	if s.engine != nil {
		cfg := s.engine.Config()
		resp.Backend = s.engine.Queue().Name()
		resp.Strategy = cfg.Strategy.String()
		resp.GroupSize = cfg.Launch.GroupSize
		resp.ElementsPerWorker = cfg.Launch.ElementsPerWorker
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) parseScanRequest(req *ScanRequest) (compute.Mode, scan.Strategy, error) {
	mode, err := compute.ParseMode(req.Mode)
	if err != nil {
		return 0, 0, newInvalidRequest("mode", err.Error())
	}
	strategy := s.engine.Config().Strategy
	if req.Strategy != "" {
		if strategy, err = scan.ParseStrategy(req.Strategy); err != nil {
			return 0, 0, newInvalidRequest("strategy", err.Error())
		}
	}
	if len(req.Values) > MaxScanValues {
		return 0, 0, newInvalidRequest("values", fmt.Sprintf("values holds %d elements, limit is %d", len(req.Values), MaxScanValues))
	}
	return mode, strategy, nil
}

func (s *Server) handleCreateScan(c *echo.Context) error {
	if s.engine == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "scan engine not configured", "", "")
	}
	req, err := decodeJSON[ScanRequest](c.Request().Body)
	if err != nil {
		return writeInvalid(c, err)
	}
	mode, strategy, err := s.parseScanRequest(&req)
	if err != nil {
		return writeInvalid(c, err)
	}

	job := s.store.Create(&req, mode.String(), strategy.String(), s.clock())
	result, ev, err := s.engine.SubmitSlices(strategy, mode, req.Values)
	if err != nil {
		s.store.Delete(job.ID)
		return writeEngineError(c, err)
	}

	finished := compute.NewEvent()
	ev.Then(func(opErr error) {
		if _, ok := s.store.Finish(job.ID, result, opErr, s.clock()); ok && opErr != nil {
			s.log.Warn("scan failed", "id", job.ID, "error", opErr)
		}
		finished.Complete(opErr)
	})

	if job.Background {
		if current, ok := s.store.Get(job.ID); ok {
			job = current
		}
		return c.JSON(http.StatusOK, job)
	}

	if err := finished.Wait(c.Request().Context()); err != nil {
		if errors.Is(err, c.Request().Context().Err()) {
			return err
		}
		return writeEngineError(c, err)
	}
	job, ok := s.store.Get(job.ID)
	if !ok {
		return writeNotFound(c, "scan was deleted before it completed")
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) handleGetScan(c *echo.Context) error {
	id := c.Param("id")
	job, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("scan %q not found", id))
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) handleDeleteScan(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, fmt.Sprintf("scan %q not found", id))
	}
	return c.JSON(http.StatusOK, DeleteScanResp{
		ID:      id,
		Object:  "scan.deleted",
		Deleted: true,
	})
}

func (s *Server) handleScaleAccumulate(c *echo.Context) error {
	if s.engine == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "scan engine not configured", "", "")
	}
	req, err := decodeJSON[ScaleAccumulateRequest](c.Request().Body)
	if err != nil {
		return writeInvalid(c, err)
	}
	if len(req.X) != len(req.Y) {
		return writeBadRequest(c, fmt.Sprintf("x has %d elements, y has %d", len(req.X), len(req.Y)))
	}
	y, err := s.engine.ScaleAccumulateSlices(c.Request().Context(), req.Alpha, req.X, req.Y)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, ScaleAccumulateResponse{
		Object: "saxpy",
		N:      len(y),
		Y:      y,
	})
}
