package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/n0ctu/xmrig-monitor/internal/registry"
)

// Health is the body of GET /health.
type Health struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// NodeRequest is the body of POST /api/nodes and PUT /api/nodes/:index.
type NodeRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// NodesFileBody is the body of GET and PUT /api/nodes-file.
type NodesFileBody struct {
	Path  string `json:"path"`
	Nodes int    `json:"nodes"`
}

// IntervalBody is the body of GET and PUT /api/interval.
type IntervalBody struct {
	Seconds int `json:"seconds"`
}

func (s *Server) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, Health{Status: "ok", Time: s.now().UTC()})
}

func (s *Server) ListNodes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Snapshots())
}

func (s *Server) GetNode(c echo.Context) error {
	index, err := registry.ParseIndex(c.Param("index"))
	if err != nil {
		return s.failWith(c, http.StatusBadRequest, err)
	}
	snap, err := s.store.Snapshot(index)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) AddNode(c echo.Context) error {
	var req NodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "body must be JSON: {\"host\": string, \"port\": int}")
	}
	id, err := s.store.AddNode(req.Host, req.Port)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("Added node %d at %s:%d", id.ID, id.Host, id.Port)
	s.sched.Trigger()
	return c.JSON(http.StatusCreated, id)
}

func (s *Server) EditNode(c echo.Context) error {
	index, err := registry.ParseIndex(c.Param("index"))
	if err != nil {
		return s.failWith(c, http.StatusBadRequest, err)
	}
	var req NodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "body must be JSON: {\"host\": string, \"port\": int}")
	}
	if err := s.store.Edit(index, req.Host, req.Port); err != nil {
		return s.fail(c, err)
	}
	snap, err := s.store.Snapshot(index)
	if err != nil {
		return s.fail(c, err)
	}
	s.sched.Trigger()
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) RemoveNode(c echo.Context) error {
	index, err := registry.ParseIndex(c.Param("index"))
	if err != nil {
		return s.failWith(c, http.StatusBadRequest, err)
	}
	if c.QueryParam("confirm") != "true" {
		return badRequest(c, "removal must be confirmed with ?confirm=true")
	}
	id, err := s.store.Remove(index)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("Removed node %d at %s:%d", id.ID, id.Host, id.Port)
	return c.JSON(http.StatusOK, id)
}

func (s *Server) RefreshNode(c echo.Context) error {
	index, err := registry.ParseIndex(c.Param("index"))
	if err != nil {
		return s.failWith(c, http.StatusBadRequest, err)
	}
	// Index errors map to 404, a node that didn't answer to 502.
	if err := s.store.RefreshNode(c.Request().Context(), index); err != nil {
		return s.fail(c, err)
	}
	snap, err := s.store.Snapshot(index)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) RefreshAll(c echo.Context) error {
	s.sched.Trigger()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func (s *Server) GetInterval(c echo.Context) error {
	return c.JSON(http.StatusOK, IntervalBody{Seconds: s.sched.Interval()})
}

func (s *Server) SetInterval(c echo.Context) error {
	var req IntervalBody
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "body must be JSON: {\"seconds\": int}")
	}
	if !s.sched.SetInterval(req.Seconds) {
		return badRequest(c, "seconds must be a positive integer")
	}
	return c.JSON(http.StatusOK, IntervalBody{Seconds: s.sched.Interval()})
}

func (s *Server) GetNodesFile(c echo.Context) error {
	return c.JSON(http.StatusOK, NodesFileBody{Path: s.store.Path(), Nodes: len(s.store.Snapshots())})
}

// OpenNodesFile switches to another node file. A file that can't be loaded
// still replaces the collection, which is then empty, and the load error is
// returned.
func (s *Server) OpenNodesFile(c echo.Context) error {
	var req NodesFileBody
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		return badRequest(c, "body must be JSON: {\"path\": string}")
	}
	path := strings.TrimSpace(req.Path)
	if err := s.store.Open(path); err != nil {
		return s.fail(c, err)
	}
	s.log.Info("Opened node file %s", path)
	s.sched.Trigger()
	return c.JSON(http.StatusOK, NodesFileBody{Path: path, Nodes: len(s.store.Snapshots())})
}
