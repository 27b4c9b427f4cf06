// Package inspect exposes a local HTTP surface for debugging a live docking
// manager: the current layout tree, operation state, Prometheus metrics, and
// a WebSocket stream of layout events.
package inspect

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/panekit/panekit/pkg/dock"
	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/id"
	"github.com/panekit/panekit/pkg/layout"
	"github.com/panekit/panekit/pkg/logging"
)

// Server serves the inspection API for one manager.
type Server struct {
	router  *gin.Engine
	manager *dock.Manager
	log     *logging.Logger
}

// Config holds the server's settings.
type Config struct {
	Host              string
	Port              string
	RequestsPerSecond int
	Burst             int
}

// NewServer builds the router. Run starts it.
func NewServer(mgr *dock.Manager, cfg Config, log *logging.Logger) *Server {
	log = log.OrNop().Named("inspect")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(rateLimitMiddleware(cfg.RequestsPerSecond, cfg.Burst))

	s := &Server{router: router, manager: mgr, log: log}

	router.GET("/health", s.health)
	router.GET("/state", s.state)
	router.GET("/layout", s.layout)
	router.GET("/panels", s.panels)
	router.POST("/panels/:id/activate", s.activatePanel)
	router.DELETE("/panels/:id", s.closePanel)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stream", s.stream)

	return s
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("inspect server listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Handler returns the underlying handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func rateLimitMiddleware(rps, burst int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = rps * 2
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": s.manager.State().String()})
}

// nodeView is the JSON shape of one layout node.
type nodeView struct {
	Type         string     `json:"type"`
	PersistentID string     `json:"persistent_id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Active       int        `json:"active,omitempty"`
	Orientation  string     `json:"orientation,omitempty"`
	Ratios       []float64  `json:"ratios,omitempty"`
	Children     []nodeView `json:"children,omitempty"`
}

type rootView struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Geometry  geometry.Rect `json:"geometry"`
	Maximized bool          `json:"maximized,omitempty"`
	Node      *nodeView     `json:"node,omitempty"`
}

func (s *Server) layout(c *gin.Context) {
	snap := s.manager.Snapshot()

	var roots []rootView
	for _, r := range snap.Roots() {
		rv := rootView{
			ID:        string(r.ID),
			Kind:      kindName(r.Kind),
			Geometry:  r.Geometry,
			Maximized: r.Maximized,
		}
		if r.Node != nil {
			nv := viewOf(r.Node)
			rv.Node = &nv
		}
		roots = append(roots, rv)
	}
	c.JSON(http.StatusOK, gin.H{"roots": roots})
}

func (s *Server) panels(c *gin.Context) {
	snap := s.manager.Snapshot()

	type panelView struct {
		PersistentID string    `json:"persistent_id"`
		Title        string    `json:"title"`
		RootID       id.RootID `json:"root_id"`
	}
	var out []panelView
	for _, r := range snap.Roots() {
		if r.Node == nil {
			continue
		}
		for _, w := range layout.CollectWidgets(r.Node) {
			out = append(out, panelView{PersistentID: w.PersistentID, Title: w.Title, RootID: r.ID})
		}
	}
	c.JSON(http.StatusOK, gin.H{"panels": out, "count": len(out)})
}

func (s *Server) activatePanel(c *gin.Context) {
	pid := c.Param("id")
	if err := s.manager.ActivatePanel(pid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activated": pid})
}

func (s *Server) closePanel(c *gin.Context) {
	pid := c.Param("id")
	if err := s.manager.ClosePanel(pid); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": pid})
}

func viewOf(n layout.Node) nodeView {
	switch node := n.(type) {
	case *layout.WidgetNode:
		return nodeView{Type: "widget", PersistentID: node.PersistentID, Title: node.Title}
	case *layout.TabGroup:
		v := nodeView{Type: "tabs", Active: node.Active}
		for _, w := range node.Children {
			v.Children = append(v.Children, viewOf(w))
		}
		return v
	case *layout.Splitter:
		v := nodeView{Type: "split", Ratios: node.Ratios}
		if node.Orientation == layout.Vertical {
			v.Orientation = "vertical"
		} else {
			v.Orientation = "horizontal"
		}
		for _, c := range node.Children {
			v.Children = append(v.Children, viewOf(c))
		}
		return v
	}
	return nodeView{}
}

func kindName(k layout.RootKind) string {
	switch k {
	case layout.MainArea:
		return "main"
	case layout.FloatingRoot:
		return "floating_root"
	case layout.FloatingWindow:
		return "floating_window"
	}
	return "unknown"
}
