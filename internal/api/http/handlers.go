package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ma4z/Hydrenix-Node/internal/domain/ledger"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/monitoring"
	"github.com/ma4z/Hydrenix-Node/internal/sandbox"
)

// Provisioner is the gateway's view of the provisioning orchestrator.
type Provisioner interface {
	Provision(ctx context.Context, owner string, limits sandbox.Limits) (*ledger.Record, error)
}

// SessionLog records and lists successful sessions.
type SessionLog interface {
	Append(r ledger.Record) error
	List() ([]ledger.Record, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	provisioner  Provisioner
	sessions     SessionLog
	defaultOwner string
	logger       *zap.Logger
	metrics      *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(p Provisioner, sessions SessionLog, defaultOwner string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		provisioner:  p,
		sessions:     sessions,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

// WithMetrics attaches a metrics sink.
func (h *Handlers) WithMetrics(m *monitoring.Metrics) *Handlers {
	h.metrics = m
	return h
}

// Status reports that the node is reachable.
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

// Health returns service health and counters. It is not authenticated.
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{"status": "healthy"}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// CreateVM provisions a sandbox and returns its connection command.
func (h *Handlers) CreateVM(c *gin.Context) {
	limits, err := sandbox.ParseLimits(c.Query("ram"), c.Query("cores"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := c.DefaultQuery("owner", h.defaultOwner)

	record, err := h.provisioner.Provision(c.Request.Context(), owner, limits)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Append(*record); err != nil {
		// The sandbox is live; the caller still gets its command.
		h.logger.Error("failed to record session",
			zap.String("container_id", record.Handle),
			zap.String("owner", record.Owner),
			zap.Error(err))
		if h.metrics != nil {
			h.metrics.IncLedgerErrors()
		}
	} else if h.metrics != nil {
		h.metrics.IncSessionsRecorded()
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "VM created successfully",
		"container_id": record.Handle,
		"ssh_command":  record.Command,
	})
}

// ListVMs returns every recorded session.
func (h *Handlers) ListVMs(c *gin.Context) {
	records, err := h.sessions.List()
	if err != nil {
		h.logger.Error("failed to read session ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []ledger.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": records})
}
