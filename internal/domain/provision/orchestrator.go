package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ma4z/Hydrenix-Node/internal/domain/ledger"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/monitoring"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/tracing"
	"github.com/ma4z/Hydrenix-Node/internal/sandbox"
)

// Provisioner creates and destroys sandboxes.
type Provisioner interface {
	Create(ctx context.Context, limits sandbox.Limits) (sandbox.Handle, error)
	Destroy(ctx context.Context, handle sandbox.Handle)
}

// Launcher starts the terminal-sharing agent inside a sandbox.
type Launcher interface {
	Launch(ctx context.Context, handle sandbox.Handle) (sandbox.Stream, error)
}

// Extractor finds the connection command in an agent's output.
type Extractor interface {
	Extract(ctx context.Context, lines <-chan string) (string, bool)
}

const defaultTeardownTimeout = 30 * time.Second

// Orchestrator runs the create → launch → capture sequence for one request
// and destroys the sandbox when a later step fails.
type Orchestrator struct {
	provisioner Provisioner
	launcher    Launcher
	extractor   Extractor
	logger      *zap.Logger
	metrics     *monitoring.Metrics

	teardownTimeout time.Duration
	teardowns       sync.WaitGroup
}

// NewOrchestrator wires the three steps together.
func NewOrchestrator(p Provisioner, l Launcher, e Extractor, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provisioner:     p,
		launcher:        l,
		extractor:       e,
		logger:          logger,
		teardownTimeout: defaultTeardownTimeout,
	}
}

// WithMetrics enables provisioning metrics.
func (o *Orchestrator) WithMetrics(m *monitoring.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// WithTeardownTimeout bounds each rollback teardown.
func (o *Orchestrator) WithTeardownTimeout(d time.Duration) *Orchestrator {
	if d > 0 {
		o.teardownTimeout = d
	}
	return o
}

// Provision creates a sandbox for owner and returns its session record. On
// failure no record is returned and, once a sandbox exists, its teardown has
// been issued. The caller is responsible for writing the record to the ledger.
func (o *Orchestrator) Provision(ctx context.Context, owner string, limits sandbox.Limits) (rec *ledger.Record, err error) {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.ProvisionStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.ProvisionFinished(Outcome(err), time.Since(start))
		}
	}()

	log := o.logger.With(tracing.Fields(ctx)...).With(
		zap.String("owner", owner),
		zap.String("memory", limits.Memory),
		zap.Float64("cpus", limits.CPUs),
	)

	handle, err := o.provisioner.Create(ctx, limits)
	if err != nil {
		log.Warn("sandbox creation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	log = log.With(zap.String("handle", handle.String()))

	stream, err := o.launcher.Launch(ctx, handle)
	if err != nil {
		log.Warn("agent launch failed, tearing down", zap.Error(err))
		o.teardown(ctx, handle)
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	command, ok := o.extractor.Extract(ctx, stream.Lines())
	stream.Close()
	if !ok {
		log.Warn("no ssh command captured, tearing down")
		o.teardown(ctx, handle)
		return nil, fmt.Errorf("%w: no connection command from agent in sandbox %s", ErrCapture, handle)
	}

	log.Info("sandbox provisioned", zap.Duration("elapsed", time.Since(start)))
	return &ledger.Record{
		Owner:   owner,
		Handle:  handle.String(),
		Command: command,
	}, nil
}

// teardown destroys handle in the background. It detaches from the request
// context so a client disconnect cannot cancel the cleanup.
func (o *Orchestrator) teardown(ctx context.Context, handle sandbox.Handle) {
	if o.metrics != nil {
		o.metrics.IncTeardowns()
	}

	o.teardowns.Add(1)
	go func() {
		defer o.teardowns.Done()

		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.teardownTimeout)
		defer cancel()
		o.provisioner.Destroy(tctx, handle)
	}()
}

// Wait blocks until every teardown issued so far has finished.
func (o *Orchestrator) Wait() {
	o.teardowns.Wait()
}
