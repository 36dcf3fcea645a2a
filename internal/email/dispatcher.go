package email

import (
	"context"
	"errors"
	"sync"

	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

var (
	// ErrQueueFull: el mensaje se descartó porque la cola está llena.
	ErrQueueFull = errors.New("email: dispatch queue full")
	ErrClosed    = errors.New("email: dispatcher closed")
)

type job struct {
	to     string
	kind   Kind
	params Params
}

// Dispatcher renderiza y entrega emails en background con un pool de workers.
type Dispatcher struct {
	sender    Sender
	templates *Templates
	queue     chan job
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	// OnResult se invoca tras cada intento de entrega (métricas). Puede ser nil.
	OnResult func(kind Kind, err error)
}

// NewDispatcher arranca `workers` goroutines con una cola de `queueSize`.
func NewDispatcher(sender Sender, templates *Templates, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		sender:    sender,
		templates: templates,
		queue:     make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Dispatch encola sin bloquear. El error solo indica que no se pudo encolar.
func (d *Dispatcher) Dispatch(ctx context.Context, to string, kind Kind, params Params) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- job{to: to, kind: kind, params: params}:
		return nil
	default:
		logger.From(ctx).Warn("email dropped: queue full",
			logger.Component("email.dispatcher"), logger.String("kind", string(kind)), logger.Email(to))
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.queue {
		err := d.deliver(j)
		if d.OnResult != nil {
			d.OnResult(j.kind, err)
		}
	}
}

func (d *Dispatcher) deliver(j job) error {
	log := logger.With(logger.Component("email.dispatcher"), logger.String("kind", string(j.kind)), logger.Email(j.to))
	subject, html, text, err := d.templates.Render(j.kind, j.params)
	if err != nil {
		log.Error("email render failed", logger.Err(err))
		return err
	}
	if err := d.sender.Send(j.to, subject, html, text); err != nil {
		log.Warn("email delivery failed", logger.Err(err))
		return err
	}
	return nil
}

// Close deja de aceptar mensajes y espera a que se vacíe la cola o venza ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
