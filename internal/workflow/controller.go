package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"scriptstudio/internal/domain"
)

// ScriptWriter produces a script for a topic.
type ScriptWriter interface {
	RequestScript(ctx context.Context, topic string) (*domain.ScriptResult, error)
}

// Illustrator produces one image per request.
type Illustrator interface {
	RequestImage(ctx context.Context, req domain.ImageRequest) (domain.Image, error)
}

type Options struct {
	Script ScriptWriter
	Images Illustrator

	// ScriptTimeout and ImageTimeout bound each provider call; zero disables.
	ScriptTimeout time.Duration
	ImageTimeout  time.Duration
	// ImageInterval is the minimum spacing between image requests; zero disables.
	ImageInterval time.Duration

	AspectRatio domain.AspectRatio

	// OnChange is called with the controller lock held after every state or
	// setting change. It must not call back into the Controller.
	OnChange func(Snapshot)
	Logger   *zerolog.Logger
}

// Controller owns one script-then-images workflow. At most one provider call
// is in flight at any time; results are applied in prompt order.
type Controller struct {
	mu        sync.Mutex
	state     State
	aspect    domain.AspectRatio
	reference *domain.ReferenceImage
	updatedAt time.Time
	closed    bool

	script        ScriptWriter
	images        Illustrator
	scriptTimeout time.Duration
	imageTimeout  time.Duration
	limiter       *rate.Limiter
	onChange      func(Snapshot)
	logger        zerolog.Logger
}

func New(opts Options) (*Controller, error) {
	if opts.Script == nil {
		return nil, errors.New("workflow: script writer is required")
	}
	if opts.Images == nil {
		return nil, errors.New("workflow: illustrator is required")
	}
	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = domain.DefaultAspectRatio
	}
	if !aspect.Valid() {
		return nil, fmt.Errorf("workflow: %w: unsupported aspect ratio %q", domain.ErrValidation, aspect)
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	var limiter *rate.Limiter
	if opts.ImageInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.ImageInterval), 1)
	}
	return &Controller{
		state:         Idle{},
		aspect:        aspect,
		updatedAt:     time.Now(),
		script:        opts.Script,
		images:        opts.Images,
		scriptTimeout: opts.ScriptTimeout,
		imageTimeout:  opts.ImageTimeout,
		limiter:       limiter,
		onChange:      opts.OnChange,
		logger:        logger,
	}, nil
}

// SubmitTopic starts a script request for topic. The transition to
// GeneratingScript happens before SubmitTopic returns; the returned channel is
// closed once the request settled. An empty topic returns ErrValidation and a
// submission during any in-flight request returns ErrInvalidTransition.
func (c *Controller) SubmitTopic(ctx context.Context, topic string) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClosed
	}
	next, err := c.applyLocked(TopicSubmitted{Topic: topic})
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	topic = next.(GeneratingScript).Topic

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.runScript(ctx, topic)
	}()
	return done, nil
}

func (c *Controller) runScript(ctx context.Context, topic string) {
	callCtx, cancel := withTimeout(ctx, c.scriptTimeout)
	defer cancel()

	script, err := c.script.RequestScript(callCtx, topic)
	err = timeoutAware(callCtx, err)
	if err == nil && script == nil {
		err = fmt.Errorf("%w: provider returned no script", domain.ErrProviderParse)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", domain.ErrorKind(err)).Msg("workflow: script request failed")
		_, _ = c.applyLocked(ScriptFailed{Err: err})
		return
	}
	if _, err := c.applyLocked(ScriptSucceeded{Script: script.Clone()}); err != nil {
		c.logger.Error().Err(err).Msg("workflow: apply script result")
	}
}

// StartImageBatch illustrates every prompt of the current script, one request
// at a time. The aspect ratio and reference image are captured now and used
// for the whole batch.
func (c *Controller) StartImageBatch(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClosed
	}
	batch := Batch{AspectRatio: c.aspect}
	if c.reference != nil {
		ref := *c.reference
		batch.Reference = &ref
	}
	next, err := c.applyLocked(BatchStarted{Batch: batch})
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	prompts := append([]string(nil), next.(GeneratingImages).Script.ImagePrompts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.runBatch(ctx, prompts, batch)
	}()
	return done, nil
}

func (c *Controller) runBatch(ctx context.Context, prompts []string, batch Batch) {
	log := c.logger.With().
		Int("total", len(prompts)).
		Str("aspect_ratio", string(batch.AspectRatio)).
		Bool("reference", batch.Reference != nil).
		Logger()
	log.Debug().Msg("workflow: image batch started")

	for i, prompt := range prompts {
		if !c.apply(ImageStarted{Index: i}) {
			return
		}
		img, err := c.requestImage(ctx, domain.ImageRequest{
			Prompt:      prompt,
			AspectRatio: batch.AspectRatio,
			Reference:   batch.Reference,
		})
		if err != nil {
			log.Warn().Err(err).Int("ordinal", i+1).Str("kind", domain.ErrorKind(err)).Msg("workflow: image request failed")
			c.apply(ImageFailed{Err: err})
			return
		}
		if !c.apply(ImageSucceeded{Image: domain.GeneratedImage{Ordinal: i + 1, Image: img}}) {
			return
		}
	}
	log.Debug().Msg("workflow: image batch complete")
}

func (c *Controller) requestImage(ctx context.Context, req domain.ImageRequest) (domain.Image, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.Image{}, waitError(ctx, err)
		}
	}
	callCtx, cancel := withTimeout(ctx, c.imageTimeout)
	defer cancel()
	img, err := c.images.RequestImage(callCtx, req)
	return img, timeoutAware(callCtx, err)
}

// apply takes the lock and reports whether ev was accepted.
func (c *Controller) apply(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.applyLocked(ev); err != nil {
		c.logger.Error().Err(err).Msg("workflow: rejected internal event")
		return false
	}
	return true
}

func (c *Controller) applyLocked(ev Event) (State, error) {
	next, err := Transition(c.state, ev)
	if err != nil {
		return c.state, err
	}
	prev := c.state.Phase()
	c.state = next
	if prev != next.Phase() {
		c.logger.Debug().
			Str("from", string(prev)).
			Str("to", string(next.Phase())).
			Msg("workflow: transition")
	}
	c.changedLocked()
	return next, nil
}

func (c *Controller) changedLocked() {
	c.updatedAt = time.Now()
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}

// SetAspectRatio selects the ratio for the next batch. It is rejected while a
// batch is running.
func (c *Controller) SetAspectRatio(ar domain.AspectRatio) error {
	if !ar.Valid() {
		return fmt.Errorf("%w: unsupported aspect ratio %q", domain.ErrValidation, ar)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.settingsEditableLocked(); err != nil {
		return err
	}
	c.aspect = ar
	c.changedLocked()
	return nil
}

// SetReferenceImage replaces the reference image used by the next batch.
func (c *Controller) SetReferenceImage(ref domain.ReferenceImage) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.settingsEditableLocked(); err != nil {
		return err
	}
	c.reference = &ref
	c.changedLocked()
	return nil
}

// ClearReferenceImage drops the reference image.
func (c *Controller) ClearReferenceImage() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.settingsEditableLocked(); err != nil {
		return err
	}
	c.reference = nil
	c.changedLocked()
	return nil
}

func (c *Controller) settingsEditableLocked() error {
	if c.closed {
		return errClosed
	}
	if _, ok := c.state.(GeneratingImages); ok {
		return fmt.Errorf("%w: image batch in progress", domain.ErrInvalidTransition)
	}
	return nil
}

var errClosed = fmt.Errorf("%w: workflow closed", domain.ErrNotFound)

// Close marks the controller as discarded so that it accepts no further work.
// It fails with domain.ErrInvalidTransition while a provider call is in
// flight. Closing twice is a no-op.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.(type) {
	case GeneratingScript, GeneratingImages:
		return fmt.Errorf("%w: request in flight", domain.ErrInvalidTransition)
	}
	c.closed = true
	return nil
}

// Busy reports whether a provider call is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.(type) {
	case GeneratingScript, GeneratingImages:
		return true
	}
	return false
}

// Image returns the generated image at the 1-based ordinal.
func (c *Controller) Image(ordinal int) (domain.GeneratedImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	images := imagesOf(c.state)
	if ordinal < 1 || ordinal > len(images) {
		return domain.GeneratedImage{}, false
	}
	return images[ordinal-1], true
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// waitError classifies a failed wait for the pacing limiter. The limiter
// refuses up front when the slot lies beyond the context deadline.
func waitError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "would exceed context deadline") {
		return fmt.Errorf("%w: waiting for request slot: %v", domain.ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: waiting for request slot: %v", domain.ErrProviderTransport, err)
}

// timeoutAware reclassifies err as a timeout when the call context expired,
// whatever the provider wrapped it as.
func timeoutAware(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, domain.ErrProviderTimeout) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return err
}
