package workflow

import (
	"fmt"
	"strings"

	"scriptstudio/internal/domain"
)

// Phase names a workflow state.
type Phase string

const (
	PhaseIdle                    Phase = "idle"
	PhaseGeneratingScript        Phase = "generating_script"
	PhaseAwaitingImageBatchStart Phase = "awaiting_image_batch_start"
	PhaseGeneratingImages        Phase = "generating_images"
	PhaseComplete                Phase = "complete"
	PhaseFailed                  Phase = "failed"
)

// State is one of Idle, GeneratingScript, AwaitingImageBatchStart,
// GeneratingImages, Complete or Failed.
type State interface {
	Phase() Phase
	isState()
}

type Idle struct{}

type GeneratingScript struct {
	Topic string
}

// AwaitingImageBatchStart holds a script ready for illustration. After a
// failed batch it also holds the images produced before the failure.
type AwaitingImageBatchStart struct {
	Topic   string
	Script  *domain.ScriptResult
	Images  []domain.GeneratedImage
	Failure *Failure
}

// Batch fixes the inputs shared by every request of one image batch.
type Batch struct {
	AspectRatio domain.AspectRatio
	Reference   *domain.ReferenceImage
}

type GeneratingImages struct {
	Topic  string
	Script *domain.ScriptResult
	Images []domain.GeneratedImage
	// Progress is the 1-based ordinal of the request in flight, 0 before the first.
	Progress int
	Batch    Batch
}

type Complete struct {
	Topic  string
	Script *domain.ScriptResult
	Images []domain.GeneratedImage
}

type Failed struct {
	Topic   string
	Failure Failure
}

func (Idle) Phase() Phase                    { return PhaseIdle }
func (GeneratingScript) Phase() Phase        { return PhaseGeneratingScript }
func (AwaitingImageBatchStart) Phase() Phase { return PhaseAwaitingImageBatchStart }
func (GeneratingImages) Phase() Phase        { return PhaseGeneratingImages }
func (Complete) Phase() Phase                { return PhaseComplete }
func (Failed) Phase() Phase                  { return PhaseFailed }

func (Idle) isState()                    {}
func (GeneratingScript) isState()        {}
func (AwaitingImageBatchStart) isState() {}
func (GeneratingImages) isState()        {}
func (Complete) isState()                {}
func (Failed) isState()                  {}

// Event drives Transition.
type Event interface {
	isEvent()
}

type TopicSubmitted struct{ Topic string }
type ScriptSucceeded struct{ Script *domain.ScriptResult }
type ScriptFailed struct{ Err error }
type BatchStarted struct{ Batch Batch }

// ImageStarted reports that the request for prompt Index (0-based) is about
// to be issued.
type ImageStarted struct{ Index int }
type ImageSucceeded struct{ Image domain.GeneratedImage }
type ImageFailed struct{ Err error }

func (TopicSubmitted) isEvent()  {}
func (ScriptSucceeded) isEvent() {}
func (ScriptFailed) isEvent()    {}
func (BatchStarted) isEvent()    {}
func (ImageStarted) isEvent()    {}
func (ImageSucceeded) isEvent()  {}
func (ImageFailed) isEvent()     {}

// Transition computes the state following ev. It never mutates s. Events that
// are not defined for s return domain.ErrInvalidTransition; inputs that are
// never acceptable return domain.ErrValidation. In both cases s is unchanged.
func Transition(s State, ev Event) (State, error) {
	switch ev := ev.(type) {
	case TopicSubmitted:
		topic := strings.TrimSpace(ev.Topic)
		if topic == "" {
			return s, fmt.Errorf("%w: topic is required", domain.ErrValidation)
		}
		switch s.(type) {
		case Idle, AwaitingImageBatchStart, Complete, Failed:
			return GeneratingScript{Topic: topic}, nil
		}

	case ScriptSucceeded:
		if st, ok := s.(GeneratingScript); ok {
			if ev.Script == nil {
				return s, fmt.Errorf("%w: script is nil", domain.ErrValidation)
			}
			return AwaitingImageBatchStart{Topic: st.Topic, Script: ev.Script}, nil
		}

	case ScriptFailed:
		if st, ok := s.(GeneratingScript); ok {
			return Failed{Topic: st.Topic, Failure: NewFailure(StageScript, ev.Err)}, nil
		}

	case BatchStarted:
		var topic string
		var script *domain.ScriptResult
		switch st := s.(type) {
		case AwaitingImageBatchStart:
			topic, script = st.Topic, st.Script
		case Complete:
			topic, script = st.Topic, st.Script
		default:
			return s, invalid(s, ev)
		}
		if script == nil || len(script.ImagePrompts) == 0 {
			return s, fmt.Errorf("%w: script has no image prompts", domain.ErrValidation)
		}
		if !ev.Batch.AspectRatio.Valid() {
			return s, fmt.Errorf("%w: unsupported aspect ratio %q", domain.ErrValidation, ev.Batch.AspectRatio)
		}
		return GeneratingImages{Topic: topic, Script: script, Batch: ev.Batch}, nil

	case ImageStarted:
		if st, ok := s.(GeneratingImages); ok {
			if ev.Index != len(st.Images) || ev.Index >= len(st.Script.ImagePrompts) {
				return s, fmt.Errorf("%w: image %d started out of order", domain.ErrInvalidTransition, ev.Index)
			}
			st.Progress = ev.Index + 1
			return st, nil
		}

	case ImageSucceeded:
		if st, ok := s.(GeneratingImages); ok {
			if ev.Image.Ordinal != len(st.Images)+1 || ev.Image.Ordinal != st.Progress {
				return s, fmt.Errorf("%w: image %d completed out of order", domain.ErrInvalidTransition, ev.Image.Ordinal)
			}
			images := make([]domain.GeneratedImage, len(st.Images), len(st.Images)+1)
			copy(images, st.Images)
			images = append(images, ev.Image)
			if len(images) == len(st.Script.ImagePrompts) {
				return Complete{Topic: st.Topic, Script: st.Script, Images: images}, nil
			}
			st.Images = images
			return st, nil
		}

	case ImageFailed:
		if st, ok := s.(GeneratingImages); ok {
			failure := NewFailure(StageImage, ev.Err)
			return AwaitingImageBatchStart{
				Topic:   st.Topic,
				Script:  st.Script,
				Images:  st.Images,
				Failure: &failure,
			}, nil
		}
	}
	return s, invalid(s, ev)
}

func invalid(s State, ev Event) error {
	return fmt.Errorf("%w: %T while %s", domain.ErrInvalidTransition, ev, s.Phase())
}
