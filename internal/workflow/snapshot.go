package workflow

import (
	"time"

	"scriptstudio/internal/domain"
)

// Snapshot is a read-only copy of a Controller's state and settings.
type Snapshot struct {
	Phase       Phase
	Topic       string
	Script      *domain.ScriptResult
	Images      []domain.GeneratedImage
	Progress    int
	Total       int
	AspectRatio domain.AspectRatio
	Reference   *domain.ReferenceImage
	Failure     *Failure
	UpdatedAt   time.Time
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:       c.state.Phase(),
		AspectRatio: c.aspect,
		UpdatedAt:   c.updatedAt,
	}
	if c.reference != nil {
		ref := *c.reference
		snap.Reference = &ref
	}
	switch st := c.state.(type) {
	case GeneratingScript:
		snap.Topic = st.Topic
	case AwaitingImageBatchStart:
		snap.Topic = st.Topic
		snap.Script = st.Script.Clone()
		if st.Failure != nil {
			f := *st.Failure
			snap.Failure = &f
		}
	case GeneratingImages:
		snap.Topic = st.Topic
		snap.Script = st.Script.Clone()
		snap.Progress = st.Progress
		// the batch ratio is authoritative while it runs
		snap.AspectRatio = st.Batch.AspectRatio
	case Complete:
		snap.Topic = st.Topic
		snap.Script = st.Script.Clone()
		snap.Progress = len(st.Images)
	case Failed:
		snap.Topic = st.Topic
		f := st.Failure
		snap.Failure = &f
	}
	snap.Images = append([]domain.GeneratedImage(nil), imagesOf(c.state)...)
	if snap.Script != nil {
		snap.Total = len(snap.Script.ImagePrompts)
	}
	return snap
}

func imagesOf(s State) []domain.GeneratedImage {
	switch st := s.(type) {
	case AwaitingImageBatchStart:
		return st.Images
	case GeneratingImages:
		return st.Images
	case Complete:
		return st.Images
	}
	return nil
}
