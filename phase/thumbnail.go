package phase

import (
	"context"

	"github.com/getpup/preprocessing-orchestrator"
)

// TagThumbnail is the second, terminal phase: generating a thumbnail from
// each converted image.
const TagThumbnail batch.PhaseTag = "THUMBNAIL_GENERATION"

// Thumbnail discovers its task list from the *output* of the prior phase
// (TIFF conversion) rather than the original queue message, matching how a
// real multi-stage preprocessing pipeline chains phases: each phase
// consumes what the one before it produced.
type Thumbnail struct {
	Base
}

// NewThumbnail builds the thumbnail phase with the given resource shape.
func NewThumbnail(resources ResourceShape) *Thumbnail {
	return &Thumbnail{
		Base: Base{
			PhaseTag:  TagThumbnail,
			Resources: resources,
		},
	}
}

func (p *Thumbnail) Tag() batch.PhaseTag {
	return TagThumbnail
}

// Discover emits one pending task per successfully-completed
// TIFF_CONVERSION task, keyed off that task's output, not its input.
// Tasks that failed TIFF conversion have no output and are skipped: there
// is nothing to thumbnail.
func (p *Thumbnail) Discover(_ context.Context, state *batch.BatchState, priorTasks map[string]batch.Task) ([]batch.Task, error) {
	var tasks []batch.Task
	for _, prior := range priorTasks {
		if prior.Status != batch.TaskCompleted || prior.OutputKey == "" {
			continue
		}
		tasks = append(tasks, batch.Task{
			TaskID:    batch.TaskID(state.BatchID, prior.OutputKey, TagThumbnail),
			BatchID:   state.BatchID,
			PhaseTag:  TagThumbnail,
			Status:    batch.TaskPending,
			InputKey:  prior.OutputKey,
			InputName: prior.OutputName,
		})
	}
	return tasks, nil
}

// NextPhase returns "" — the batch reaches DONE after thumbnails complete.
func (p *Thumbnail) NextPhase() batch.PhaseTag {
	return ""
}
