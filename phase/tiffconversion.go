package phase

import (
	"context"

	"github.com/getpup/preprocessing-orchestrator"
)

// TagTIFFConversion is the initial phase: converting TIFF-family images to
// a delivery format.
const TagTIFFConversion batch.PhaseTag = "TIFF_CONVERSION"

var tiffSuffixes = []string{".tiff", ".tif"}

// TIFFConversion discovers TIFF/TIF files from the inbound queue message
// and spawns one conversion worker per file.
type TIFFConversion struct {
	Base
}

// NewTIFFConversion builds the TIFF conversion phase with the given
// resource shape. Workers are told which input to convert via the shared
// environment bundle in Base; no phase-specific keys are needed beyond it.
func NewTIFFConversion(resources ResourceShape) *TIFFConversion {
	return &TIFFConversion{
		Base: Base{
			PhaseTag:  TagTIFFConversion,
			Resources: resources,
		},
	}
}

func (p *TIFFConversion) Tag() batch.PhaseTag {
	return TagTIFFConversion
}

// Discover scans every file in the queue message's directories and emits a
// pending task for each one whose name matches a TIFF-family suffix.
func (p *TIFFConversion) Discover(_ context.Context, state *batch.BatchState, _ map[string]batch.Task) ([]batch.Task, error) {
	var tasks []batch.Task
	for _, dir := range state.QueueMessage.Directories {
		for _, f := range dir.Files {
			if !batch.MatchesSuffix(f.FileName, tiffSuffixes) {
				continue
			}
			tasks = append(tasks, batch.Task{
				TaskID:    batch.TaskID(state.BatchID, f.R2Key, TagTIFFConversion),
				BatchID:   state.BatchID,
				PhaseTag:  TagTIFFConversion,
				Status:    batch.TaskPending,
				InputKey:  f.R2Key,
				InputName: f.FileName,
			})
		}
	}
	return tasks, nil
}

// NextPhase hands off to thumbnail generation.
func (p *TIFFConversion) NextPhase() batch.PhaseTag {
	return TagThumbnail
}
