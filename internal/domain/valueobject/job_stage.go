package valueobject

import "fmt"

// JobStage represents the fine-grained pipeline position of an upload job.
// Stages advance strictly linearly; the only way back is the retry path,
// which resets a job to StageQueued.
type JobStage string

// Pipeline stages in order.
const (
	StageQueued             JobStage = "queued"
	StageJobValidated       JobStage = "job_validated"
	StageParsing            JobStage = "parsing"
	StageParsed             JobStage = "parsed"
	StageParseValidated     JobStage = "parse_validated"
	StageChunking           JobStage = "chunking"
	StageChunksBuffered     JobStage = "chunks_buffered"
	StageChunked            JobStage = "chunked"
	StageEmbedding          JobStage = "embedding"
	StageEmbeddingsBuffered JobStage = "embeddings_buffered"
	StageEmbedded           JobStage = "embedded"
)

// stageOrder is the canonical pipeline ordering. The index of a stage in
// this slice is its ordinal; changing it is a breaking schema migration.
var stageOrder = []JobStage{
	StageQueued,
	StageJobValidated,
	StageParsing,
	StageParsed,
	StageParseValidated,
	StageChunking,
	StageChunksBuffered,
	StageChunked,
	StageEmbedding,
	StageEmbeddingsBuffered,
	StageEmbedded,
}

// stageProgressWeights maps each stage to a display progress percentage.
// Used only for status reporting, never for control flow.
var stageProgressWeights = map[JobStage]int{
	StageQueued:             0,
	StageJobValidated:       10,
	StageParsing:            20,
	StageParsed:             30,
	StageParseValidated:     40,
	StageChunking:           45,
	StageChunksBuffered:     55,
	StageChunked:            65,
	StageEmbedding:          75,
	StageEmbeddingsBuffered: 90,
	StageEmbedded:           100,
}

// stageOrdinals is derived from stageOrder for O(1) lookups.
var stageOrdinals = func() map[JobStage]int {
	ordinals := make(map[JobStage]int, len(stageOrder))
	for i, stage := range stageOrder {
		ordinals[stage] = i
	}
	return ordinals
}()

// NewJobStage creates a new JobStage with validation.
func NewJobStage(stage string) (JobStage, error) {
	s := JobStage(stage)
	if _, ok := stageOrdinals[s]; !ok {
		return "", fmt.Errorf("invalid job stage: %s", stage)
	}
	return s, nil
}

// String returns the string representation of the stage.
func (s JobStage) String() string {
	return string(s)
}

// Ordinal returns the position of the stage in the pipeline, or -1 for an
// unknown stage.
func (s JobStage) Ordinal() int {
	if ordinal, ok := stageOrdinals[s]; ok {
		return ordinal
	}
	return -1
}

// IsTerminal returns true for the final pipeline stage.
func (s JobStage) IsTerminal() bool {
	return s == StageEmbedded
}

// Next returns the stage that follows this one in the pipeline. The terminal
// stage returns itself.
func (s JobStage) Next() (JobStage, error) {
	ordinal, ok := stageOrdinals[s]
	if !ok {
		return "", fmt.Errorf("invalid job stage: %s", s)
	}
	if ordinal == len(stageOrder)-1 {
		return s, nil
	}
	return stageOrder[ordinal+1], nil
}

// CanTransitionTo returns true if the stage can advance to the target stage.
// The pipeline is strictly linear: only the immediate successor is valid,
// plus a self-loop on the terminal stage.
func (s JobStage) CanTransitionTo(target JobStage) bool {
	from, ok := stageOrdinals[s]
	if !ok {
		return false
	}
	to, ok := stageOrdinals[target]
	if !ok {
		return false
	}
	if s.IsTerminal() {
		return target == s
	}
	return to == from+1
}

// ProgressPercent returns the display progress percentage for the stage.
func (s JobStage) ProgressPercent() int {
	return stageProgressWeights[s]
}

// AllJobStages returns the pipeline stages in order.
func AllJobStages() []JobStage {
	stages := make([]JobStage, len(stageOrder))
	copy(stages, stageOrder)
	return stages
}
