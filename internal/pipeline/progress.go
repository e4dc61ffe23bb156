package pipeline

// Progress is an advisory snapshot of pipeline completion: a percent
// milestone plus a free-text status. It carries no scheduling contract;
// no correctness decision may depend on whether anyone is listening.
type Progress struct {
	Percent int
	Message string
}

// Reporter receives progress updates. A nil Reporter is always safe.
type Reporter func(Progress)

// Fixed milestones emitted by the pipeline.
const (
	progressRead         = 10
	progressSplit        = 20
	progressGenStart     = 30
	progressGenEnd       = 80
	progressCompensation = 75
	progressMerge        = 85
	progressDone         = 100
)

// report emits a progress update if a reporter is attached.
func report(r Reporter, percent int, message string) {
	if r == nil {
		return
	}
	r(Progress{Percent: percent, Message: message})
}

// generationPercent maps batch completion onto the generation phase's
// 30-80% progress band.
func generationPercent(completed, total int) int {
	if total <= 0 {
		return progressGenEnd
	}
	span := progressGenEnd - progressGenStart
	return progressGenStart + span*completed/total
}
