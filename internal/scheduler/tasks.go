package scheduler

import (
	"cloutfarm/internal/logging"
)

// taskKind names the work a timer can dispatch.
type taskKind string

const (
	taskPost    taskKind = "post"
	taskComment taskKind = "comment"
)

// task is one unit of scheduled work for a campaign.
type task struct {
	kind       taskKind
	campaignID string
}

// dispatch routes a task to its pipeline. Failures are logged and absorbed;
// a bad cycle must never kill the timer.
func (s *Scheduler) dispatch(t task) {
	switch t.kind {
	case taskPost:
		if _, err := s.pipeline.CreatePost(s.baseCtx, t.campaignID); err != nil {
			logging.Scheduler("post task for campaign %s failed: %v", t.campaignID, err)
		}
	case taskComment:
		if _, err := s.pipeline.CreateComments(s.baseCtx, t.campaignID); err != nil {
			logging.Scheduler("comment task for campaign %s failed: %v", t.campaignID, err)
		}
	default:
		logging.Scheduler("dropping unknown task kind %q for campaign %s", t.kind, t.campaignID)
	}
}

// tick runs one recurring cycle: a commenting task, preceded in simulation
// mode by an extra post task on a winning roll. The regular post task fires
// once at start, not here.
func (s *Scheduler) tick(campaignID string, simulationMode bool) {
	if simulationMode && s.rng.Float64() < extraPostChance {
		logging.SchedulerDebug("campaign %s: firing extra simulated post", campaignID)
		s.dispatch(task{kind: taskPost, campaignID: campaignID})
	}

	s.dispatch(task{kind: taskComment, campaignID: campaignID})
}
