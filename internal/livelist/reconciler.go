package livelist

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/presentation/viewmodels"
)

const DefaultInterval = 10 * time.Second

// API is the part of the dashboard the reconciler calls.
type API interface {
	ListJobs(ctx context.Context) ([]byte, error)
	UpdateStatus(ctx context.Context, id string, status job.Status, completedBy string) error
}

// Snapshot is the list as last applied. Jobs is a copy owned by the receiver.
type Snapshot struct {
	Jobs      []viewmodels.Job
	UpdatedAt time.Time
	Visible   bool
	// InFlight holds ids with an unacknowledged status update.
	InFlight []string
}

type Options struct {
	Interval time.Duration
	// Initial is the list shown before the first poll; InitialPayload is its
	// encoded form, used to suppress a first poll that returns the same bytes.
	Initial        []viewmodels.Job
	InitialPayload []byte
	Hidden         bool
	CompletedBy    string
	Location       *time.Location
	Now            func() time.Time
	Logger         *logrus.Logger
	// OnChange runs on the reconciler goroutine after every applied change.
	OnChange func(Snapshot)
}

type eventKind int

const (
	evVisibility eventKind = iota
	evTap
	evPolled
	evUpdated
	evSnapshot
)

type event struct {
	kind    eventKind
	visible bool
	id      string
	payload []byte
	err     error
	prev    viewmodels.Job
	reply   chan Snapshot
}

// Reconciler keeps one job list in sync with the dashboard. All state is owned
// by the Run goroutine; the other methods only send it events.
type Reconciler struct {
	api    API
	opts   Options
	log    *logrus.Entry
	events chan event
	done   chan struct{}

	jobs        []viewmodels.Job
	lastPayload []byte
	updatedAt   time.Time
	visible     bool
	polling     bool
	inFlight    map[string]bool
}

func New(api API, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Reconciler{
		api:         api,
		opts:        opts,
		log:         opts.Logger.WithField("component", "livelist"),
		events:      make(chan event),
		done:        make(chan struct{}),
		jobs:        append([]viewmodels.Job(nil), opts.Initial...),
		lastPayload: opts.InitialPayload,
		visible:     !opts.Hidden,
		inFlight:    map[string]bool{},
	}
}

// Run processes events until ctx is cancelled. The poll timer and every pending
// call are torn down before it returns.
func (r *Reconciler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(r.done)

	var ticker *time.Ticker
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
	}
	defer stopTicker()
	if r.visible {
		ticker = time.NewTicker(r.opts.Interval)
	}

	for {
		var tick <-chan time.Time
		if ticker != nil {
			tick = ticker.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			r.poll(ctx)
		case ev := <-r.events:
			switch ev.kind {
			case evVisibility:
				if ev.visible == r.visible {
					continue
				}
				r.visible = ev.visible
				if ev.visible {
					r.poll(ctx)
					ticker = time.NewTicker(r.opts.Interval)
				} else {
					stopTicker()
				}
				r.log.WithField("visible", ev.visible).Debug("visibility changed")
			case evTap:
				r.tap(ctx, ev.id)
			case evPolled:
				r.applyPoll(ev.payload, ev.err)
			case evUpdated:
				r.applyUpdate(ev.id, ev.prev, ev.err)
			case evSnapshot:
				ev.reply <- r.snapshot()
			}
		}
	}
}

func (r *Reconciler) send(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

// SetVisible pauses polling while false; turning visible again polls at once
// and restarts the timer.
func (r *Reconciler) SetVisible(visible bool) {
	r.send(event{kind: evVisibility, visible: visible})
}

// Tap advances a job one step through the status cycle. A tap on a job whose
// previous update has not completed is ignored.
func (r *Reconciler) Tap(id string) {
	r.send(event{kind: evTap, id: id})
}

// Snapshot returns the current state, or false once Run has returned.
func (r *Reconciler) Snapshot() (Snapshot, bool) {
	reply := make(chan Snapshot, 1)
	if !r.send(event{kind: evSnapshot, reply: reply}) {
		return Snapshot{}, false
	}
	return <-reply, true
}

func (r *Reconciler) poll(ctx context.Context) {
	if r.polling {
		return
	}
	r.polling = true
	go func() {
		payload, err := r.api.ListJobs(ctx)
		r.send(event{kind: evPolled, payload: payload, err: err})
	}()
}

func (r *Reconciler) applyPoll(payload []byte, err error) {
	r.polling = false
	if err != nil {
		r.log.WithError(err).Warn("poll failed")
		return
	}
	if r.lastPayload != nil && bytes.Equal(payload, r.lastPayload) {
		return
	}
	var jobs []viewmodels.Job
	if err := json.Unmarshal(payload, &jobs); err != nil {
		r.log.WithError(err).Warn("poll returned an unreadable job list")
		return
	}
	if r.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		r.logDiff(payload)
	}
	r.jobs = jobs
	r.lastPayload = payload
	r.updatedAt = r.opts.Now()
	r.notify()
}

func (r *Reconciler) logDiff(payload []byte) {
	before := r.lastPayload
	if before == nil {
		var err error
		if before, err = json.Marshal(r.jobs); err != nil {
			return
		}
	}
	patch, err := jsondiff.CompareJSON(before, payload)
	if err != nil {
		r.log.WithError(err).Debug("diff poll payload")
		return
	}
	r.log.WithField("ops", len(patch)).Debugf("job list changed: %s", patch)
}

func (r *Reconciler) tap(ctx context.Context, id string) {
	if r.inFlight[id] {
		r.log.WithField("job", id).Debug("tap ignored, update in flight")
		return
	}
	idx := r.index(id)
	if idx < 0 {
		r.log.WithField("job", id).Warn("tap on unknown job")
		return
	}
	prev := r.jobs[idx]
	next := job.Status(prev.Status).Next()
	r.jobs[idx] = r.withStatus(prev, next)
	r.inFlight[id] = true
	r.notify()

	completedBy := r.opts.CompletedBy
	go func() {
		err := r.api.UpdateStatus(ctx, id, next, completedBy)
		r.send(event{kind: evUpdated, id: id, prev: prev, err: err})
	}()
}

func (r *Reconciler) withStatus(j viewmodels.Job, status job.Status) viewmodels.Job {
	j.Status = string(status)
	if status == job.StatusCompleted {
		j.CompletionDate = r.opts.Now().In(r.opts.Location).Format(job.DateLayout)
		if r.opts.CompletedBy != "" {
			j.CompletedBy = r.opts.CompletedBy
		}
		return j
	}
	j.CompletionDate = ""
	j.CompletedBy = ""
	return j
}

func (r *Reconciler) applyUpdate(id string, prev viewmodels.Job, err error) {
	delete(r.inFlight, id)
	if err == nil {
		r.notify()
		return
	}
	r.log.WithError(err).WithField("job", id).Warn("status update failed, reverting")
	if idx := r.index(id); idx >= 0 {
		j := r.jobs[idx]
		j.Status = prev.Status
		j.CompletionDate = prev.CompletionDate
		j.CompletedBy = prev.CompletedBy
		r.jobs[idx] = j
	}
	r.notify()
}

func (r *Reconciler) index(id string) int {
	for i := range r.jobs {
		if r.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Reconciler) snapshot() Snapshot {
	s := Snapshot{
		Jobs:      append([]viewmodels.Job(nil), r.jobs...),
		UpdatedAt: r.updatedAt,
		Visible:   r.visible,
	}
	for id := range r.inFlight {
		s.InFlight = append(s.InFlight, id)
	}
	sort.Strings(s.InFlight)
	return s
}

func (r *Reconciler) notify() {
	if r.opts.OnChange != nil {
		r.opts.OnChange(r.snapshot())
	}
}
