package sanitation

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/labstack/gommon/log"

	"variation-commons/api/models"
	"variation-commons/api/models/indexes"
)

// RequestPruner drops finished ingest requests older than a cutoff.
type RequestPruner interface {
	PruneFinishedRequests(cutoff time.Time) int
}

// IndexFinder looks up a store index by name.
type IndexFinder interface {
	FindIndex(ctx context.Context, name string) (indexes.IndexInfo, bool, error)
}

type Report struct {
	PrunedRequests    int
	UniqueIndexExists bool
}

type (
	SanitationService struct {
		Initialized bool
		Config      *models.Config

		requests  RequestPruner
		indexes   IndexFinder
		scheduler *gocron.Scheduler
		now       func() time.Time
	}
)

func NewSanitationService(cfg *models.Config, requests RequestPruner, idx IndexFinder) *SanitationService {
	ss := &SanitationService{
		Config:   cfg,
		requests: requests,
		indexes:  idx,
		now:      time.Now,
	}

	ss.Init()

	return ss
}

func (ss *SanitationService) Init() {
	if ss.Initialized {
		return
	}

	interval := ss.Config.Sanitation.IntervalMinutes
	if interval < 1 {
		interval = 60
	}

	ss.scheduler = gocron.NewScheduler(time.UTC)
	ss.scheduler.SingletonModeAll()
	if _, err := ss.scheduler.Every(interval).Minutes().WaitForSchedule().Do(func() {
		ss.Run(context.Background())
	}); err != nil {
		log.Errorf("[sanitation] scheduling failed: %v", err)
		return
	}
	ss.scheduler.StartAsync()

	ss.Initialized = true
	log.Infof("Sanitation Service Initialized, running every %d minute(s) ..", interval)
}

// Run prunes finished ingest requests past their retention and checks that
// the unique file index is still in place.
func (ss *SanitationService) Run(ctx context.Context) Report {
	var report Report

	retention := time.Duration(ss.Config.Api.IngestRequestRetentionHours) * time.Hour
	report.PrunedRequests = ss.requests.PruneFinishedRequests(ss.now().Add(-retention))
	if report.PrunedRequests > 0 {
		log.Infof("[sanitation] pruned %d finished ingest request(s)", report.PrunedRequests)
	}

	info, ok, err := ss.indexes.FindIndex(ctx, indexes.UNIQUE_FILE_INDEX_NAME)
	switch {
	case err != nil:
		log.Warnf("[sanitation] could not list indexes: %v", err)
	case !ok:
		// absent until the first write creates it
		log.Warnf("[sanitation] index %s is missing", indexes.UNIQUE_FILE_INDEX_NAME)
	case !info.Unique:
		log.Errorf("[sanitation] index %s exists but is not unique", indexes.UNIQUE_FILE_INDEX_NAME)
	default:
		report.UniqueIndexExists = true
	}

	return report
}

func (ss *SanitationService) Stop() {
	if ss.scheduler != nil {
		ss.scheduler.Stop()
	}
}
