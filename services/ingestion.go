package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	linq "github.com/ahmetb/go-linq"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"variation-commons/api/models"
	"variation-commons/api/models/ingest"
	"variation-commons/api/services/writer"
	"variation-commons/api/utils"
)

// BatchWriter stores a batch of variant sources.
type BatchWriter interface {
	Write(ctx context.Context, sources []*models.VariantSource) (writer.WriteSummary, error)
}

const inlineRequestName = "(request body)"

type (
	// IngestionService tracks ingest requests in IngestRequestMap. Every
	// state change is stored under IngestRequestMapMux before the call that
	// made it returns, so readers always see the latest state.
	IngestionService struct {
		Initialized         bool
		IngestRequestMap    map[string]*ingest.IngestRequest
		IngestRequestMapMux sync.RWMutex

		Writer       BatchWriter
		ManifestPath string
		Concurrency  int

		now      func() time.Time
		initOnce sync.Once
		stopped  bool
		inFlight sync.WaitGroup
	}
)

func NewIngestionService(w BatchWriter, cfg *models.Config) *IngestionService {
	return newIngestionService(w, cfg, time.Now)
}

func newIngestionService(w BatchWriter, cfg *models.Config, now func() time.Time) *IngestionService {
	concurrency := cfg.Api.FileProcessingConcurrencyLevel
	if concurrency < 1 {
		concurrency = 1
	}

	iz := &IngestionService{
		IngestRequestMap: map[string]*ingest.IngestRequest{},
		Writer:           w,
		ManifestPath:     cfg.Api.ManifestPath,
		Concurrency:      concurrency,
		now:              now,
	}

	iz.Init()

	return iz
}

func (i *IngestionService) Init() {
	i.initOnce.Do(func() {
		i.Initialized = true
		log.Infof("Ingestion Service Initialized, processing %d file(s) at a time ..", i.Concurrency)
	})
}

// Stop refuses further manifests and waits for the queued ones to finish.
// It is safe to call more than once.
func (i *IngestionService) Stop() {
	i.IngestRequestMapMux.Lock()
	i.stopped = true
	i.IngestRequestMapMux.Unlock()

	i.inFlight.Wait()
	log.Info("Ingestion Service Stopped ..")
}

// IngestManifests queues one request per manifest file and processes them in
// the background, at most Concurrency files at a time. Manifest names are
// resolved inside ManifestPath only.
func (i *IngestionService) IngestManifests(filenames []string) []ingest.IngestResponseDTO {
	responses := make([]ingest.IngestResponseDTO, 0, len(filenames))
	queued := make([]*ingest.IngestRequest, 0, len(filenames))

	for _, name := range filenames {
		req, ok := i.claim(filepath.Base(name))
		if ok {
			queued = append(queued, req)
		}
		responses = append(responses, responseOf(req))
	}

	if len(queued) == 0 {
		return responses
	}

	go func() {
		group := new(errgroup.Group)
		group.SetLimit(i.Concurrency)
		for _, req := range queued {
			req := req
			group.Go(func() error {
				defer i.inFlight.Done()
				i.processManifest(context.Background(), req)
				return nil
			})
		}
		group.Wait()
	}()

	return responses
}

// claim records a Queued request for filename unless that file already has
// an unfinished request or the service is stopped, in which case the
// recorded request is an Error. The check and the insert share one lock.
func (i *IngestionService) claim(filename string) (*ingest.IngestRequest, bool) {
	req := i.newRequest(filename)

	i.IngestRequestMapMux.Lock()
	defer i.IngestRequestMapMux.Unlock()

	switch {
	case i.stopped:
		req.State = ingest.Error
		req.Message = "ingestion service is stopped"
	case i.runningLocked(filename):
		req.State = ingest.Error
		req.Message = fmt.Sprintf("%s is already being ingested", filename)
	default:
		log.Infof("[ingestion] queueing a new ingestion request for %s", filename)
		i.inFlight.Add(1)
	}

	i.storeLocked(req)
	return req, req.State == ingest.Queued
}

// IngestSources writes a batch received directly, tracking it like a
// manifest ingestion.
func (i *IngestionService) IngestSources(ctx context.Context, sources []*models.VariantSource) (writer.WriteSummary, error) {
	req := i.newRequest(inlineRequestName)
	req.State = ingest.Running
	i.publish(req)

	summary, err := i.Writer.Write(ctx, sources)
	i.finish(req, summary, err)
	return summary, err
}

func (i *IngestionService) processManifest(ctx context.Context, req *ingest.IngestRequest) {
	req.State = ingest.Running
	i.publish(req)

	sources, err := utils.LoadManifest(filepath.Join(i.ManifestPath, req.Filename))
	if err != nil {
		log.Errorf("[ingestion] loading %s: %v", req.Filename, err)
		req.State = ingest.Error
		req.Message = err.Error()
		i.publish(req)
		return
	}

	summary, err := i.Writer.Write(ctx, sources)
	i.finish(req, summary, err)
}

func (i *IngestionService) finish(req *ingest.IngestRequest, summary writer.WriteSummary, err error) {
	req.Written = summary.Written
	if err != nil {
		req.State = ingest.Error
		req.Message = err.Error()
	} else {
		req.State = ingest.Done
		req.Message = fmt.Sprintf("wrote %d variant source(s)", summary.Written)
	}
	i.publish(req)
}

func (i *IngestionService) FilenameAlreadyRunning(filename string) bool {
	i.IngestRequestMapMux.RLock()
	defer i.IngestRequestMapMux.RUnlock()

	return i.runningLocked(filename)
}

func (i *IngestionService) runningLocked(filename string) bool {
	return linq.From(i.IngestRequestMap).
		AnyWithT(func(kv linq.KeyValue) bool {
			req := kv.Value.(*ingest.IngestRequest)
			return req.Filename == filename && !req.IsFinished()
		})
}

// GetRequests returns a snapshot of all tracked requests, oldest first.
func (i *IngestionService) GetRequests() []ingest.IngestRequest {
	i.IngestRequestMapMux.RLock()
	snapshot := make([]ingest.IngestRequest, 0, len(i.IngestRequestMap))
	for _, req := range i.IngestRequestMap {
		snapshot = append(snapshot, *req)
	}
	i.IngestRequestMapMux.RUnlock()

	sorted := []ingest.IngestRequest{}
	linq.From(snapshot).
		OrderByT(func(r ingest.IngestRequest) int64 { return r.CreatedAt.UnixNano() }).
		ToSlice(&sorted)
	return sorted
}

// PruneFinishedRequests drops Done and Error requests last updated before
// cutoff and reports how many were removed.
func (i *IngestionService) PruneFinishedRequests(cutoff time.Time) int {
	i.IngestRequestMapMux.Lock()
	defer i.IngestRequestMapMux.Unlock()

	pruned := 0
	for id, req := range i.IngestRequestMap {
		if req.IsFinished() && req.UpdatedAt.Before(cutoff) {
			delete(i.IngestRequestMap, id)
			pruned++
		}
	}
	return pruned
}

func (i *IngestionService) newRequest(filename string) *ingest.IngestRequest {
	return &ingest.IngestRequest{
		Id:        uuid.New(),
		Filename:  filename,
		State:     ingest.Queued,
		CreatedAt: i.now(),
	}
}

// publish stores a copy so that readers of the request map never share
// memory with an in-flight request.
func (i *IngestionService) publish(req *ingest.IngestRequest) {
	i.IngestRequestMapMux.Lock()
	defer i.IngestRequestMapMux.Unlock()

	i.storeLocked(req)
}

func (i *IngestionService) storeLocked(req *ingest.IngestRequest) {
	update := *req
	update.UpdatedAt = i.now()
	i.IngestRequestMap[update.Id.String()] = &update
}

func responseOf(req *ingest.IngestRequest) ingest.IngestResponseDTO {
	return ingest.IngestResponseDTO{
		Id:       req.Id,
		Filename: req.Filename,
		State:    req.State,
		Message:  req.Message,
	}
}
