// Package snapshots exports a point-in-time JSON document of every planner
// record to object storage.
package snapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/planner"
)

const contentType = "application/json"

// Storage persists a named object and returns where it can be fetched.
type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Document is the exported snapshot.
type Document struct {
	GeneratedAt models.Timestamp      `json:"generatedAt"`
	Statistics  models.Statistics     `json:"statistics"`
	Profiles    []models.UserProfile  `json:"profiles"`
	Ideas       []models.VideoIdea    `json:"ideas"`
	Hashtags    []models.Hashtag      `json:"hashtags"`
	Activity    []models.UserActivity `json:"activity"`
}

// Result describes a completed export.
type Result struct {
	Location    string           `json:"location"`
	GeneratedAt models.Timestamp `json:"generatedAt"`
	Ideas       int              `json:"ideas"`
}

// Exporter builds snapshots for admins.
type Exporter struct {
	gate    *planner.Gate
	store   planner.Store
	storage Storage
	now     func() time.Time
}

// NewExporter returns an Exporter reading from store and writing to storage.
func NewExporter(gate *planner.Gate, store planner.Store, storage Storage) *Exporter {
	return &Exporter{gate: gate, store: store, storage: storage, now: time.Now}
}

// Export snapshots every record and uploads it as snapshots/<generatedAt>.json.
func (e *Exporter) Export(ctx context.Context, caller string) (Result, error) {
	if err := e.gate.Authorize(ctx, caller, planner.PermStaff); err != nil {
		return Result{}, err
	}

	ctx, span := logging.StartSpan(ctx, "snapshots.export")
	doc, err := e.build(ctx)
	if err != nil {
		span.EndErr(err)
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		span.EndErr(err)
		return Result{}, fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("snapshots/%d.json", doc.GeneratedAt)
	location, err := e.storage.Save(ctx, name, contentType, &buf)
	if err != nil {
		span.EndErr(err)
		return Result{}, fmt.Errorf("store snapshot: %w", err)
	}

	span.SetAttr("location", location)
	span.SetAttr("ideas", len(doc.Ideas))
	span.End()

	return Result{Location: location, GeneratedAt: doc.GeneratedAt, Ideas: len(doc.Ideas)}, nil
}

func (e *Exporter) build(ctx context.Context) (Document, error) {
	ideas, err := e.store.ListAllIdeas(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("list ideas: %w", err)
	}
	tags, err := e.store.ListHashtags(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("list hashtags: %w", err)
	}
	profiles, err := e.store.ListProfiles(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("list profiles: %w", err)
	}

	return Document{
		GeneratedAt: models.TimestampOf(e.now()),
		Statistics:  planner.ComputeStatistics(ideas, tags, profiles),
		Profiles:    profiles,
		Ideas:       ideas,
		Hashtags:    tags,
		Activity:    planner.ComputeUserActivity(ideas, profiles),
	}, nil
}
