package orchestrator

import (
	"sort"

	"iris/internal/api"
	"iris/internal/mediatype"
	"iris/internal/registry"
	"iris/internal/tracker"
)

// GetJobStatus answers a status query: live tracker state for an active
// job, a cached summary for a recently completed one, nil otherwise.
func (o *Orchestrator) GetJobStatus(id string) *api.JobStatus {
	if snap, ok := o.tracker.Snapshot(id); ok {
		status := snapshotToStatus(snap, false)
		status.AvailableFeatures = o.availableFeatures(string(snap.MediaType))
		return &status
	}
	if value, ok := o.cache.Get(id); ok {
		cached := value.(*cachedJob)
		status := snapshotToStatus(cached.snapshot, true)
		status.AvailableFeatures = o.availableFeatures(cached.response.MediaType)
		return &status
	}
	return nil
}

// GetCachedResult returns the formatted response for a cached job.
func (o *Orchestrator) GetCachedResult(id string) (*api.ProcessResponse, bool) {
	value, ok := o.cache.Get(id)
	if !ok {
		return nil, false
	}
	cached := value.(*cachedJob)
	response := cached.response
	return &response, true
}

// GetSystemStatus reports initialization state, load, cache occupancy,
// cumulative metrics, and the plugin availability picture.
func (o *Orchestrator) GetSystemStatus() api.SystemStatus {
	categories := make(map[string]bool, len(registry.AllCategories()))
	for _, category := range registry.AllCategories() {
		categories[string(category)] = o.registry.IsFeatureAvailable(category)
	}

	report := o.registry.Report()
	plugins := make([]api.PluginStatus, len(report))
	for i, status := range report {
		plugins[i] = api.PluginStatus{
			Name:           status.Name,
			Category:       string(status.Category),
			Provider:       status.Provider,
			Priority:       status.Priority,
			Enabled:        status.Enabled,
			DisabledReason: status.DisabledReason,
		}
	}

	return api.SystemStatus{
		Initialized: o.initialized,
		ActiveJobs:  o.tracker.ActiveCount(),
		CacheSize:   o.cache.Len(),
		Metrics:     o.metrics.snapshot(),
		Categories:  categories,
		Plugins:     plugins,
	}
}

// availableFeatures lists the resolved enabled stages for a media type.
func (o *Orchestrator) availableFeatures(mediaType string) []string {
	parsed, ok := mediatype.ParseType(mediaType)
	if !ok {
		return nil
	}
	resolved := o.resolveFeatures(parsed, o.logger)
	features := make([]string, 0, len(resolved))
	for stage, enabled := range resolved {
		if enabled {
			features = append(features, stage)
		}
	}
	sort.Strings(features)
	return features
}

func snapshotToStatus(snap tracker.Snapshot, fromCache bool) api.JobStatus {
	stages := make([]api.StageStatus, len(snap.Stages))
	for i, stage := range snap.Stages {
		stages[i] = api.StageStatus{
			Name:    stage.Name,
			Label:   stage.Label,
			Status:  string(stage.Status),
			Percent: stage.Percent,
			Detail:  stage.Detail,
		}
	}
	return api.JobStatus{
		ID:               snap.ID,
		Status:           string(snap.Status),
		MediaType:        string(snap.MediaType),
		StartTime:        snap.CreatedAt,
		ProcessingTimeMS: snap.ProcessingTime().Milliseconds(),
		Progress:         snap.Progress,
		Stages:           stages,
		Warnings:         snap.Warnings,
		Error:            snap.ErrorMessage,
		FromCache:        fromCache,
	}
}
