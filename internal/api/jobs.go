package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/homeyum/yum/internal/failure"
)

const jobsPath = "/api/recipe-jobs"

// CreateJob submits a new recipe job. source is a video URL for link imports
// and a free-text prompt for manual jobs.
func (c *Client) CreateJob(ctx context.Context, kind JobKind, source string) (JobResponse, error) {
	var payload JobResponse
	body := CreateJobRequest{Kind: kind, Source: strings.TrimSpace(source)}
	if err := c.do(ctx, http.MethodPost, jobsPath, nil, body, &payload); err != nil {
		return JobResponse{}, err
	}
	if payload.Kind == "" {
		payload.Kind = kind
	}
	return payload, nil
}

// FetchJob retrieves the current status of a job.
func (c *Client) FetchJob(ctx context.Context, id string) (JobResponse, error) {
	if strings.TrimSpace(id) == "" {
		return JobResponse{}, failure.Validation("api", "fetch job", "job id required")
	}
	var payload JobResponse
	if err := c.get(ctx, idPath(jobsPath, id), nil, &payload); err != nil {
		return JobResponse{}, err
	}
	return payload, nil
}

// LatestJob returns the user's most recent job of the given kind. ok is false
// when the user has none.
func (c *Client) LatestJob(ctx context.Context, kind JobKind) (JobResponse, bool, error) {
	var payload JobResponse
	query := url.Values{}
	query.Set("kind", string(kind))
	if err := c.list(ctx, jobsPath+"/latest", query, &payload); err != nil {
		return JobResponse{}, false, err
	}
	if payload.JobID == "" {
		return JobResponse{}, false, nil
	}
	return payload, true, nil
}

// ReviseJob asks the pipeline to regenerate the recipe or image of a manual
// job using the user's feedback.
func (c *Client) ReviseJob(ctx context.Context, id string, req RevisionRequest) (JobResponse, error) {
	var payload JobResponse
	if err := c.do(ctx, http.MethodPut, idPath(jobsPath, id)+"/update", nil, req, &payload); err != nil {
		return JobResponse{}, err
	}
	return payload, nil
}

// ConfirmJob finalizes a manual job and triggers asset generation.
func (c *Client) ConfirmJob(ctx context.Context, id string) (JobResponse, error) {
	var payload JobResponse
	if err := c.do(ctx, http.MethodPost, idPath(jobsPath, id)+"/confirm", nil, nil, &payload); err != nil {
		return JobResponse{}, err
	}
	return payload, nil
}
