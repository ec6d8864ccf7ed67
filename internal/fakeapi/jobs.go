package fakeapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/logging"
)

const (
	statusProcessing       = "processing"
	statusCompleted        = "completed"
	statusFailed           = "failed"
	statusInitialGenerated = "initial_generated"
	statusUpdated          = "updated"
)

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req api.CreateJobRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeError(w, http.StatusBadRequest, "source required")
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = api.JobKindLinkImport
	}
	keys, ok := stepKeys[kind]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown job kind "+string(kind))
		return
	}

	s.mu.Lock()
	job := &jobState{
		resp: api.JobResponse{
			JobID:     s.nextID("job-"),
			Kind:      kind,
			Status:    statusProcessing,
			CreatedAt: s.stamp(),
			UpdatedAt: s.stamp(),
		},
		title:    titleFor(kind, req.Source),
		failStep: s.nextStep.key,
		failMsg:  s.nextStep.message,
	}
	s.nextStep.key, s.nextStep.message = "", ""
	for _, key := range keys {
		job.resp.Steps = append(job.resp.Steps, api.StepPayload{Step: key, Status: "pending"})
	}
	s.jobs[job.resp.JobID] = job
	s.latest[kind] = job.resp.JobID
	resp := cloneJob(job.resp)
	s.mu.Unlock()

	s.logger.Debug("job created", logging.String(logging.FieldJobID, resp.JobID), logging.String(logging.FieldKind, string(kind)))
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	job, ok := s.jobs[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if !s.hold {
		s.advance(job)
	}
	resp := cloneJob(job.resp)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// advance moves the job one step: pending → processing → completed, or
// failed at the scripted step. Callers hold s.mu.
func (s *Server) advance(job *jobState) {
	if job.resp.Status != statusProcessing {
		return
	}
	job.resp.UpdatedAt = s.stamp()
	for i := range job.resp.Steps {
		step := &job.resp.Steps[i]
		switch step.Status {
		case "completed":
			continue
		case "pending":
			step.Status = "processing"
			step.Timestamp = s.stamp()
			return
		case "processing":
			if step.Step == job.failStep {
				step.Status = "failed"
				step.Error = job.failMsg
				job.resp.Status = statusFailed
				job.resp.Error = job.failMsg
				return
			}
			step.Status = "completed"
			step.Timestamp = s.stamp()
			if i < len(job.resp.Steps)-1 {
				return
			}
		}
	}

	title := job.title
	job.resp.Recipe = &api.RecipePayload{
		Title:    title,
		Markdown: "# " + title + "\n\n## Ingredients\n\n- 1 cup rice\n\n## Steps\n\n1. Cook the rice.\n",
	}
	if job.resp.Kind == api.JobKindManualPrompt {
		job.resp.Status = statusInitialGenerated
		return
	}
	job.resp.Status = statusCompleted
	job.resp.Recipe.VideoID = s.publish(title)
}

// publish adds a feed video for a finished recipe. Callers hold s.mu.
func (s *Server) publish(title string) string {
	id := s.nextID("vid-")
	s.videos = append([]api.Video{{
		VideoID:    id,
		UserID:     UserID,
		VideoTitle: title,
		MealName:   title,
		VideoURL:   "https://www.youtube.com/shorts/" + id,
		UploadedAt: s.stamp(),
		Source:     "recipe_job",
	}}, s.videos...)
	return id
}

func (s *Server) latestJob(w http.ResponseWriter, r *http.Request) {
	kind := api.JobKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = api.JobKindLinkImport
	}
	s.mu.Lock()
	id, ok := s.latest[kind]
	var resp api.JobResponse
	if ok {
		resp = cloneJob(s.jobs[id].resp)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "no jobs")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) reviseJob(w http.ResponseWriter, r *http.Request) {
	var body api.RevisionRequest
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.resp.Status != statusInitialGenerated && job.resp.Status != statusUpdated {
		writeError(w, http.StatusConflict, "job is not awaiting review")
		return
	}
	if body.RecipeUpdates != "" {
		job.resp.Recipe.Markdown += "\n> Revised: " + body.RecipeUpdates + "\n"
	}
	if body.ImageUpdates != "" {
		job.resp.Recipe.ImageURL = "https://images.example/" + job.resp.JobID + ".png"
	}
	job.resp.Status = statusUpdated
	job.resp.UpdatedAt = s.stamp()
	writeJSON(w, http.StatusOK, cloneJob(job.resp))
}

func (s *Server) confirmJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.resp.Status != statusInitialGenerated && job.resp.Status != statusUpdated {
		writeError(w, http.StatusConflict, "job is not awaiting review")
		return
	}
	job.resp.Status = statusCompleted
	job.resp.UpdatedAt = s.stamp()
	job.resp.Recipe.VideoID = s.publish(job.resp.Recipe.Title)
	writeJSON(w, http.StatusOK, cloneJob(job.resp))
}

func cloneJob(resp api.JobResponse) api.JobResponse {
	out := resp
	out.Steps = append([]api.StepPayload(nil), resp.Steps...)
	if resp.Recipe != nil {
		recipe := *resp.Recipe
		out.Recipe = &recipe
	}
	return out
}

func titleFor(kind api.JobKind, source string) string {
	source = strings.TrimSpace(source)
	if kind == api.JobKindLinkImport {
		return "Recipe from " + source
	}
	if line, _, _ := strings.Cut(source, "\n"); line != "" {
		source = line
	}
	if len(source) > 40 {
		source = source[:40]
	}
	return strings.ToUpper(source[:1]) + source[1:]
}
