package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/pipeline"
	"github.com/jonathan/proposal-writer/internal/rendering"
	"github.com/jonathan/proposal-writer/internal/server/middleware"
	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

// maxBodyBytes bounds request bodies; briefs and letters are plain text.
const maxBodyBytes = 1 << 20

// ProposalResponse is the body returned for a generated proposal.
type ProposalResponse struct {
	Text          string          `json:"text"`
	PortfolioUsed int             `json:"portfolio_used"`
	Portfolio     types.Portfolio `json:"portfolio"`
	HTML          string          `json:"html,omitempty"`
	JobBrief      string          `json:"job_brief,omitempty"`
}

// ReviseResponse is the body returned for a revision.
type ReviseResponse struct {
	Text string `json:"text"`
}

// ListSavedResponse is the body returned when listing the archive.
type ListSavedResponse struct {
	Proposals []types.SavedProposal `json:"proposals"`
	Count     int                   `json:"count"`
}

// decode reads a JSON body into v and runs its validation.
func decode[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, v T) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return v.Validate()
}

// resolveBrief returns the request's brief, fetching job_url when no brief text was sent.
func (s *Server) resolveBrief(ctx context.Context, req *types.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.JobBrief) != "" {
		return req.JobBrief, nil
	}
	if s.briefs == nil {
		return "", &ErrValidation{Field: "job_url", Message: "fetching job postings is not enabled"}
	}
	brief, meta, err := s.briefs.FromURL(ctx, req.JobURL)
	if err != nil {
		return "", err
	}
	s.logger.Info("ingested job posting",
		zap.String("url", req.JobURL),
		zap.String("platform", meta.Platform),
		zap.Bool("from_cache", meta.FromCache))
	return brief, nil
}

func newProposalResponse(p types.Proposal) ProposalResponse {
	portfolio := p.Portfolio
	if portfolio == nil {
		portfolio = types.Portfolio{}
	}
	return ProposalResponse{
		Text:          p.Text,
		PortfolioUsed: p.PortfolioUsed,
		Portfolio:     portfolio,
	}
}

// handleGenerate runs the pipeline and returns the proposal.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}

	brief, err := s.resolveBrief(r.Context(), &req)
	if err != nil {
		s.failure(w, err)
		return
	}

	proposal, err := s.generator.Run(r.Context(), brief, nil)
	if err != nil {
		s.logger.Error("proposal generation failed", zap.Error(err))
		s.failure(w, err)
		return
	}

	resp := newProposalResponse(proposal)
	if req.JobBrief == "" {
		resp.JobBrief = brief
	}
	if r.URL.Query().Get("format") == "html" {
		html, err := rendering.ToHTML(proposal.Text)
		if err != nil {
			s.failure(w, err)
			return
		}
		resp.HTML = html
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGenerateStream runs the pipeline, streaming a status event per stage.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	brief, err := s.resolveBrief(r.Context(), &req)
	if err != nil {
		s.streamFailure(w, sse, err)
		return
	}

	proposal, err := s.generator.Run(r.Context(), brief, func(event pipeline.ProgressEvent) {
		sse.WriteStatus(event.RunID, event.Step, event.Message)
	})
	if err != nil {
		s.logger.Error("proposal generation failed", zap.Error(err))
		s.streamFailure(w, sse, err)
		return
	}

	sse.WriteComplete(newProposalResponse(proposal))
}

// streamFailure reports err as an SSE error event. The status line is already
// 200, so server-side failures are flagged for the circuit breaker.
func (s *Server) streamFailure(w http.ResponseWriter, sse *SSEWriter, err error) {
	if HTTPStatus(err) >= http.StatusInternalServerError {
		middleware.MarkFailed(w)
	}
	sse.WriteError(PublicMessage(err))
}

// handleRevise applies one revision instruction to a proposal.
func (s *Server) handleRevise(w http.ResponseWriter, r *http.Request) {
	var req types.ReviseRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}

	text, err := s.reviser.Revise(r.Context(), req.CurrentText, req.Instruction, req.History)
	if err != nil {
		s.logger.Error("revision failed", zap.Error(err))
		s.failure(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, ReviseResponse{Text: text})
}

// handleListSaved lists archived proposals, newest first.
func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.failure(w, store.ErrArchiveUnsupported)
		return
	}

	proposals, err := s.archive.ListSavedProposals(r.Context())
	if err != nil {
		s.logger.Error("failed to list saved proposals", zap.Error(err))
		s.failure(w, err)
		return
	}
	if proposals == nil {
		proposals = []types.SavedProposal{}
	}

	s.jsonResponse(w, http.StatusOK, ListSavedResponse{Proposals: proposals, Count: len(proposals)})
}

// handleSave archives a proposal.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.failure(w, store.ErrArchiveUnsupported)
		return
	}

	var req types.SaveProposalRequest
	if err := decode(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}

	saved, err := s.archive.SaveProposal(r.Context(), &req)
	if err != nil {
		s.logger.Error("failed to save proposal", zap.Error(err))
		s.failure(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, saved)
}

// handleDeleteSaved removes an archived proposal.
func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.failure(w, store.ErrArchiveUnsupported)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid proposal ID format")
		return
	}

	if err := s.archive.DeleteSavedProposal(r.Context(), id); err != nil {
		s.failure(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
