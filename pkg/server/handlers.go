package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mercator-hq/perfscore/pkg/assessment"
	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/evidence/export"
	"mercator-hq/perfscore/pkg/evidence/query"
	"mercator-hq/perfscore/pkg/fuzzy"
	"mercator-hq/perfscore/pkg/server/types"
)

// assessRequest mirrors assessment.Request with required fields detectable.
type assessRequest struct {
	OperatorID string   `json:"operator_id"`
	Operations *float64 `json:"operations"`
	ErrorRate  *float64 `json:"error_rate"`
}

// EvidenceResponse is the JSON body of GET /v1/evidence.
type EvidenceResponse struct {
	Records []*evidence.Record `json:"records"`
	Total   int64              `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	var body assessRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, types.NewInvalidRequestError(
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), "", types.CodeRequestTooLarge))
			return
		}
		writeError(w, types.NewInvalidRequestError("invalid JSON: "+err.Error(), "", types.CodeInvalidJSON))
		return
	}
	if body.Operations == nil {
		writeError(w, types.NewInvalidRequestError("operations is required", "operations", types.CodeInvalidValue))
		return
	}
	if body.ErrorRate == nil {
		writeError(w, types.NewInvalidRequestError("error_rate is required", "error_rate", types.CodeInvalidValue))
		return
	}

	a, err := s.assessor.Assess(r.Context(), assessment.Request{
		OperatorID: body.OperatorID,
		Operations: *body.Operations,
		ErrorRate:  *body.ErrorRate,
	})
	switch {
	case errors.Is(err, assessment.ErrNotReady):
		writeError(w, types.NewServiceUnavailableError("no rule set is loaded", types.CodeRuleSetNotLoaded))
		return
	case errors.Is(err, assessment.ErrInvalidInput):
		writeError(w, types.NewInvalidRequestError(err.Error(), "", types.CodeInvalidValue))
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "assessment failed", "error", err)
		writeError(w, types.NewServerError("assessment failed"))
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRuleSet(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.assessor.Describe()
	if !ok {
		writeError(w, types.NewServiceUnavailableError("no rule set is loaded", types.CodeRuleSetNotLoaded))
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	if s.evidence == nil {
		writeError(w, types.NewNotFoundError("evidence recording is disabled", types.CodeEvidenceDisabled))
		return
	}

	params := r.URL.Query()
	q, perr := parseEvidenceQuery(params)
	if perr != nil {
		writeError(w, perr)
		return
	}
	if err := query.Validate(q, s.queryConfig.MaxLimit); err != nil {
		writeError(w, types.NewInvalidRequestError(err.Error(), "", types.CodeInvalidValue))
		return
	}
	query.ApplyDefaults(q, s.queryConfig.DefaultLimit)

	records, err := s.evidence.Query(r.Context(), q)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "evidence query failed", "error", err)
		writeError(w, types.NewServerError("evidence query failed"))
		return
	}

	format := params.Get("format")
	switch format {
	case "", "json":
	case "csv":
		exporter, _ := export.New("csv")
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := exporter.Export(r.Context(), records, w); err != nil {
			s.logger.WarnContext(r.Context(), "evidence export interrupted", "error", err)
		}
		return
	default:
		writeError(w, types.NewInvalidRequestError("unsupported format: "+format, "format", types.CodeInvalidValue))
		return
	}

	total, err := s.evidence.Count(r.Context(), q)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "evidence count failed", "error", err)
		writeError(w, types.NewServerError("evidence query failed"))
		return
	}
	if records == nil {
		records = []*evidence.Record{}
	}

	writeJSON(w, http.StatusOK, EvidenceResponse{
		Records: records,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
}

// parseEvidenceQuery maps URL parameters onto an evidence query. Range and
// limit checks are left to query.Validate.
func parseEvidenceQuery(params url.Values) (*evidence.Query, *types.ErrorResponse) {
	q := &evidence.Query{
		OperatorID: params.Get("operator_id"),
		Category:   fuzzy.Category(params.Get("category")),
		SortOrder:  params.Get("order"),
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"since", &q.StartTime}, {"until", &q.EndTime}} {
		v := params.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, types.NewInvalidRequestError(p.name+" must be an RFC 3339 timestamp", p.name, types.CodeInvalidValue)
		}
		*p.dst = &t
	}

	for _, p := range []struct {
		name string
		dst  **float64
	}{{"min_score", &q.MinScore}, {"max_score", &q.MaxScore}} {
		v := params.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, types.NewInvalidRequestError(p.name+" must be a number", p.name, types.CodeInvalidValue)
		}
		*p.dst = &f
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &q.Limit}, {"offset", &q.Offset}} {
		v := params.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, types.NewInvalidRequestError(p.name+" must be an integer", p.name, types.CodeInvalidValue)
		}
		*p.dst = n
	}

	return q, nil
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, resp *types.ErrorResponse) {
	resp.Write(w)
}
