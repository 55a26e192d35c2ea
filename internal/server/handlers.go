package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/frontmatter"
	"git.home.luguber.info/inful/remotevalues/internal/markdown"
	"git.home.luguber.info/inful/remotevalues/internal/mdtree"
	"git.home.luguber.info/inful/remotevalues/internal/remotevalues"
)

// Report headers carried by every resolution response.
const (
	HeaderPlaceholders = "X-Remote-Placeholders"
	HeaderFailed       = "X-Remote-Failed"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTree resolves placeholders in an mdast JSON tree.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	var root mdtree.Node
	if err := json.Unmarshal(body, &root); err != nil {
		s.errors.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryParse, "invalid mdast tree").Build())
		return
	}

	report := s.transformer.Transform(r.Context(), &root)
	setReportHeaders(w, report)
	writeJSON(w, http.StatusOK, &root)
}

// handleMarkdown resolves placeholders in a Markdown document, front matter included.
func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}

	body := doc.Body
	var report remotevalues.Report
	if doc.RemoteValuesEnabled() {
		body, report, err = markdown.ResolveSource(r.Context(), s.transformer, doc.Body)
		if err != nil {
			s.errors.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryBuild, "resolve markdown").Build())
			return
		}
	}
	out, err := doc.Assemble(body)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryBuild, "assemble document").Build())
		return
	}

	setReportHeaders(w, report)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleHTML renders a Markdown document to HTML with placeholders resolved.
func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}

	t := s.transformer
	if !doc.RemoteValuesEnabled() {
		t = nil
	}
	out, report, err := markdown.RenderHTML(r.Context(), t, doc.Body)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryBuild, "render html").Build())
		return
	}

	setReportHeaders(w, report)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleValues resolves the configured named values.
func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	values, err := s.transformer.ResolveValues(r.Context(), s.cfg.Values)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) handleFlushCache(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"flushed": s.cache.Flush()})
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*frontmatter.Document, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	doc, err := frontmatter.Parse(body)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "invalid front matter").Build()
	}
	return doc, nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ferrors.ValidationError("request body too large").
				WithContext("limit", tooLarge.Limit).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "read request body").Build()
	}
	return body, nil
}

func setReportHeaders(w http.ResponseWriter, report remotevalues.Report) {
	w.Header().Set(HeaderPlaceholders, strconv.Itoa(report.Placeholders))
	w.Header().Set(HeaderFailed, strconv.Itoa(report.Failed))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
