// Package api exposes a scanned collection over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/mrsinham/dicomtree/internal/query"
	"github.com/mrsinham/dicomtree/internal/resolve"
	"github.com/mrsinham/dicomtree/internal/scan"
)

// RescanFunc runs a new scan of the served root.
type RescanFunc func(ctx context.Context) (scan.Outcome, error)

// Handler provides the query endpoints.
type Handler struct {
	store  *Store
	rescan RescanFunc
}

// NewHandler creates a handler. rescan may be nil, which disables POST /rescan.
func NewHandler(store *Store, rescan RescanFunc) *Handler {
	return &Handler{store: store, rescan: rescan}
}

// RegisterRoutes registers the query endpoints on the provided group.
//
//	GET  /patients              - List patients
//	GET  /patients/:id          - One patient with studies and series
//	GET  /studies/:uid          - One study with its series
//	GET  /studies/:uid/tree     - Resolved RT tree of a study
//	GET  /files                 - File paths, optionally ?patient= and ?study=
//	GET  /summary               - Summary of the last scan
//	POST /rescan                - Scan the root again
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.GET("/patients/:id", h.GetPatient)
	g.GET("/studies/:uid", h.GetStudy)
	g.GET("/studies/:uid/tree", h.GetStudyTree)
	g.GET("/files", h.ListFiles)
	g.GET("/summary", h.GetSummary)
	if h.rescan != nil {
		g.POST("/rescan", h.Rescan)
	}
}

// PatientSummary is one entry of GET /patients.
type PatientSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Label   string `json:"label"`
	Studies int    `json:"studies"`
}

// ListPatients handles GET /patients.
func (h *Handler) ListPatients(c echo.Context) error {
	out := []PatientSummary{}
	for _, p := range h.store.Collection().Patients() {
		out = append(out, PatientSummary{
			ID:      p.PatientID,
			Name:    p.PatientName,
			Label:   resolve.PatientLabel(p),
			Studies: len(p.Studies()),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetPatient handles GET /patients/:id.
func (h *Handler) GetPatient(c echo.Context) error {
	p := query.LookupPatient(h.store.Collection(), c.Param("id"))
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, query.ExportPatient(p))
}

func (h *Handler) findStudy(c echo.Context) (*record.Patient, *record.Study, error) {
	p, st, ok := query.FindStudy(h.store.Collection(), c.Param("uid"))
	if !ok {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "study not found")
	}
	return p, st, nil
}

// GetStudy handles GET /studies/:uid.
func (h *Handler) GetStudy(c echo.Context) error {
	_, st, err := h.findStudy(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, query.ExportStudy(st, true))
}

// GetStudyTree handles GET /studies/:uid/tree.
func (h *Handler) GetStudyTree(c echo.Context) error {
	p, st, err := h.findStudy(c)
	if err != nil {
		return err
	}
	doc := query.ExportTree(st, resolve.Resolve(st))
	doc.PatientID = p.PatientID
	return c.JSON(http.StatusOK, doc)
}

// ListFiles handles GET /files.
func (h *Handler) ListFiles(c echo.Context) error {
	coll := h.store.Collection()
	patientID, studyUID := c.QueryParam("patient"), c.QueryParam("study")

	var files []string
	switch {
	case patientID != "" && studyUID != "":
		st := query.LookupStudy(coll, patientID, studyUID)
		if st == nil {
			return echo.NewHTTPError(http.StatusNotFound, "study not found")
		}
		files = query.FilesOfStudy(st)
	case patientID != "":
		p := query.LookupPatient(coll, patientID)
		if p == nil {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		files = query.FilesOfPatient(p)
	case studyUID != "":
		_, st, ok := query.FindStudy(coll, studyUID)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "study not found")
		}
		files = query.FilesOfStudy(st)
	default:
		files = query.FilesOfCollection(coll)
	}
	if files == nil {
		files = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"count": len(files), "files": files})
}

type summaryResponse struct {
	Summary   scan.Summary `json:"summary"`
	ScannedAt time.Time    `json:"scanned_at"`
}

// GetSummary handles GET /summary.
func (h *Handler) GetSummary(c echo.Context) error {
	sum, at := h.store.Summary()
	return c.JSON(http.StatusOK, summaryResponse{Summary: sum, ScannedAt: at})
}

// Rescan handles POST /rescan. The new collection replaces the old one only
// when the scan completes.
func (h *Handler) Rescan(c echo.Context) error {
	out, err := h.rescan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "rescan failed: "+err.Error())
	}
	if out.Status != scan.StatusCompleted {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "rescan cancelled")
	}
	h.store.Set(out.Collection, out.Summary)
	sum, at := h.store.Summary()
	return c.JSON(http.StatusOK, summaryResponse{Summary: sum, ScannedAt: at})
}
