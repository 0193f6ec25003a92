package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	applog "pet/internal/log"
	"pet/internal/transfer"
)

type importSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func attachment(w http.ResponseWriter, contentType, filename string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// handleExport streams the ledger as csv (default), json or xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(transfer.FormatCSV)
	}
	format, err := transfer.ParseFormat(name)
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := transfer.Export(&buf, format, s.svc.List()); err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	attachment(w, format.ContentType(), transfer.ExportFilename(format, s.now()), &buf)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	records, budget, _ := s.svc.Snapshot()
	now := s.now()
	var buf bytes.Buffer
	if err := transfer.WriteBackup(&buf, transfer.NewBackup(records, budget, now)); err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	attachment(w, transfer.FormatJSON.ContentType(), transfer.BackupFilename(now), &buf)
}

// handleImport appends the records decoded from the uploaded file. Rows that
// fail to decode or validate are counted as skipped.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := uploadedFile(w, r)
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	defer file.Close()

	format, err := transfer.FormatFromFilename(header.Filename)
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	result, err := transfer.Import(header.Filename, file)
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	summary, err := s.importRecords(r, result)
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	s.metrics.RecordImport(string(format), summary.Imported, summary.Skipped)
	writeJSON(w, http.StatusOK, summary)
}

// handleImportSheet pulls the rows currently in the mirrored spreadsheet.
func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	if s.sheet == nil {
		s.writeError(w, r, applog.OpImport, errSheetDisabled)
		return
	}
	result, err := s.sheet.ReadExpenses(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	summary, err := s.importRecords(r, result)
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	s.metrics.RecordImport("sheet", summary.Imported, summary.Skipped)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) importRecords(r *http.Request, result transfer.ImportResult) (importSummary, error) {
	added, err := s.svc.Import(r.Context(), result.Records)
	if err != nil {
		return importSummary{}, err
	}
	s.ledgerChanged()
	return importSummary{
		Imported: added,
		Skipped:  result.Skipped + len(result.Records) - added,
	}, nil
}

// handleRestore replaces the ledger with a backup document, sent either as
// the request body or as a multipart "file".
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var src io.Reader
	if isMultipart(r) {
		file, _, err := uploadedFile(w, r)
		if err != nil {
			s.writeError(w, r, applog.OpRestore, err)
			return
		}
		defer file.Close()
		src = file
	} else {
		src = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	}

	backup, skipped, err := transfer.ReadBackup(src)
	if err != nil {
		s.writeError(w, r, applog.OpRestore, err)
		return
	}
	if err := s.svc.Restore(r.Context(), backup.Expenses, backup.Budget); err != nil {
		s.writeError(w, r, applog.OpRestore, err)
		return
	}
	s.ledgerChanged()
	restored := len(s.svc.List())
	writeJSON(w, http.StatusOK, map[string]int{
		"restored": restored,
		"skipped":  skipped + len(backup.Expenses) - restored,
	})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.LoadSample(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpImport, err)
		return
	}
	s.ledgerChanged()
	writeJSON(w, http.StatusOK, map[string]int{"loaded": n})
}

// handleClear removes every record and the budget.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearAll(r.Context()); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.ledgerChanged()
	w.WriteHeader(http.StatusNoContent)
}
