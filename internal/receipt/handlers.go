package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxUploadSize = 50 << 20
	maxBodySize   = 1 << 20
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// serviceError maps a service error onto a status code
func serviceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransaction):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Error "+action, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// uploadContentType picks the MIME type of an uploaded receipt, falling back
// to the file extension and then to content sniffing
func uploadContentType(header string, filename string, data []byte) string {
	if ct := strings.ToLower(strings.TrimSpace(header)); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return http.DetectContentType(data)
}

func (s *Server) handleUploadScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "File is too large. Maximum size is 50MB.", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file was selected. Please choose a receipt photo.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename, data)
	scan, err := s.service.ScanReceipt(r.Context(), header.Filename, data, contentType)
	if errors.Is(err, ErrScanFailed) {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":        err.Error(),
			"manual_entry": true,
		})
		return
	}
	if err != nil {
		serviceError(w, err, "scanning receipt")
		return
	}

	writeJSON(w, http.StatusCreated, scan)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scan, err := s.service.GetScan(r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "getting scan")
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.service.ListScans()
	if err != nil {
		serviceError(w, err, "listing scans")
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteScan(r.PathValue("id")); err != nil {
		serviceError(w, err, "deleting scan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleParse parses OCR text posted as text/plain or as {"text": ...}
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		jsonError(w, "Error reading body", http.StatusBadRequest)
		return
	}

	text := string(body)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		text = req.Text
	}

	writeJSON(w, http.StatusOK, s.service.ParseText(text))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch t := TransactionType(r.URL.Query().Get("type")); t {
	case Expense, Income:
		writeJSON(w, http.StatusOK, Categories(t))
	case "":
		writeJSON(w, http.StatusOK, map[TransactionType][]string{
			Expense: Categories(Expense),
			Income:  Categories(Income),
		})
	default:
		jsonError(w, "type must be expense or income", http.StatusBadRequest)
	}
}

// readTransactionInput validates the request body against the transaction
// schema and decodes it
func readTransactionInput(w http.ResponseWriter, r *http.Request) (TransactionInput, bool) {
	var in TransactionInput
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		jsonError(w, "Error reading body", http.StatusBadRequest)
		return in, false
	}
	if err := ValidateTransactionJSON(body); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return in, false
	}
	if err := json.Unmarshal(body, &in); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return in, false
	}
	return in, true
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := readTransactionInput(w, r)
	if !ok {
		return
	}
	t, err := s.service.CreateTransaction(in)
	if err != nil {
		serviceError(w, err, "creating transaction")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := readTransactionInput(w, r)
	if !ok {
		return
	}
	t, err := s.service.UpdateTransaction(r.PathValue("id"), in)
	if err != nil {
		serviceError(w, err, "updating transaction")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.GetTransaction(r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "getting transaction")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTransaction(r.PathValue("id")); err != nil {
		serviceError(w, err, "deleting transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTransactionImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetTransactionImage(r.PathValue("id"))
	if err != nil {
		serviceError(w, err, "getting transaction image")
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// dateRange reads the optional from/to query parameters
func dateRange(r *http.Request) (from, to *time.Time, err error) {
	parse := func(key string) (*time.Time, error) {
		v := r.URL.Query().Get(key)
		if v == "" {
			return nil, nil
		}
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, err
		}
		return &d, nil
	}
	if from, err = parse("from"); err != nil {
		return nil, nil, err
	}
	if to, err = parse("to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		jsonError(w, "from and to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	txns, err := s.service.ListTransactions(from, to)
	if err != nil {
		serviceError(w, err, "listing transactions")
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = s.service.timeSource.Now().Format("2006-01")
	}
	if _, _, err := MonthRange(month); err != nil {
		jsonError(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}
	sum, err := s.service.Summary(month)
	if err != nil {
		serviceError(w, err, "summarizing month")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		jsonError(w, "from and to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	data, err := s.service.ExportXLSX(from, to)
	if err != nil {
		serviceError(w, err, "exporting transactions")
		return
	}
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="kakeibo.xlsx"`)
	w.Write(data)
}
