package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/respond"
	"github.com/blogem/registros/services"
	"github.com/blogem/registros/tabular"
	"github.com/blogem/registros/userctx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RecordsController handles import, listing and export of records
type RecordsController struct {
	services       *services.Services
	uploadMaxBytes int64
}

// NewRecordsController creates a new records controller
func NewRecordsController(services *services.Services, uploadMaxBytes int64) *RecordsController {
	return &RecordsController{services: services, uploadMaxBytes: uploadMaxBytes}
}

// Upload handles POST /upload
func (c *RecordsController) Upload(w http.ResponseWriter, r *http.Request) {
	username := userctx.GetUsername(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, c.uploadMaxBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusBadRequest, "file too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	count, err := c.services.Records.Import(r.Context(), username, file)
	if errors.Is(err, tabular.ErrInvalidSheet) {
		log.Info().Err(err).Str("user", username).Msg("Rejected upload")
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user", username).Msg("Failed to import records")
		respond.Error(w, http.StatusInternalServerError, "failed to store records")
		return
	}

	log.Info().Str("user", username).Int("count", count).Msg("Records imported")
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Records imported successfully",
		"count":   count,
	})
}

// Data handles GET /data
func (c *RecordsController) Data(w http.ResponseWriter, r *http.Request) {
	records, err := c.services.Records.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list records")
		http.Error(w, "Failed to load records", http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, records)
}

// Download handles GET /download
func (c *RecordsController) Download(w http.ResponseWriter, r *http.Request) {
	buf, err := c.services.Records.Export(r.Context(), userctx.GetUsername(r.Context()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to export records")
		http.Error(w, "Error generating Excel file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="registros.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("Failed to send workbook")
	}
}
