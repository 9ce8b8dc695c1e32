package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "err", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return result, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.WithTrace(ctx).Warn("context error", "err", ctx.Err())
		return false
	}
	return true
}

func traceId(ctx context.Context) string {
	id, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return id
}

// WriteErrorResponse writes err with the status its kind maps to.
func WriteErrorResponse(w http.ResponseWriter, err error) {
	writeJsonResponse(w, ragErrors.HTTPStatus(err), adapter.ToErrorResponse(err))
}

func WriteBadRequest(w http.ResponseWriter, httpCode int, kind ragErrors.Kind, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(kind, message, httpCode))
}

func getTargetDirectory() (string, error) {
	targetDir := uploadDir
	if !filepath.IsAbs(targetDir) {
		root, err := os.Getwd()
		if err != nil {
			return "", err
		}
		targetDir = filepath.Join(root, targetDir)
	}
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

// saveUpload copies the multipart file into the upload directory and returns its path.
func saveUpload(fileReader multipart.File, fileMetadata *multipart.FileHeader) (string, error) {
	targetDir, err := getTargetDirectory()
	if err != nil {
		return "", fmt.Errorf("storage error: %w", err)
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMetadata.Filename))
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		return "", fmt.Errorf("storage error: %w", err)
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		_ = os.Remove(tempFilePath)
		return "", fmt.Errorf("write error: %w", err)
	}
	return tempFilePath, nil
}

// readUpload parses the multipart form and stores the "file" field.
func readUpload(w http.ResponseWriter, r *http.Request) (path string, fileName string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteBadRequest(w, http.StatusBadRequest, ragErrors.KindInvalidDocument, "File too large or bad request")
		return "", "", false
	}

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, http.StatusBadRequest, ragErrors.KindInvalidDocument, "Could not retrieve file")
		return "", "", false
	}
	defer fileReader.Close()

	path, err = saveUpload(fileReader, fileMetadata)
	if err != nil {
		logRH.WithTrace(r.Context()).Error("Couldn't store upload", "err", err)
		WriteBadRequest(w, http.StatusInternalServerError, ragErrors.KindInternal, "Storage error")
		return "", "", false
	}
	return path, fileMetadata.Filename, true
}
