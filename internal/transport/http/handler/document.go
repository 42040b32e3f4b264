package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/app"
	"supportdesk/internal/model"
	"supportdesk/internal/transport/http/response"
)

const listDocumentsLimit = 50

type DocumentService interface {
	Ingest(ctx context.Context, input app.IngestInput) (*model.Document, error)
	ListDocuments(ctx context.Context, limit int) ([]model.Document, error)
}

type DocumentHandler struct {
	documentService DocumentService
	maxUploadBytes  int64
}

func NewDocumentHandler(documentService DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadBytes:  maxUploadBytes,
	}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrNoFile)
		return
	}

	data, err := readFormFile(header, h.maxUploadBytes)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			response.Error(c, http.StatusBadRequest, response.ErrFileTooLarge)
			return
		}
		log.Printf("[ingest] read upload failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.ErrUploadFailed)
		return
	}

	doc, err := h.documentService.Ingest(c.Request.Context(), app.IngestInput{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.ErrNoFile)
		default:
			log.Printf("[ingest] upload %q failed: %v", header.Filename, err)
			response.Error(c, http.StatusInternalServerError, response.ErrUploadFailed)
		}
		return
	}

	response.OK(c, gin.H{"doc": doc})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documentService.ListDocuments(c.Request.Context(), listDocumentsLimit)
	if err != nil {
		log.Printf("[ingest] list documents failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.ErrFailed)
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	response.OK(c, gin.H{"docs": docs})
}
