package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

var errFileTooLarge = errors.New("file too large")

func readFormFile(header *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, errFileTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file failed: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file failed: %w", err)
	}
	return data, nil
}

// detectMIME trusts the client's part header unless it is missing or generic.
func detectMIME(header *multipart.FileHeader, data []byte) string {
	declared := strings.TrimSpace(header.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}
