package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// uploadError is a rejected upload, before the pipeline runs.
type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string {
	return e.message
}

// newPage returns the view model shared by the form and the result page.
func (s *Server) newPage(c *gin.Context) *page {
	return &page{
		RequestID:   c.GetString(requestIDKey),
		MaxUploadMB: s.opts.MaxUploadMB,
		TopContours: s.opts.TopContours,
	}
}

// handleIndex renders the upload form.
func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.newPage(c))
}

// handleUpload runs the pipeline on the uploaded file and renders every
// stage top to bottom.
func (s *Server) handleUpload(c *gin.Context) {
	p := s.newPage(c)

	data, filename, uerr := s.readUpload(c)
	if uerr != nil {
		p.Banner = &banner{Kind: kindError, Message: uerr.message}
		c.HTML(uerr.status, "result.html", p)
		return
	}
	p.Filename = filename

	res, err := s.runner.Run(c.Request.Context(), data)
	if err != nil {
		log.Printf("[%s] %s: %v", p.RequestID, filename, err)
	}

	status := p.fill(res, err)
	c.HTML(status, "result.html", p)
}

// handleDetect is the JSON form of handleUpload. Pass ?images=1 to include
// the stage images as base64 PNG.
func (s *Server) handleDetect(c *gin.Context) {
	id := c.GetString(requestIDKey)

	data, filename, uerr := s.readUpload(c)
	if uerr != nil {
		c.JSON(uerr.status, detectResponse{RequestID: id, Message: uerr.message, Error: uerr.message})
		return
	}

	res, err := s.runner.Run(c.Request.Context(), data)
	if err != nil {
		log.Printf("[%s] %s: %v", id, filename, err)
	}

	withImages := c.Query("images") == "1" || c.Query("images") == "true"
	resp, status := newDetectResponse(id, res, err, withImages)
	c.JSON(status, resp)
}

// handleHealth reports OCR availability. The service is degraded, not
// down, when OCR is missing: detection still works.
func (s *Server) handleHealth(c *gin.Context) {
	info := s.health.Info()

	status, state := http.StatusOK, "ok"
	if !info.Available {
		status, state = http.StatusServiceUnavailable, "degraded"
	}

	c.JSON(status, gin.H{
		"status":  state,
		"version": s.opts.Version,
		"ocr":     info,
	})
}

// readUpload returns the bytes of the multipart "file" field.
func (s *Server) readUpload(c *gin.Context) ([]byte, string, *uploadError) {
	limit := s.maxUploadBytes()
	tooLarge := &uploadError{
		status:  http.StatusRequestEntityTooLarge,
		message: fmt.Sprintf(msgTooLargeFormat, s.opts.MaxUploadMB),
	}

	if c.Request.ContentLength > limit+1<<20 {
		return nil, "", tooLarge
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", tooLarge
		}
		return nil, "", &uploadError{status: http.StatusBadRequest, message: msgMissingFile}
	}
	if fh.Size > limit {
		return nil, "", tooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", &uploadError{status: http.StatusBadRequest, message: msgMissingFile}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", &uploadError{status: http.StatusBadRequest, message: msgMissingFile}
	}
	if int64(len(data)) > limit {
		return nil, "", tooLarge
	}
	if len(data) == 0 {
		return nil, "", &uploadError{status: http.StatusBadRequest, message: msgMissingFile}
	}

	return data, fh.Filename, nil
}
