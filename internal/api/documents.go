package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"zatix-checkout/models"
)

// UploadDocument sends an organizer verification document as multipart
// form data. The response carries the initial verification status.
func (c *Client) UploadDocument(ctx context.Context, docType, filename string, file io.Reader) (*models.Document, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("type", docType); err != nil {
		return nil, fmt.Errorf("api: upload document: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("api: upload document: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("api: upload document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("api: upload document: %w", err)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+"/eo/documents", &buf)
	if err != nil {
		return nil, fmt.Errorf("api: upload document: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var doc models.Document
	if err := c.roundTrip(req, "/eo/documents", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Document fetches one document for verification review.
func (c *Client) Document(ctx context.Context, id int) (*models.Document, error) {
	var doc models.Document
	path := fmt.Sprintf("/documents/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReviewDocument records an admin verification decision.
func (c *Client) ReviewDocument(ctx context.Context, id int, status, note string) (*models.Document, error) {
	body := map[string]string{"status": status, "note": note}

	var doc models.Document
	path := fmt.Sprintf("/documents/%d", id)
	if err := c.do(ctx, http.MethodPut, path, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
