package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/fiskara/taxchat/internal/config"
	"github.com/fiskara/taxchat/internal/domain"
)

// Uploader stores one file remotely and returns its handle.
type Uploader interface {
	UploadFile(ctx context.Context, name string, r io.Reader) (string, error)
}

// IncomingFile is one user-supplied file before ingestion.
type IncomingFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// allowedMIMETypes is the fixed allow-list of declared types the provider
// can index for retrieval or feed to code execution.
var allowedMIMETypes = map[string]struct{}{
	// Text documents
	"text/plain":    {},
	"text/markdown": {},
	"text/html":     {},
	// PDF
	"application/pdf": {},
	// Office documents
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	// Source code
	"text/x-c":          {},
	"text/x-c++":        {},
	"text/x-csharp":     {},
	"text/x-java":       {},
	"text/x-python":     {},
	"text/x-ruby":       {},
	"text/x-php":        {},
	"text/javascript":   {},
	"text/typescript":   {},
	"text/x-sh":         {},
	"text/css":          {},
	"application/json":  {},
	"text/x-tex":        {},
	// Misc
	"application/rtf": {},
	"text/csv":        {},
}

// Ingestor validates and uploads user files. Files are handled
// independently; one bad file never aborts the batch.
type Ingestor struct {
	uploader Uploader
	maxSize  int64
}

func NewIngestor(uploader Uploader) *Ingestor {
	return &Ingestor{uploader: uploader, maxSize: config.MaxFileSize}
}

// Ingest validates each file against the size ceiling and MIME allow-list
// and uploads the survivors. Attachments whose upload failed keep a nil
// FileID: recorded for local display, never submitted to the provider.
func (in *Ingestor) Ingest(ctx context.Context, files []IncomingFile) (attached []domain.Attachment, skipped []domain.SkippedFile) {
	for _, f := range files {
		if f.Size > in.maxSize {
			slog.Warn("file rejected", "name", f.Name, "size", f.Size, "reason", domain.SkipTooLarge)
			skipped = append(skipped, domain.SkippedFile{Name: f.Name, Reason: domain.SkipTooLarge})
			continue
		}
		if _, ok := allowedMIMETypes[f.ContentType]; !ok {
			slog.Warn("file rejected", "name", f.Name, "type", f.ContentType, "reason", domain.SkipUnsupportedType)
			skipped = append(skipped, domain.SkippedFile{Name: f.Name, Reason: domain.SkipUnsupportedType})
			continue
		}

		att := domain.Attachment{Name: f.Name, MimeType: f.ContentType, Size: f.Size}
		fileID, err := in.uploader.UploadFile(ctx, f.Name, f.Content)
		if err != nil {
			slog.Error("file upload failed", "error", err, "name", f.Name)
			skipped = append(skipped, domain.SkippedFile{Name: f.Name, Reason: domain.SkipUploadFailed})
		} else {
			att.FileID = &fileID
		}
		attached = append(attached, att)
	}
	return attached, skipped
}

// fileIDs collects the remote handles of successfully uploaded
// attachments. Attachments without a handle are excluded.
func fileIDs(attachments []domain.Attachment) []string {
	var ids []string
	for _, a := range attachments {
		if a.FileID != nil {
			ids = append(ids, *a.FileID)
		}
	}
	return ids
}
