package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raftaar7864/rental-management-backend/internal/adapters/storage"
	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	"github.com/raftaar7864/rental-management-backend/platform/apperr"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

// BillRenderer renders a bill into PDF bytes.
type BillRenderer interface {
	Render(bill domain.Bill) ([]byte, error)
}

// Locator describes where a materialized PDF ended up. Key and URL are set
// after a successful object storage upload; LocalPath is set when the
// upload failed and the PDF was parked on local disk instead.
type Locator struct {
	Key       string
	URL       string
	LocalPath string
}

// Download is a resolved read access to a bill PDF: either a short-lived
// signed URL or a local file path, never both.
type Download struct {
	SignedURL string
	LocalPath string
}

// Materializer renders bill PDFs and places them in object storage under a
// deterministic per-bill key, falling back to a local scratch directory
// when storage is unreachable. Re-materializing a bill overwrites the
// previous PDF in place.
type Materializer struct {
	renderer      BillRenderer
	storage       storage.StorageService
	bucket        string
	publicBaseURL string
	fallbackDir   string
	log           *logger.Logger
}

func NewMaterializer(
	renderer BillRenderer,
	store storage.StorageService,
	storageCfg config.StorageConfig,
	pdfCfg config.PDFConfig,
	log *logger.Logger,
) *Materializer {
	return &Materializer{
		renderer:      renderer,
		storage:       store,
		bucket:        storageCfg.GetStorageBucketBills(),
		publicBaseURL: strings.TrimRight(storageCfg.GetStoragePublicBaseURL(), "/"),
		fallbackDir:   pdfCfg.GetPDFFallbackDir(),
		log:           log,
	}
}

// ObjectKey derives the deterministic storage key for a bill PDF.
func ObjectKey(bill *domain.Bill) string {
	return fmt.Sprintf("bills/bill_%s.pdf", bill.ID)
}

// Materialize renders the bill and stores the PDF. A render failure is
// returned; a storage failure is logged and absorbed by the local-disk
// fallback so bill lifecycle operations never block on object storage.
func (m *Materializer) Materialize(ctx context.Context, bill domain.Bill) (Locator, error) {
	pdfBytes, err := m.renderer.Render(bill)
	if err != nil {
		return Locator{}, fmt.Errorf("render bill pdf: %w", err)
	}

	key := ObjectKey(&bill)

	if m.storage != nil {
		err := m.storage.UploadObject(ctx, m.bucket, key, "application/pdf",
			bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
		if err == nil {
			locator := Locator{Key: key}
			if m.publicBaseURL != "" {
				locator.URL = m.publicBaseURL + "/" + key
			}
			return locator, nil
		}
		m.log.Warn("bill pdf upload failed, using local fallback",
			"bill_id", bill.ID, "error", err)
	}

	localPath, err := m.writeLocal(bill.ID.String(), pdfBytes)
	if err != nil {
		return Locator{}, err
	}
	return Locator{LocalPath: localPath}, nil
}

func (m *Materializer) writeLocal(billID string, pdfBytes []byte) (string, error) {
	if err := os.MkdirAll(m.fallbackDir, 0o755); err != nil {
		return "", fmt.Errorf("create pdf fallback dir: %w", err)
	}

	path := filepath.Join(m.fallbackDir, fmt.Sprintf("bill_%s.pdf", billID))
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return "", fmt.Errorf("write pdf fallback file: %w", err)
	}
	return path, nil
}

// Remove deletes the bill's PDF, both the storage object and any local
// fallback copy. Best effort: a deleted bill must not fail because its
// PDF could not be cleaned up.
func (m *Materializer) Remove(ctx context.Context, bill domain.Bill) {
	if m.storage != nil {
		key := bill.PDFKey
		if key == "" {
			key = ObjectKey(&bill)
		}
		if err := m.storage.DeleteObject(ctx, m.bucket, key); err != nil {
			m.log.Warn("bill pdf delete failed", "bill_id", bill.ID, "error", err)
		}
	}

	localPath := filepath.Join(m.fallbackDir, fmt.Sprintf("bill_%s.pdf", bill.ID))
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		m.log.Warn("bill pdf local delete failed", "bill_id", bill.ID, "error", err)
	}
}

// ResolveDownload produces read access to the bill PDF, materializing on
// demand when the bill has never been rendered or its storage copy is
// missing.
func (m *Materializer) ResolveDownload(ctx context.Context, bill domain.Bill) (Download, error) {
	if bill.PDFKey != "" && m.storage != nil {
		presigned, err := m.storage.GenerateDownloadURL(ctx, m.bucket, bill.PDFKey)
		if err == nil {
			return Download{SignedURL: presigned.URL}, nil
		}
		m.log.Warn("bill pdf signed url failed, re-materializing",
			"bill_id", bill.ID, "error", err)
	}

	localPath := filepath.Join(m.fallbackDir, fmt.Sprintf("bill_%s.pdf", bill.ID))
	if _, err := os.Stat(localPath); err == nil {
		return Download{LocalPath: localPath}, nil
	}

	locator, err := m.Materialize(ctx, bill)
	if err != nil {
		return Download{}, apperr.Wrap(apperr.KindUnavailable, "bill pdf unavailable", err)
	}

	if locator.Key != "" && m.storage != nil {
		presigned, err := m.storage.GenerateDownloadURL(ctx, m.bucket, locator.Key)
		if err != nil {
			return Download{}, apperr.Wrap(apperr.KindUnavailable, "bill pdf unavailable", err)
		}
		return Download{SignedURL: presigned.URL}, nil
	}

	return Download{LocalPath: locator.LocalPath}, nil
}
