package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raftaar7864/rental-management-backend/internal/adapters/storage"
	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	"github.com/raftaar7864/rental-management-backend/platform/apperr"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

type fakeRenderer struct {
	mu    sync.Mutex
	pdf   []byte
	err   error
	calls int
}

func (f *fakeRenderer) Render(domain.Bill) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.pdf, nil
}

func (f *fakeRenderer) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStorage struct {
	uploadErr  error
	signErr    error
	uploads    map[string][]byte
	deleted    []string
	lastBucket string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (f *fakeStorage) UploadObject(_ context.Context, bucket, fileKey, _ string, reader io.Reader, _ int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.lastBucket = bucket
	f.uploads[fileKey] = data
	return nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &storage.PresignedURL{
		URL:       fmt.Sprintf("https://minio.example.com/%s/%s?sig=abc", bucket, fileKey),
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _ string, fileKey string) error {
	delete(f.uploads, fileKey)
	f.deleted = append(f.deleted, fileKey)
	return nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }

func newTestMaterializer(t *testing.T, renderer BillRenderer, store storage.StorageService) *Materializer {
	t.Helper()
	cfg := &config.Config{
		StorageBucketBills:   "bills",
		StoragePublicBaseURL: "https://cdn.example.com",
		PDFFallbackDir:       t.TempDir(),
	}
	return NewMaterializer(renderer, store, cfg, cfg, logger.New("test"))
}

func materializerBill() domain.Bill {
	return domain.Bill{
		ID:           uuid.MustParse("7b2f4c1d-8e3a-4f5b-9c6d-0a1b2c3d4e5f"),
		BillingMonth: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:  8500,
	}
}

func TestObjectKeyIsDeterministic(t *testing.T) {
	bill := materializerBill()
	want := "bills/bill_7b2f4c1d-8e3a-4f5b-9c6d-0a1b2c3d4e5f.pdf"
	if got := ObjectKey(&bill); got != want {
		t.Fatalf("ObjectKey = %q, want %q", got, want)
	}
	if ObjectKey(&bill) != ObjectKey(&bill) {
		t.Fatal("ObjectKey must be stable across calls")
	}
}

func TestMaterializeUploadsUnderDeterministicKey(t *testing.T) {
	store := newFakeStorage()
	m := newTestMaterializer(t, &fakeRenderer{pdf: []byte("%PDF-1.7 test")}, store)
	bill := materializerBill()

	locator, err := m.Materialize(context.Background(), bill)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	key := ObjectKey(&bill)
	if locator.Key != key {
		t.Fatalf("locator key = %q, want %q", locator.Key, key)
	}
	if want := "https://cdn.example.com/" + key; locator.URL != want {
		t.Fatalf("locator url = %q, want %q", locator.URL, want)
	}
	if locator.LocalPath != "" {
		t.Fatalf("locator local path = %q, want empty after upload", locator.LocalPath)
	}
	if string(store.uploads[key]) != "%PDF-1.7 test" {
		t.Fatal("uploaded bytes do not match rendered pdf")
	}
	if store.lastBucket != "bills" {
		t.Fatalf("bucket = %q, want bills", store.lastBucket)
	}
}

func TestMaterializeOverwritesPreviousUpload(t *testing.T) {
	store := newFakeStorage()
	renderer := &fakeRenderer{pdf: []byte("v1")}
	m := newTestMaterializer(t, renderer, store)
	bill := materializerBill()

	if _, err := m.Materialize(context.Background(), bill); err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	renderer.pdf = []byte("v2")
	if _, err := m.Materialize(context.Background(), bill); err != nil {
		t.Fatalf("second materialize: %v", err)
	}

	if got := string(store.uploads[ObjectKey(&bill)]); got != "v2" {
		t.Fatalf("stored pdf = %q, want v2", got)
	}
	if len(store.uploads) != 1 {
		t.Fatalf("stored objects = %d, want 1", len(store.uploads))
	}
}

func TestMaterializeFallsBackToLocalOnUploadFailure(t *testing.T) {
	store := newFakeStorage()
	store.uploadErr = errors.New("connection refused")
	m := newTestMaterializer(t, &fakeRenderer{pdf: []byte("pdf bytes")}, store)
	bill := materializerBill()

	locator, err := m.Materialize(context.Background(), bill)
	if err != nil {
		t.Fatalf("materialize should absorb upload failure, got %v", err)
	}

	if locator.Key != "" || locator.URL != "" {
		t.Fatalf("locator = %+v, want only a local path", locator)
	}
	data, err := os.ReadFile(locator.LocalPath)
	if err != nil {
		t.Fatalf("read fallback file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Fatalf("fallback file = %q, want rendered pdf", data)
	}
}

func TestMaterializeWithoutStorageWritesLocal(t *testing.T) {
	m := newTestMaterializer(t, &fakeRenderer{pdf: []byte("pdf")}, nil)
	bill := materializerBill()

	locator, err := m.Materialize(context.Background(), bill)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if locator.LocalPath == "" {
		t.Fatal("locator should carry a local path when storage is absent")
	}
}

func TestMaterializePropagatesRenderFailure(t *testing.T) {
	renderErr := errors.New("layout failed")
	m := newTestMaterializer(t, &fakeRenderer{err: renderErr}, newFakeStorage())

	if _, err := m.Materialize(context.Background(), materializerBill()); !errors.Is(err, renderErr) {
		t.Fatalf("materialize error = %v, want render failure", err)
	}
}

func TestResolveDownloadSignsStoredKey(t *testing.T) {
	store := newFakeStorage()
	m := newTestMaterializer(t, &fakeRenderer{pdf: []byte("pdf")}, store)
	bill := materializerBill()
	bill.PDFKey = ObjectKey(&bill)

	dl, err := m.ResolveDownload(context.Background(), bill)
	if err != nil {
		t.Fatalf("resolve download: %v", err)
	}
	if dl.SignedURL == "" || dl.LocalPath != "" {
		t.Fatalf("download = %+v, want signed url only", dl)
	}
}

func TestResolveDownloadUsesExistingLocalFile(t *testing.T) {
	m := newTestMaterializer(t, &fakeRenderer{err: errors.New("must not render")}, nil)
	bill := materializerBill()

	path := filepath.Join(m.fallbackDir, fmt.Sprintf("bill_%s.pdf", bill.ID))
	if err := os.WriteFile(path, []byte("cached"), 0o644); err != nil {
		t.Fatalf("seed fallback file: %v", err)
	}

	dl, err := m.ResolveDownload(context.Background(), bill)
	if err != nil {
		t.Fatalf("resolve download: %v", err)
	}
	if dl.LocalPath != path {
		t.Fatalf("local path = %q, want %q", dl.LocalPath, path)
	}
}

func TestResolveDownloadMaterializesOnDemand(t *testing.T) {
	store := newFakeStorage()
	m := newTestMaterializer(t, &fakeRenderer{pdf: []byte("fresh")}, store)
	bill := materializerBill()

	dl, err := m.ResolveDownload(context.Background(), bill)
	if err != nil {
		t.Fatalf("resolve download: %v", err)
	}
	if dl.SignedURL == "" {
		t.Fatalf("download = %+v, want signed url after on-demand materialization", dl)
	}
	if _, ok := store.uploads[ObjectKey(&bill)]; !ok {
		t.Fatal("on-demand materialization should upload the pdf")
	}
}

func TestRemoveDeletesStorageObjectAndLocalCopy(t *testing.T) {
	store := newFakeStorage()
	m := newTestMaterializer(t, &fakeRenderer{pdf: []byte("pdf")}, store)
	bill := materializerBill()

	locator, err := m.Materialize(context.Background(), bill)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	bill.PDFKey = locator.Key

	localPath := filepath.Join(m.fallbackDir, fmt.Sprintf("bill_%s.pdf", bill.ID))
	if err := os.WriteFile(localPath, []byte("stale copy"), 0o644); err != nil {
		t.Fatalf("seed local copy: %v", err)
	}

	m.Remove(context.Background(), bill)

	if len(store.deleted) != 1 || store.deleted[0] != locator.Key {
		t.Fatalf("deleted = %v, want [%s]", store.deleted, locator.Key)
	}
	if _, err := os.Stat(localPath); !os.IsNotExist(err) {
		t.Fatal("local fallback copy should be removed")
	}
}

func TestRemoveDerivesKeyWhenNoneStored(t *testing.T) {
	store := newFakeStorage()
	m := newTestMaterializer(t, &fakeRenderer{pdf: []byte("pdf")}, store)
	bill := materializerBill()

	m.Remove(context.Background(), bill)

	if len(store.deleted) != 1 || store.deleted[0] != ObjectKey(&bill) {
		t.Fatalf("deleted = %v, want the deterministic key", store.deleted)
	}
}

func TestResolveDownloadWrapsUnavailable(t *testing.T) {
	m := newTestMaterializer(t, &fakeRenderer{err: errors.New("layout failed")}, nil)

	_, err := m.ResolveDownload(context.Background(), materializerBill())
	if err == nil {
		t.Fatal("expected error when pdf cannot be produced")
	}
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("error kind = %v, want unavailable", err)
	}
}
