package nda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

type memoryBlobStore struct {
	objects map[string][]byte
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: make(map[string][]byte)}
}

func (m *memoryBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryBlobStore) DownloadURL(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) AgreementPDF(_ Document) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF agreement"), nil
}

func newTestService(t *testing.T, ids []string, renderer Renderer) (*Service, *memoryBlobStore, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:veridian_nda_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Agreement{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	blobs := newMemoryBlobStore()
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return time.Unix(1770000000, 0).UTC() },
		IDs:      &staticIDGenerator{ids: ids},
		Blobs:    blobs,
		Renderer: renderer,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service, blobs, db
}

func TestSignCreatesAgreementWithCurrentTerms(t *testing.T) {
	service, blobs, _ := newTestService(t, []string{"nda-1"}, stubRenderer{})

	agreement, reused, err := service.Sign(context.Background(), "signer-1", SignInput{
		SignerName:   "Jane Doe",
		Company:      "Acme Labs",
		Email:        "jane@example.com",
		SignaturePNG: []byte{0x89, 0x50, 0x4e, 0x47},
	})
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}
	if reused {
		t.Fatalf("first signature must not be a reuse")
	}
	if agreement.Status != StatusSigned {
		t.Fatalf("unexpected status %q", agreement.Status)
	}
	if agreement.TermsVersion != TermsVersion {
		t.Fatalf("unexpected terms version %q", agreement.TermsVersion)
	}
	if agreement.TermsHash != TermsHash() {
		t.Fatalf("unexpected terms hash %q", agreement.TermsHash)
	}
	if !agreement.HasSignature {
		t.Fatalf("expected signature flag to be recorded")
	}
	if agreement.PDFURL == "" {
		t.Fatalf("expected pdf url backfill")
	}
	if _, ok := blobs.objects["ndas/nda-1.pdf"]; !ok {
		t.Fatalf("agreement pdf was not uploaded")
	}
}

func TestSignReusesExistingSignedAgreement(t *testing.T) {
	service, _, db := newTestService(t, []string{"nda-1"}, stubRenderer{})
	ctx := context.Background()

	first, _, err := service.Sign(ctx, "signer-1", SignInput{
		SignerName: "Jane Doe",
		Email:      "jane@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}

	second, reused, err := service.Sign(ctx, "signer-1", SignInput{
		SignerName: "Someone Else",
		Email:      "other@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected re-sign error: %v", err)
	}
	if !reused {
		t.Fatalf("expected signed agreement to be reused")
	}
	if second.ID != first.ID {
		t.Fatalf("reuse returned a different agreement: %s then %s", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&Agreement{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count agreements: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single agreement row, got %d", count)
	}
}

func TestSignToleratesPDFBackfillFailure(t *testing.T) {
	service, _, _ := newTestService(t, []string{"nda-1"}, stubRenderer{err: errors.New("render broken")})

	agreement, _, err := service.Sign(context.Background(), "signer-1", SignInput{
		SignerName: "Jane Doe",
		Email:      "jane@example.com",
	})
	if err != nil {
		t.Fatalf("backfill failure must not fail the signature: %v", err)
	}
	if agreement.Status != StatusSigned {
		t.Fatalf("unexpected status %q", agreement.Status)
	}
	if agreement.PDFURL != "" {
		t.Fatalf("expected empty pdf url after failed backfill, got %q", agreement.PDFURL)
	}
}

func TestSignRequiresSignerIdentity(t *testing.T) {
	service, _, _ := newTestService(t, []string{"nda-1"}, stubRenderer{})
	ctx := context.Background()

	if _, _, err := service.Sign(ctx, "  ", SignInput{SignerName: "Jane"}); !errors.Is(err, ErrMissingSigner) {
		t.Fatalf("expected missing-signer error, got %v", err)
	}
	if _, _, err := service.Sign(ctx, "signer-1", SignInput{}); !errors.Is(err, ErrMissingSigner) {
		t.Fatalf("expected missing-name error, got %v", err)
	}
}

func TestForSignerNotFound(t *testing.T) {
	service, _, _ := newTestService(t, []string{"nda-1"}, stubRenderer{})

	if _, err := service.ForSigner(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
