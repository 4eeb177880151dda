package memstore

import (
	"bytes"
	"cmp"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
)

var (
	_ core.AdminRepository  = (*AdminRepo)(nil)
	_ core.AssetStore       = (*AssetStore)(nil)
	_ core.DraftRepository  = (*DraftStore)(nil)
	_ core.OrphanRepository = (*OrphanRepo)(nil)
)

// AdminRepo keeps admin flags in memory.
type AdminRepo struct {
	mu    sync.RWMutex
	flags map[string]model.AdminFlag
}

// NewAdminRepo creates an empty AdminRepo.
func NewAdminRepo() *AdminRepo {
	return &AdminRepo{flags: make(map[string]model.AdminFlag)}
}

func (r *AdminRepo) Get(_ context.Context, uid string) (*model.AdminFlag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flags[uid]
	if !ok {
		return nil, apperrors.NotFoundf("admin flag %s not found", uid)
	}
	return &f, nil
}

func (r *AdminRepo) Grant(_ context.Context, flag model.AdminFlag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	flag.IsAdmin = true
	r.flags[flag.UserID] = flag
	return nil
}

func (r *AdminRepo) Revoke(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flags, uid)
	return nil
}

func (r *AdminRepo) List(_ context.Context) ([]model.AdminFlag, error) {
	r.mu.RLock()
	out := make([]model.AdminFlag, 0, len(r.flags))
	for _, f := range r.flags {
		out = append(out, f)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.AdminFlag) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, nil
}

type storedObject struct {
	contentType string
	data        []byte
}

// AssetStore keeps uploaded objects in memory and records every delete attempt.
type AssetStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]storedObject
	deletes []string
}

// NewAssetStore creates an AssetStore whose URLs are baseURL + "/" + path.
func NewAssetStore(baseURL string) *AssetStore {
	return &AssetStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]storedObject),
	}
}

func (s *AssetStore) Put(_ context.Context, params core.PutAssetParams) (model.Asset, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return model.Asset{}, err
	}
	s.mu.Lock()
	s.objects[params.Path] = storedObject{contentType: params.ContentType, data: data}
	s.mu.Unlock()
	return model.Asset{Path: params.Path, URL: s.baseURL + "/" + params.Path}, nil
}

func (s *AssetStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, path)
	delete(s.objects, path)
	return nil
}

// Has reports whether an object exists at path.
func (s *AssetStore) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

// Open returns the stored bytes at path.
func (s *AssetStore) Open(path string) (io.Reader, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, "", false
	}
	return bytes.NewReader(obj.data), obj.contentType, true
}

// DeleteAttempts returns every path passed to Delete, in call order.
func (s *AssetStore) DeleteAttempts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deletes)
}

// DraftStore keeps registration drafts in memory with an expiry.
type DraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[string]draftEntry
}

type draftEntry struct {
	draft     model.RegistrationDraft
	expiresAt time.Time
}

// NewDraftStore creates a DraftStore; a zero ttl keeps drafts forever.
func NewDraftStore(ttl time.Duration) *DraftStore {
	return &DraftStore{ttl: ttl, now: time.Now, drafts: make(map[string]draftEntry)}
}

func (s *DraftStore) Get(_ context.Context, draftID string) (*model.RegistrationDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.drafts[draftID]
	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		delete(s.drafts, draftID)
		return nil, apperrors.NotFound("draft not found")
	}
	d := e.draft
	return &d, nil
}

func (s *DraftStore) Save(_ context.Context, draftID string, draft model.RegistrationDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := draftEntry{draft: draft}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.drafts[draftID] = e
	return nil
}

func (s *DraftStore) Delete(_ context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftID)
	return nil
}

// OrphanRepo is an in-memory orphan ledger.
type OrphanRepo struct {
	mu      sync.Mutex
	orphans []model.Orphan
}

// NewOrphanRepo creates an empty OrphanRepo.
func NewOrphanRepo() *OrphanRepo { return &OrphanRepo{} }

func (r *OrphanRepo) Record(_ context.Context, orphan *model.Orphan) error {
	if !orphan.Kind.Valid() {
		return apperrors.ValidationField("kind", "invalid orphan kind")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if orphan.ID == "" {
		orphan.ID = uuid.NewString()
	}
	if orphan.CreatedAt.IsZero() {
		orphan.CreatedAt = time.Now().UTC()
	}
	r.orphans = append(r.orphans, *orphan)
	return nil
}

func (r *OrphanRepo) List(_ context.Context, opts model.OrphanListOptions) ([]model.Orphan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Orphan, 0, len(r.orphans))
	for i := len(r.orphans) - 1; i >= 0; i-- {
		o := r.orphans[i]
		if o.Resolved() && !opts.IncludeResolved {
			continue
		}
		out = append(out, o)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (r *OrphanRepo) Resolve(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orphans {
		if r.orphans[i].ID == id {
			if r.orphans[i].ResolvedAt == nil {
				t := at
				r.orphans[i].ResolvedAt = &t
			}
			return nil
		}
	}
	return apperrors.NotFoundf("orphan %s not found", id)
}
