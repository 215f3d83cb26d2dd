package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillhub/pkg/frontmatter"
	"github.com/jingkaihe/skillhub/pkg/logger"
	"github.com/jingkaihe/skillhub/pkg/store"
)

// errMergeConflict signals a lost compare-and-swap on the metadata document;
// the merge is re-run from a fresh read.
var errMergeConflict = errors.New("metadata write conflict")

const metadataMergeAttempts = 5

// Registry is the skill registry engine. It holds no in-process state beyond
// its configuration and is safe for concurrent use; every operation is an
// independent set of store calls.
type Registry struct {
	store          store.Store
	ids            IDGenerator
	maxContentSize int
	now            func() time.Time
}

// Option is a function that configures a Registry.
type Option func(*Registry) error

// WithIDGenerator sets the opaque id generation capability. Tests use this
// to supply deterministic ids.
func WithIDGenerator(ids IDGenerator) Option {
	return func(r *Registry) error {
		if ids == nil {
			return errors.New("id generator must not be nil")
		}
		r.ids = ids
		return nil
	}
}

// WithMaxContentSize sets the ceiling on skill content size in bytes.
func WithMaxContentSize(size int) Option {
	return func(r *Registry) error {
		if size <= 0 {
			return errors.New("max content size must be positive")
		}
		r.maxContentSize = size
		return nil
	}
}

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		r.now = now
		return nil
	}
}

// New creates a registry engine on top of the given store.
func New(s store.Store, opts ...Option) (*Registry, error) {
	if s == nil {
		return nil, errors.New("store must not be nil")
	}

	r := &Registry{
		store:          s,
		ids:            UUIDGenerator{},
		maxContentSize: DefaultMaxContentSize,
		now:            time.Now,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// PublishResult is returned from a successful publish.
type PublishResult struct {
	Namespace   string                   `json:"namespace"`
	Name        string                   `json:"name"`
	Version     string                   `json:"version"`
	Size        int64                    `json:"size"`
	Checksum    string                   `json:"checksum"`
	Frontmatter *frontmatter.Frontmatter `json:"frontmatter"`
}

// Content is a retrieved version blob together with the opaque identifiers
// external consumers (analytics) need for indexing. The engine always
// returns the ids alongside content, never content alone.
type Content struct {
	Content     []byte `json:"content"`
	SkillID     string `json:"skillId"`
	NamespaceID string `json:"namespaceId"`
}

// LatestContent is the resolved latest version of a skill with its content.
type LatestContent struct {
	Version     string `json:"version"`
	Content     []byte `json:"content"`
	SkillID     string `json:"skillId"`
	NamespaceID string `json:"namespaceId"`
}

// SkillRef identifies a skill across namespaces.
type SkillRef struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Publish stores a new immutable version of a skill. The caller must own the
// target namespace, the content must fit the configured ceiling, carry valid
// frontmatter whose name matches the name argument, and the (namespace,
// name, version) triple must not already exist.
func (r *Registry) Publish(ctx context.Context, namespace, name, version string, content []byte, caller Identity) (*PublishResult, error) {
	if caller.Namespace != namespace {
		return nil, forbiddenf("identity %q cannot publish to namespace %q", caller.Namespace, namespace)
	}
	if !ValidNamespace(namespace) {
		return nil, invalidf("invalid namespace: %q", namespace)
	}
	if !ValidSkillName(name) {
		return nil, invalidf("invalid skill name: %q", name)
	}
	if _, ok := parseSemver(version); !ok {
		return nil, invalidf("invalid semantic version: %q", version)
	}
	if len(content) > r.maxContentSize {
		return nil, invalidf("content size %d exceeds the %d byte limit", len(content), r.maxContentSize)
	}

	fm, err := frontmatter.Parse(string(content))
	if err != nil {
		return nil, wrapError(KindInvalidInput, err, "invalid frontmatter")
	}
	if fm.Name != name {
		return nil, invalidf("frontmatter name %q does not match skill name %q", fm.Name, name)
	}

	// The immutability check and the content write are one atomic store
	// operation, so concurrent publishers of the same triple race cleanly.
	created, err := r.store.PutIfAbsent(ctx, versionKey(namespace, name, version), content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to write version content")
	}
	if !created {
		return nil, newErrorf(KindVersionAlreadyExists, "version %s of @%s/%s already exists", version, namespace, name)
	}

	sum := sha256.Sum256(content)
	info := VersionInfo{
		Created:  r.now().UTC(),
		Size:     int64(len(content)),
		Checksum: "sha256:" + hex.EncodeToString(sum[:]),
	}

	if err := r.mergeVersion(ctx, namespace, name, version, info); err != nil {
		return nil, err
	}

	logger.G(ctx).WithFields(map[string]any{
		"namespace": namespace,
		"skill":     name,
		"version":   version,
		"size":      info.Size,
	}).Debug("published skill version")

	return &PublishResult{
		Namespace:   namespace,
		Name:        name,
		Version:     version,
		Size:        info.Size,
		Checksum:    info.Checksum,
		Frontmatter: fm,
	}, nil
}

// mergeVersion folds a freshly written version into the skill metadata
// document and recomputes the latest pointer. On stores with conditional
// writes the read-merge-write is retried on conflict; otherwise the write is
// last-writer-wins, which can drop a concurrently merged version from the
// map even though its content write succeeded (single-writer-per-skill is
// the expected access pattern).
func (r *Registry) mergeVersion(ctx context.Context, namespace, name, version string, info VersionInfo) error {
	cond, conditional := r.store.(store.ConditionalStore)

	merge := func() error {
		key := metadataKey(namespace, name)
		raw, found, err := r.store.Get(ctx, key)
		if err != nil {
			return errors.Wrap(err, "failed to load skill metadata")
		}

		now := r.now().UTC()
		var meta *SkillMetadata
		if !found {
			profile, err := r.ensureProfile(ctx, namespace)
			if err != nil {
				return err
			}
			meta = &SkillMetadata{
				ID:          r.ids.NewID(),
				NamespaceID: profile.ID,
				Namespace:   namespace,
				Name:        name,
				Created:     now,
				Versions:    map[string]VersionInfo{},
			}
		} else {
			meta = &SkillMetadata{}
			if err := json.Unmarshal(raw, meta); err != nil {
				return wrapError(KindCorruptStorageData, err, "failed to decode skill metadata")
			}
			if err := validateSkillMetadata(meta); err != nil {
				return err
			}
		}

		meta.Versions[version] = info
		meta.Updated = now
		meta.Latest = nil
		if latest := resolveLatest(versionKeys(meta.Versions)); latest != "" {
			meta.Latest = &latest
		}

		data, err := json.Marshal(meta)
		if err != nil {
			return errors.Wrap(err, "failed to encode skill metadata")
		}

		if conditional {
			var expected []byte
			if found {
				expected = raw
			}
			swapped, err := cond.PutIfMatch(ctx, key, data, expected)
			if err != nil {
				return errors.Wrap(err, "failed to write skill metadata")
			}
			if !swapped {
				return errMergeConflict
			}
			return nil
		}

		return errors.Wrap(r.store.Put(ctx, key, data), "failed to write skill metadata")
	}

	err := retry.Do(merge,
		retry.Attempts(metadataMergeAttempts),
		retry.Delay(10*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errMergeConflict)
		}),
	)
	return errors.Wrap(err, "failed to merge version into skill metadata")
}

// ensureProfile resolves the namespace's profile, creating a bare one with a
// fresh opaque id on first touch. Creation goes through PutIfAbsent so two
// concurrent first publishers agree on a single namespace id.
func (r *Registry) ensureProfile(ctx context.Context, namespace string) (*UserProfile, error) {
	key := profileKey(namespace)

	load := func() (*UserProfile, bool, error) {
		raw, found, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to load user profile")
		}
		if !found {
			return nil, false, nil
		}

		profile := &UserProfile{}
		if err := json.Unmarshal(raw, profile); err != nil {
			return nil, false, wrapError(KindCorruptStorageData, err, "failed to decode user profile")
		}
		if err := validateUserProfile(profile); err != nil {
			return nil, false, err
		}
		return profile, true, nil
	}

	profile, found, err := load()
	if err != nil || found {
		return profile, err
	}

	now := r.now().UTC()
	profile = &UserProfile{
		ID:        r.ids.NewID(),
		Namespace: namespace,
		Created:   now,
		Updated:   now,
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode user profile")
	}

	created, err := r.store.PutIfAbsent(ctx, key, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user profile")
	}
	if created {
		return profile, nil
	}

	// Lost the creation race; the winner's profile is authoritative.
	profile, found, err = load()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, corruptf("user profile for %q vanished after creation race", namespace)
	}
	return profile, nil
}

// GetContent returns the raw content of one version together with the
// skill's opaque identifiers. Absence of either the metadata or the content
// is reported as not-found; callers need not distinguish the two.
func (r *Registry) GetContent(ctx context.Context, namespace, name, version string) (*Content, error) {
	meta, err := r.loadMetadata(ctx, namespace, name)
	if err != nil {
		return nil, err
	}

	raw, found, err := r.store.Get(ctx, versionKey(namespace, name, version))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load version content")
	}
	if !found {
		return nil, notFoundf("version %s of @%s/%s not found", version, namespace, name)
	}

	return &Content{
		Content:     raw,
		SkillID:     meta.ID,
		NamespaceID: meta.NamespaceID,
	}, nil
}

// GetMetadata returns the schema-validated metadata document for a skill.
func (r *Registry) GetMetadata(ctx context.Context, namespace, name string) (*SkillMetadata, error) {
	return r.loadMetadata(ctx, namespace, name)
}

// GetLatest resolves the skill's latest pointer and returns that version's
// content. Metadata referencing a version whose content is missing is an
// internal consistency violation, reported as corrupt storage data rather
// than not-found.
func (r *Registry) GetLatest(ctx context.Context, namespace, name string) (*LatestContent, error) {
	meta, err := r.loadMetadata(ctx, namespace, name)
	if err != nil {
		return nil, err
	}
	if meta.Latest == nil {
		return nil, notFoundf("@%s/%s has no published versions", namespace, name)
	}
	latest := *meta.Latest

	raw, found, err := r.store.Get(ctx, versionKey(namespace, name, latest))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load version content")
	}
	if !found {
		return nil, corruptf("metadata for @%s/%s references version %s but its content is missing", namespace, name, latest)
	}

	return &LatestContent{
		Version:     latest,
		Content:     raw,
		SkillID:     meta.ID,
		NamespaceID: meta.NamespaceID,
	}, nil
}

// ListVersions returns all published versions of a skill, newest first. A
// skill with no metadata yields an empty list, not an error.
func (r *Registry) ListVersions(ctx context.Context, namespace, name string) ([]string, error) {
	meta, err := r.loadMetadata(ctx, namespace, name)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	versions := versionKeys(meta.Versions)
	sortVersions(versions)
	return versions, nil
}

// ListSkillsInNamespace returns the names of all skills in a namespace,
// sorted.
func (r *Registry) ListSkillsInNamespace(ctx context.Context, namespace string) ([]string, error) {
	keys, err := r.store.List(ctx, skillsPrefix+namespace+"/")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list store keys")
	}

	names := make([]string, 0)
	for _, key := range keys {
		if _, name, ok := parseMetadataKey(key); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListSkills returns every (namespace, name) pair in the registry, sorted by
// namespace then name.
func (r *Registry) ListSkills(ctx context.Context) ([]SkillRef, error) {
	keys, err := r.store.List(ctx, skillsPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list store keys")
	}

	refs := make([]SkillRef, 0)
	for _, key := range keys {
		if namespace, name, ok := parseMetadataKey(key); ok {
			refs = append(refs, SkillRef{Namespace: namespace, Name: name})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Namespace != refs[j].Namespace {
			return refs[i].Namespace < refs[j].Namespace
		}
		return refs[i].Name < refs[j].Name
	})
	return refs, nil
}

// GetProfile returns the schema-validated profile document for a namespace.
func (r *Registry) GetProfile(ctx context.Context, namespace string) (*UserProfile, error) {
	raw, found, err := r.store.Get(ctx, profileKey(namespace))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user profile")
	}
	if !found {
		return nil, notFoundf("profile for namespace %q not found", namespace)
	}

	profile := &UserProfile{}
	if err := json.Unmarshal(raw, profile); err != nil {
		return nil, wrapError(KindCorruptStorageData, err, "failed to decode user profile")
	}
	if err := validateUserProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile applies a partial update to the namespace's profile,
// creating it with a fresh opaque id on first touch. Unset fields keep
// their previous value; id and created are preserved across updates.
func (r *Registry) UpdateProfile(ctx context.Context, namespace string, update ProfileUpdate, caller Identity) (*UserProfile, error) {
	if caller.Namespace != namespace {
		return nil, forbiddenf("identity %q cannot update profile of namespace %q", caller.Namespace, namespace)
	}
	if !ValidNamespace(namespace) {
		return nil, invalidf("invalid namespace: %q", namespace)
	}

	profile, err := r.ensureProfile(ctx, namespace)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		profile.DisplayName = *update.DisplayName
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}
	if update.Website != nil {
		profile.Website = *update.Website
	}
	profile.Updated = r.now().UTC()

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode user profile")
	}
	if err := r.store.Put(ctx, profileKey(namespace), data); err != nil {
		return nil, errors.Wrap(err, "failed to write user profile")
	}
	return profile, nil
}

func (r *Registry) loadMetadata(ctx context.Context, namespace, name string) (*SkillMetadata, error) {
	raw, found, err := r.store.Get(ctx, metadataKey(namespace, name))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load skill metadata")
	}
	if !found {
		return nil, notFoundf("skill @%s/%s not found", namespace, name)
	}

	meta := &SkillMetadata{}
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, wrapError(KindCorruptStorageData, err, "failed to decode skill metadata")
	}
	if err := validateSkillMetadata(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func versionKeys(versions map[string]VersionInfo) []string {
	keys := make([]string, 0, len(versions))
	for version := range versions {
		keys = append(keys, version)
	}
	return keys
}
