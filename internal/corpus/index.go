package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vicoder007/Vekta/internal/entity"
	"github.com/Vicoder007/Vekta/internal/vocab"
	"github.com/Vicoder007/Vekta/pkg/provider/embeddings"
)

// DefaultEmbedTimeout bounds the embedding half of a hybrid search. A query
// that cannot be embedded within this window is scored lexically only.
const DefaultEmbedTimeout = 100 * time.Millisecond

// DefaultSimilarityFloor is the minimum similarity for a match to count.
const DefaultSimilarityFloor = 0.15

// embedBatchSize is the number of entry texts sent per provider call when
// building a snapshot.
const embedBatchSize = 16

// Snapshot is an immutable view of the corpus. Build one with
// [Index.BuildSnapshot] and install it with [Index.Load].
type Snapshot struct {
	Entries []Entry
	ModelID string
}

// Index performs similarity search over the current corpus snapshot.
// Search and Load may be called concurrently.
type Index struct {
	tables       *vocab.Tables
	provider     embeddings.Provider
	embedTimeout time.Duration
	floor        float64
	logger       *slog.Logger

	snap atomic.Pointer[Snapshot]
}

// Option configures an Index.
type Option func(*Index)

// WithProvider enables the embedding half of hybrid search.
func WithProvider(p embeddings.Provider) Option {
	return func(ix *Index) { ix.provider = p }
}

// WithEmbedTimeout overrides DefaultEmbedTimeout.
func WithEmbedTimeout(d time.Duration) Option {
	return func(ix *Index) {
		if d > 0 {
			ix.embedTimeout = d
		}
	}
}

// WithSimilarityFloor overrides DefaultSimilarityFloor.
func WithSimilarityFloor(f float64) Option {
	return func(ix *Index) {
		if f >= 0 {
			ix.floor = f
		}
	}
}

// WithLogger sets the logger used for degradation notices.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// New returns an empty Index. Load a snapshot before searching. When tables
// is nil the default language tables are used.
func New(tables *vocab.Tables, opts ...Option) *Index {
	if tables == nil {
		tables = vocab.Defaults()
	}
	ix := &Index{
		tables:       tables,
		embedTimeout: DefaultEmbedTimeout,
		floor:        DefaultSimilarityFloor,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Load installs snap as the current snapshot. Passing nil clears the index.
func (ix *Index) Load(snap *Snapshot) {
	ix.snap.Store(snap)
}

// Len returns the number of entries in the current snapshot.
func (ix *Index) Len() int {
	snap := ix.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Entries)
}

// BuildSnapshot embeds every entry text and returns an installable snapshot.
// Without a provider the snapshot is lexical-only. Entry slices are copied;
// the caller keeps ownership of entries.
func (ix *Index) BuildSnapshot(ctx context.Context, entries []Entry) (*Snapshot, error) {
	snap := &Snapshot{Entries: make([]Entry, len(entries))}
	copy(snap.Entries, entries)

	if ix.provider == nil {
		return snap, nil
	}
	snap.ModelID = ix.provider.ModelID()

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(snap.Entries); start += embedBatchSize {
		end := min(start+embedBatchSize, len(snap.Entries))
		batch := snap.Entries[start:end]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, e := range batch {
				texts[i] = e.Text
			}
			vecs, err := ix.provider.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("corpus: embed batch: %w", err)
			}
			for i := range batch {
				batch[i].Embedding = vecs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Search returns up to maxResults entries most similar to query, best first,
// excluding anything below the similarity floor. stepHint is the segment
// count of the structure extracted so far (0 when unknown); entries whose
// segment count is closer to it win ties. Returns ErrUnavailable when no
// snapshot is loaded.
func (ix *Index) Search(ctx context.Context, query string, stepHint, maxResults int) ([]Match, error) {
	snap := ix.snap.Load()
	if snap == nil || len(snap.Entries) == 0 {
		return nil, ErrUnavailable
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	queryVec := ix.embedQuery(ctx, query)
	queryTokens := ix.expandTokens(query)
	queryMinutes := totalMinutes(query)

	matches := make([]Match, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		lex := ix.lexicalScore(query, queryTokens, queryMinutes, e)

		sim := lex
		if queryVec != nil && len(e.Embedding) > 0 {
			cos := embeddings.CosineSimilarity(queryVec, e.Embedding)
			if cos < 0 {
				cos = 0
			}
			sim = 0.5*lex + 0.5*cos
		}
		if sim < ix.floor {
			continue
		}
		matches = append(matches, Match{Entry: e, Similarity: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		// Equal similarity: prefer the session structurally closest to what
		// was already extracted.
		return structDistance(matches[i].Entry, stepHint) < structDistance(matches[j].Entry, stepHint)
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// Enrich fills the kinds absent from set using the matched entry, stamping
// each filled value with corpus origin and the match similarity. Direct
// values are never overwritten. It reports whether anything was filled.
func Enrich(set entity.Set, m Match) bool {
	filled := false
	if m.Entry.DurationMinutes > 0 {
		filled = set.Fill(entity.KindDuration, m.Similarity, entity.Value{
			Seconds: m.Entry.DurationMinutes * 60,
		}) || filled
	}
	if m.Entry.Zone != "" {
		filled = set.Fill(entity.KindIntensity, m.Similarity, entity.Value{
			Zone: m.Entry.Zone,
		}) || filled
	}
	if shape := shapeOfComplexity(m.Entry.Complexity); shape != "" {
		filled = set.Fill(entity.KindStructure, m.Similarity, entity.Value{
			Shape: shape,
		}) || filled
	}
	return filled
}

// structDistance measures how far an entry's segment count is from the
// steps extracted so far. Without a hint the entry's own count is the
// distance, so a query with no structure ties toward simpler sessions.
func structDistance(e Entry, stepHint int) int {
	if stepHint <= 0 {
		return e.Segments
	}
	return abs(e.Segments - stepHint)
}

func shapeOfComplexity(c string) string {
	switch c {
	case "complete":
		return "intervals"
	case "complex":
		return "nested"
	case "simple":
		return "continuous"
	}
	return ""
}

// embedQuery returns the query vector, or nil when no provider is configured
// or embedding did not finish inside the deadline.
func (ix *Index) embedQuery(ctx context.Context, query string) []float32 {
	if ix.provider == nil {
		return nil
	}
	ectx, cancel := context.WithTimeout(ctx, ix.embedTimeout)
	defer cancel()
	vec, err := ix.provider.Embed(ectx, query)
	if err != nil {
		ix.logger.Warn("corpus: embedding unavailable, lexical search only", "error", err)
		return nil
	}
	return vec
}

// keyTerms are domain words whose co-occurrence in query and entry is worth
// more than ordinary token overlap.
var keyTerms = []string{"vo2", "max", "seuil", "tempo", "echauffement", "series", "set"}

// lexicalScore is synonym-expanded Jaccard similarity with bonuses for key
// term matches, fully structured sessions and comparable total duration.
func (ix *Index) lexicalScore(query string, queryTokens map[string]struct{}, queryMinutes int, e Entry) float64 {
	entryTokens := ix.expandTokens(e.Text)

	inter, union := 0, len(entryTokens)
	for tok := range queryTokens {
		if _, ok := entryTokens[tok]; ok {
			inter++
		} else {
			union++
		}
	}
	score := 0.0
	if union > 0 {
		score = float64(inter) / float64(union)
	}

	lq, le := strings.ToLower(query), strings.ToLower(e.Text)
	for _, term := range keyTerms {
		if strings.Contains(lq, term) && strings.Contains(le, term) {
			score += 0.15
		}
	}
	if e.Complexity == "complete" {
		score += 0.1
	}
	if queryMinutes > 0 && abs(queryMinutes-e.DurationMinutes) <= 10 {
		score += 0.05
	}
	return min(score, 1.0)
}

// expandTokens tokenizes text and adds the synonym group of every canonical
// term present, so "seuil" queries still reach "tempo" entries.
func (ix *Index) expandTokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		tokens[tok] = struct{}{}
	}
	for term, syns := range ix.tables.Synonyms {
		if _, ok := tokens[term]; !ok {
			continue
		}
		for _, s := range syns {
			tokens[s] = struct{}{}
		}
	}
	return tokens
}

var reWord = regexp.MustCompile(`[\p{L}\d]+`)

func tokenize(text string) []string {
	return reWord.FindAllString(strings.ToLower(text), -1)
}

var reMinutes = regexp.MustCompile(`(\d+)\s*(?:min|minute)`)

// totalMinutes sums every minute figure mentioned in the text, which
// approximates session length closely enough for a proximity bonus.
func totalMinutes(text string) int {
	total := 0
	for _, m := range reMinutes.FindAllStringSubmatch(strings.ToLower(text), -1) {
		n, _ := strconv.Atoi(m[1])
		total += n
	}
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
