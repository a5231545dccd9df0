// Package search maintains an in-memory full-text index over the
// shared collections: memories, places, recipes, movies and tracks.
// The index is rebuilt from the repository whenever one of those
// collections changes.
package search

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database"
)

// Document is what gets indexed per item.
type Document struct {
	// ID of the item within its collection.
	ID string `json:"id"`
	// Collection the item belongs to: memories, places, recipes,
	// movies or tracks.
	Collection string `json:"collection"`
	Name       string `json:"name"`
	// NameExact makes exact name matches score on top.
	NameExact string `json:"name_exact"`
	// Body holds secondary text: details, notes, artist.
	Body string `json:"body"`
}

// Hit is one search result. Only identity is returned; callers fetch
// the item from its collection.
type Hit struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// Options to pass to the search index.
type Options struct {
	Repo *database.Repository
	// Feed triggers reindexing on data changes. Optional.
	Feed *changefeed.Feed
}

// Search is the bleve-backed index.
type Search struct {
	repo *database.Repository
	feed *changefeed.Feed

	mu    sync.RWMutex
	index bleve.Index
}

// New creates an empty in-memory index. Call Rebuild or Start to
// populate it.
func New(o *Options) (*Search, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Search{
		repo:  o.Repo,
		feed:  o.Feed,
		index: idx,
	}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "en"
	text.Store = false
	text.Index = true

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true

	doc.AddFieldMappingsAt("id", keyword)
	doc.AddFieldMappingsAt("collection", keyword)
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("name_exact", keyword)
	doc.AddFieldMappingsAt("body", text)

	m.DefaultMapping = doc
	return m
}

// Start populates the index and keeps it current by rebuilding after
// change-feed events for the indexed collections. Stops when ctx is
// cancelled.
func (s *Search) Start(ctx context.Context) {
	if err := s.Rebuild(ctx); err != nil {
		log.Printf("search: initial index build: %s", err)
	}
	if s.feed == nil {
		return
	}
	go s.feedLoop(ctx)
}

var indexedTables = map[changefeed.Table]bool{
	changefeed.TableMemories: true,
	changefeed.TablePlaces:   true,
	changefeed.TableRecipes:  true,
	changefeed.TableMovies:   true,
	changefeed.TableTracks:   true,
}

func (s *Search) feedLoop(ctx context.Context) {
	events, cancel := s.feed.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !indexedTables[ev.Table] {
				continue
			}
			// coalesce bursts into one rebuild
			timer := time.NewTimer(time.Second)
		drain:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-events:
				case <-timer.C:
					break drain
				}
			}
			if err := s.Rebuild(ctx); err != nil {
				log.Printf("search: rebuilding index: %s", err)
			}
		}
	}
}

// Rebuild reindexes all collections from scratch and atomically swaps
// the new index in.
func (s *Search) Rebuild(ctx context.Context) error {
	docs, err := s.collectDocuments(ctx)
	if err != nil {
		return err
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return err
	}
	batch := idx.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.Collection+"/"+d.ID, d); err != nil {
			return err
		}
		if batch.Size() > 1000 {
			if err := idx.Batch(batch); err != nil {
				return err
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return err
		}
	}

	s.mu.Lock()
	old := s.index
	s.index = idx
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func (s *Search) collectDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document

	memories, err := s.repo.Memories.ListMemories(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range memories {
		docs = append(docs, newDocument("memories", m.ID, m.Title, m.Details))
	}

	places, err := s.repo.Places.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range places {
		docs = append(docs, newDocument("places", p.ID, p.Name, p.Details))
	}

	recipes, err := s.repo.Recipes.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range recipes {
		docs = append(docs, newDocument("recipes", r.ID, r.Title, r.Notes))
	}

	movies, err := s.repo.Movies.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range movies {
		docs = append(docs, newDocument("movies", m.ID, m.Title, m.Notes))
	}

	tracks, err := s.repo.Tracks.ListTracks(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tracks {
		docs = append(docs, newDocument("tracks", t.ID, t.Title, t.Artist))
	}

	return docs, nil
}

func newDocument(collection, id, name, body string) Document {
	return Document{
		ID:         id,
		Collection: collection,
		Name:       name,
		NameExact:  strings.ToLower(name),
		Body:       body,
	}
}

// Search runs a fuzzy search across all collections and returns the
// best matches, highest score first.
func (s *Search) Search(ctx context.Context, searchTerm string, size int) ([]Hit, error) {
	searchTerm = strings.ToLower(strings.TrimSpace(searchTerm))
	if searchTerm == "" {
		return nil, nil
	}

	// Boosts per query type. Exact name matches must come out on top,
	// body matches are fallback.
	const (
		boostNameExact  = 50.0
		boostNamePhrase = 12.0
		boostNamePrefix = 6.0
		boostNameToken  = 3.0
		boostBody       = 1.0
	)

	boolQuery := bleve.NewBooleanQuery()

	termExact := bleve.NewTermQuery(searchTerm)
	termExact.SetField("name_exact")
	termExact.SetBoost(boostNameExact)
	boolQuery.AddShould(termExact)

	matchPhrase := bleve.NewMatchPhraseQuery(searchTerm)
	matchPhrase.SetField("name")
	matchPhrase.SetBoost(boostNamePhrase)
	boolQuery.AddShould(matchPhrase)

	prefixFull := bleve.NewPrefixQuery(searchTerm)
	prefixFull.SetField("name")
	prefixFull.SetBoost(boostNamePrefix)
	boolQuery.AddShould(prefixFull)

	for _, tok := range strings.Fields(searchTerm) {
		fuzz := 1
		if len(tok) >= 6 {
			fuzz = 2
		}
		for _, f := range []string{"name", "body"} {
			boost := boostBody
			if f == "name" {
				boost = boostNameToken
			}

			fq := bleve.NewFuzzyQuery(tok)
			fq.SetField(f)
			fq.SetFuzziness(fuzz)
			fq.SetBoost(boost)
			boolQuery.AddShould(fq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f)
			pq.SetBoost(boost)
			boolQuery.AddShould(pq)
		}
	}
	boolQuery.SetMinShould(1)

	req := bleve.NewSearchRequestOptions(boolQuery, size, 0, false)
	req.Fields = []string{"id", "collection"}
	req.SortBy([]string{"-_score"})

	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, h := range res.Hits {
		hit := Hit{}
		if v, ok := h.Fields["id"].(string); ok {
			hit.ID = v
		}
		if v, ok := h.Fields["collection"].(string); ok {
			hit.Collection = v
		}
		if hit.ID != "" {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// Close releases the underlying index.
func (s *Search) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
