// Package qdrant implements C2's VectorStore against a Qdrant collection.
package qdrant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"financebuddy/core/document"
	"financebuddy/core/embedding"
	"financebuddy/core/vectorstore"
	"financebuddy/core/vectorstore/filter"
)

const providerName = "Qdrant"

// payloadContentKey stores the document body in the point payload so a
// search result can be rehydrated without a second lookup.
const payloadContentKey = "__document_content__"

type Config struct {
	// Client is the Qdrant client. Required.
	Client *qdrant.Client

	// CollectionName is the target collection. Required.
	CollectionName string

	// InitializeSchema creates the collection on Initialize if it does not
	// already exist, sized from Embedder.Dimensions().
	InitializeSchema bool

	// Embedder generates the query vector for SearchSimilar. Required.
	Embedder embedding.Provider
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("qdrant: config is nil")
	}
	if c.Client == nil {
		return errors.New("qdrant: client is required")
	}
	if c.CollectionName == "" {
		return errors.New("qdrant: collection name is required")
	}
	if c.Embedder == nil {
		return errors.New("qdrant: embedder is required")
	}
	return nil
}

var _ vectorstore.VectorStore = (*Store)(nil)

type Store struct {
	client           *qdrant.Client
	embedder         embedding.Provider
	collectionName   string
	initializeSchema bool
}

func NewStore(cfg *Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Store{
		client:           cfg.Client,
		embedder:         cfg.Embedder,
		collectionName:   cfg.CollectionName,
		initializeSchema: cfg.InitializeSchema,
	}, nil
}

func (s *Store) Initialize(ctx context.Context) error {
	if !s.initializeSchema {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.embedder.Dimensions()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %s: %w", s.collectionName, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, docs []*document.Document) error {
	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("qdrant: document %s has no embedding", doc.ID)
		}
		point, err := s.buildPointStruct(doc)
		if err != nil {
			return err
		}
		points = append(points, point)
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to upsert %d points into %s: %w", len(points), s.collectionName, err)
	}
	return nil
}

// Fields of document.Document outside Metadata that must round-trip through
// the payload so SearchSimilar can filter on them (type, tags) and GetByID
// can rebuild the document exactly.
const (
	payloadTitleKey  = "title"
	payloadTypeKey   = "type"
	payloadSourceKey = "source"
	payloadTagsKey   = "tags"
)

func (s *Store) buildPointStruct(doc *document.Document) (*qdrant.PointStruct, error) {
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}

	payload, err := qdrant.TryValueMap(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to convert metadata for %s: %w", id, err)
	}

	tags := make([]any, len(doc.Tags))
	for i, t := range doc.Tags {
		tags[i] = t
	}
	extras := map[string]any{
		payloadTitleKey:   doc.Title,
		payloadTypeKey:    string(doc.Type),
		payloadSourceKey:  doc.Source,
		payloadTagsKey:    tags,
		payloadContentKey: doc.Content,
	}
	extraValues, err := qdrant.TryValueMap(extras)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to encode document fields for %s: %w", id, err)
	}
	for k, v := range extraValues {
		payload[k] = v
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewID(id),
		Vectors: qdrant.NewVectors(toFloat32(doc.Embedding)...),
		Payload: payload,
	}, nil
}

func (s *Store) SearchSimilar(ctx context.Context, query string, opts vectorstore.SearchOptions) ([]vectorstore.Scored, error) {
	opts.Normalize()

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to embed query: %w", err)
	}

	queryPoints := &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(toFloat32(vector)...),
		Limit:          ptrUint64(uint64(opts.Limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if opts.MinScore > 0 {
		// Qdrant scores cosine in [-1, 1]; map the [0, 1] floor back onto it.
		queryPoints.ScoreThreshold = ptrFloat32(float32(2*opts.MinScore - 1))
	}

	qf, err := buildSearchFilter(opts)
	if err != nil {
		return nil, err
	}
	queryPoints.Filter = qf

	scoredPoints, err := s.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to query %s: %w", s.collectionName, err)
	}

	results := make([]vectorstore.Scored, 0, len(scoredPoints))
	for _, p := range scoredPoints {
		doc, err := s.documentFromPayload(p.GetId().GetUuid(), p.GetPayload())
		if err != nil {
			return nil, err
		}
		results = append(results, vectorstore.Scored{Document: doc, Score: (float64(p.GetScore()) + 1) / 2})
	}
	return results, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*document.Document, error) {
	withVectors := true
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collectionName,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(withVectors),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to get point %s: %w", id, err)
	}
	if len(points) == 0 {
		return nil, vectorstore.ErrNotFound
	}

	doc, err := s.documentFromPayload(id, points[0].GetPayload())
	if err != nil {
		return nil, err
	}
	doc.Embedding = toFloat64(points[0].GetVectors().GetVector().GetData())
	return doc, nil
}

func (s *Store) documentFromPayload(id string, payload map[string]*qdrant.Value) (*document.Document, error) {
	doc := &document.Document{ID: id, Metadata: map[string]any{}}

	for key, value := range payload {
		switch key {
		case payloadContentKey:
			doc.Content = value.GetStringValue()
		case payloadTitleKey:
			doc.Title = value.GetStringValue()
		case payloadTypeKey:
			doc.Type = document.Type(value.GetStringValue())
		case payloadSourceKey:
			doc.Source = value.GetStringValue()
		case payloadTagsKey:
			for _, tv := range value.GetListValue().GetValues() {
				doc.Tags = append(doc.Tags, tv.GetStringValue())
			}
		default:
			doc.Metadata[key] = convertValue(value)
		}
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Points:         qdrant.NewPointsSelectorIDs([]*qdrant.PointId{qdrant.NewID(id)}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to delete point %s: %w", id, err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (vectorstore.Stats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("qdrant: failed to get collection info for %s: %w", s.collectionName, err)
	}

	count := 0
	if info.GetPointsCount() > 0 {
		count = int(info.GetPointsCount())
	}
	return vectorstore.Stats{Count: count, Name: s.collectionName}, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collectionName); err != nil {
		return fmt.Errorf("qdrant: failed to drop collection %s: %w", s.collectionName, err)
	}
	s.initializeSchema = true
	return s.Initialize(ctx)
}

// buildSearchFilter folds SearchOptions.TypeFilter/TagFilter/MetadataFilter
// into one conjunctive filter.Filter before handing it to ToFilter. Qdrant
// matches a keyword condition against an array payload field by membership,
// so each tag becomes its own Eq condition on "tags".
func buildSearchFilter(opts vectorstore.SearchOptions) (*qdrant.Filter, error) {
	var conditions []filter.Condition

	if len(opts.TypeFilter) > 0 {
		values := make([]any, len(opts.TypeFilter))
		for i, t := range opts.TypeFilter {
			values[i] = string(t)
		}
		conditions = append(conditions, filter.In("type", values))
	}

	for _, tag := range opts.TagFilter {
		conditions = append(conditions, filter.Eq("tags", tag))
	}

	if opts.MetadataFilter != nil {
		conditions = append(conditions, opts.MetadataFilter.Conditions...)
	}

	if len(conditions) == 0 {
		return nil, nil
	}
	return ToFilter(filter.New(conditions...))
}

func convertValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.Kind.(type) {
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func ptrUint64(v uint64) *uint64   { return &v }
func ptrFloat32(v float32) *float32 { return &v }
