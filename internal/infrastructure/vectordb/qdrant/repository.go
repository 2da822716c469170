// Package qdrant provides a NameIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
	"github.com/ersonp/fishreg/internal/infrastructure/config"
)

// pointNamespace seeds the deterministic point IDs derived from entity IDs.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ersonp/fishreg/name-index"))

// Payload keys.
const (
	payloadKind           = "kind"
	payloadEntityID       = "entity_id"
	payloadNormalizedName = "normalized_name"
	payloadState          = "state"
)

// Repository implements ports.NameIndex using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

var _ ports.NameIndex = (*Repository)(nil)

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.NameIndexConfig) (*Repository, error) {
	collection := config.SanitizeCollectionName(cfg.Collection)
	if collection == "" {
		return nil, errors.New("qdrant collection is required")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: collection,
		conn:       conn,
	}, nil
}

// apiKeyInterceptor attaches the Qdrant Cloud api-key header to every call.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Collection returns the name of the backing collection.
func (r *Repository) Collection() string {
	return r.collection
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all its points.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Upsert stores or replaces the entry for an entity.
func (r *Repository) Upsert(ctx context.Context, entry ports.NameIndexEntry) error {
	point := &pb.PointStruct{
		Id: pointID(entry.Kind, entry.EntityID),
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: entry.Vector,
				},
			},
		},
		Payload: map[string]*pb.Value{
			payloadKind:           {Kind: &pb.Value_StringValue{StringValue: string(entry.Kind)}},
			payloadEntityID:       {Kind: &pb.Value_StringValue{StringValue: entry.EntityID}},
			payloadNormalizedName: {Kind: &pb.Value_StringValue{StringValue: entry.NormalizedName}},
			payloadState:          {Kind: &pb.Value_StringValue{StringValue: entry.State}},
		},
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           pb.PtrOf(true),
		Points:         []*pb.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}

	return nil
}

// Search returns the IDs of the entities of one kind nearest to vector.
func (r *Repository) Search(ctx context.Context, kind entities.Kind, vector []float32, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter:         kindFilter(kind),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points by kind: %w", err)
	}

	ids := make([]string, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		if id := getStringValue(point.GetPayload(), payloadEntityID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes the entry for an entity.
func (r *Repository) Delete(ctx context.Context, kind entities.Kind, entityID string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Wait:           pb.PtrOf(true),
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{pointID(kind, entityID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}

	return nil
}

// pointID derives a stable Qdrant point ID, so re-indexing an entity replaces its point.
func pointID(kind entities.Kind, entityID string) *pb.PointId {
	id := uuid.NewSHA1(pointNamespace, []byte(string(kind)+":"+entityID))
	return &pb.PointId{
		PointIdOptions: &pb.PointId_Uuid{Uuid: id.String()},
	}
}

func kindFilter(kind entities.Kind) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: payloadKind,
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{
								Keyword: string(kind),
							},
						},
					},
				},
			},
		},
	}
}

// getStringValue extracts a string payload value.
func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
