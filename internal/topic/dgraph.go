package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/dgo/v230"
	"github.com/dgraph-io/dgo/v230/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DgraphGraphStore mirrors the topic graph into Dgraph so it can be explored with DQL
type DgraphGraphStore struct {
	client *dgo.Dgraph
	conn   *grpc.ClientConn
}

// NewDgraphGraphStore connects to a Dgraph alpha and installs the topic schema
func NewDgraphGraphStore(ctx context.Context, alphaURL string) (*DgraphGraphStore, error) {
	conn, err := grpc.Dial(alphaURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Dgraph: %w", err)
	}

	store := &DgraphGraphStore{
		client: dgo.NewDgraphClient(api.NewDgraphClient(conn)),
		conn:   conn,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *DgraphGraphStore) initSchema(ctx context.Context) error {
	schema := `
		type Topic {
			topic.name
			topic.description
			topic.priority
			topic.keywords
			related
		}

		topic.name: string @index(exact) @upsert .
		topic.description: string .
		topic.priority: float .
		topic.keywords: [string] @index(term) .
		related: [uid] @reverse .
	`
	return s.client.Alter(ctx, &api.Operation{Schema: schema})
}

type dgraphTopic struct {
	UID         string          `json:"uid"`
	Name        string          `json:"topic.name,omitempty"`
	Description string          `json:"topic.description,omitempty"`
	Priority    float64         `json:"topic.priority,omitempty"`
	Keywords    []string        `json:"topic.keywords,omitempty"`
	Related     []dgraphRelated `json:"related,omitempty"`
	DType       []string        `json:"dgraph.type,omitempty"`
}

type dgraphRelated struct {
	UID      string  `json:"uid,omitempty"`
	Name     string  `json:"topic.name,omitempty"`
	Strength float64 `json:"related|strength"`
	Kind     string  `json:"related|kind"`
}

func blankNode(name string) string {
	var b strings.Builder
	b.WriteString("_:")
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// graphMutation renders the registry and its graph as a Dgraph JSON mutation
func graphMutation(reg *Registry, g *Graph) ([]byte, error) {
	nodes := make([]dgraphTopic, 0, reg.Len())
	for _, t := range reg.All() {
		node := dgraphTopic{
			UID:         blankNode(t.Name()),
			Name:        t.Name(),
			Description: t.Description(),
			Priority:    t.Priority(),
			Keywords:    t.Keywords(),
			DType:       []string{"Topic"},
		}
		for _, e := range g.Related(t.Name(), 0) {
			node.Related = append(node.Related, dgraphRelated{
				UID:      blankNode(e.To),
				Strength: e.Strength,
				Kind:     e.Kind,
			})
		}
		nodes = append(nodes, node)
	}
	return json.Marshal(nodes)
}

// Sync replaces the mirrored graph with the current registry
func (s *DgraphGraphStore) Sync(ctx context.Context, reg *Registry, g *Graph) error {
	resp, err := s.client.NewReadOnlyTxn().Query(ctx, `{ topics(func: type(Topic)) { uid } }`)
	if err != nil {
		return fmt.Errorf("failed to query existing topics: %w", err)
	}

	var existing struct {
		Topics []struct {
			UID string `json:"uid"`
		} `json:"topics"`
	}
	if err := json.Unmarshal(resp.Json, &existing); err != nil {
		return fmt.Errorf("failed to decode existing topics: %w", err)
	}

	txn := s.client.NewTxn()
	defer txn.Discard(ctx)

	if len(existing.Topics) > 0 {
		del, err := json.Marshal(existing.Topics)
		if err != nil {
			return fmt.Errorf("failed to marshal delete: %w", err)
		}
		if _, err := txn.Mutate(ctx, &api.Mutation{DeleteJson: del}); err != nil {
			return fmt.Errorf("failed to delete existing topics: %w", err)
		}
	}

	set, err := graphMutation(reg, g)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	if _, err := txn.Mutate(ctx, &api.Mutation{SetJson: set}); err != nil {
		return fmt.Errorf("failed to store graph: %w", err)
	}

	return txn.Commit(ctx)
}

// Related queries the mirrored neighbours of a topic
func (s *DgraphGraphStore) Related(ctx context.Context, name string) ([]Edge, error) {
	query := `query related($name: string) {
		topics(func: eq(topic.name, $name)) {
			topic.name
			related @facets(strength, kind) {
				topic.name
			}
		}
	}`

	resp, err := s.client.NewReadOnlyTxn().QueryWithVars(ctx, query, map[string]string{"$name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to query related topics: %w", err)
	}

	var result struct {
		Topics []dgraphTopic `json:"topics"`
	}
	if err := json.Unmarshal(resp.Json, &result); err != nil {
		return nil, fmt.Errorf("failed to decode related topics: %w", err)
	}

	var edges []Edge
	for _, t := range result.Topics {
		for _, r := range t.Related {
			edges = append(edges, Edge{From: t.Name, To: r.Name, Kind: r.Kind, Strength: r.Strength})
		}
	}
	return edges, nil
}

// Close closes the gRPC connection
func (s *DgraphGraphStore) Close() error {
	return s.conn.Close()
}
