package graph

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"go.uber.org/zap"

	"learninglog-backend/application/services"
	"learninglog-backend/domain/learninglog"
	"learninglog-backend/pkg/relay"
)

// Resolver holds the dependencies the schema resolvers need.
type Resolver struct {
	logs   *services.LogService
	logger *zap.Logger
}

// NewResolver creates the resolver set.
func NewResolver(logs *services.LogService, logger *zap.Logger) *Resolver {
	return &Resolver{logs: logs, logger: logger}
}

func toView(log *learninglog.Log) *LogView {
	if log == nil {
		return nil
	}
	return &LogView{
		ID:         relay.ToGlobalID(relay.NodeTypeLearningLog, log.ID),
		Title:      log.Title,
		Reflection: log.Reflection,
		Tags:       log.Tags,
		TimeSpent:  log.TimeSpent,
		SourceURL:  log.SourceURL,
		CreatedAt:  log.CreatedAtISO(),
	}
}

func (r *Resolver) resolveNode(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)

	log, err := r.logs.Node(p.Context, id)
	if err != nil {
		return nil, asWireError(err)
	}
	if log == nil {
		// Interface-typed nil needs to be a plain nil interface value.
		return nil, nil
	}
	return toView(log), nil
}

func (r *Resolver) resolveLearningLogs(p graphql.ResolveParams) (interface{}, error) {
	first, _ := p.Args["first"].(int)

	var after *string
	if v, ok := p.Args["after"].(string); ok {
		after = &v
	}

	filter := parseFilter(p.Args["filter"])

	result, err := r.logs.List(p.Context, first, after, filter)
	if err != nil {
		return nil, asWireError(err)
	}

	edges := make([]Edge, len(result.Items))
	for i := range result.Items {
		edges[i] = Edge{
			Node:   toView(&result.Items[i]),
			Cursor: relay.ToCursor(result.Items[i].ID),
		}
	}

	pageInfo := PageInfo{
		HasNextPage:     result.HasNextPage,
		HasPreviousPage: result.HasPreviousPage,
	}
	if len(edges) > 0 {
		pageInfo.StartCursor = &edges[0].Cursor
		pageInfo.EndCursor = &edges[len(edges)-1].Cursor
	}

	return &Connection{Edges: edges, PageInfo: pageInfo}, nil
}

func (r *Resolver) resolveCreate(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})

	in := learninglog.CreateInput{
		Title:      stringArg(input, "title"),
		Reflection: stringArg(input, "reflection"),
		Tags:       stringSliceArg(input, "tags"),
		TimeSpent:  intArg(input, "timeSpent"),
	}
	if v, ok := input["sourceUrl"].(string); ok {
		in.SourceURL = &v
	}

	log, err := r.logs.Create(p.Context, in)
	if err != nil {
		return nil, asWireError(err)
	}
	return &CreatePayload{Log: toView(log)}, nil
}

// inputKeys reports which keys of the "input" argument the caller actually
// supplied. The coerced map in p.Args has explicitly-null keys stripped by
// graphql-go, so presence is reconstructed from the argument AST: inline
// object literals list their field names directly, and a variable reference
// is resolved against the raw request variables stashed in the context.
func inputKeys(p graphql.ResolveParams) map[string]bool {
	keys := make(map[string]bool)
	if coerced, ok := p.Args["input"].(map[string]interface{}); ok {
		for k := range coerced {
			keys[k] = true
		}
	}

	rawVars, _ := p.Context.Value(rawVariablesKey).(map[string]interface{})
	for _, field := range p.Info.FieldASTs {
		for _, arg := range field.Arguments {
			if arg.Name == nil || arg.Name.Value != "input" {
				continue
			}
			switch value := arg.Value.(type) {
			case *ast.ObjectValue:
				for _, objField := range value.Fields {
					if objField.Name != nil {
						keys[objField.Name.Value] = true
					}
				}
			case *ast.Variable:
				if value.Name == nil {
					continue
				}
				if obj, ok := rawVars[value.Name.Value].(map[string]interface{}); ok {
					for k := range obj {
						keys[k] = true
					}
				}
			}
		}
	}
	return keys
}

// resolveUpdate treats key presence as the change signal: a key that is
// absent leaves the field untouched, while sourceUrl present with a null
// value clears the field. Other fields supplied as null coerce to their
// zero value and fail the per-field constraint.
func (r *Resolver) resolveUpdate(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})
	globalID := stringArg(input, "id")

	present := inputKeys(p)

	var in learninglog.UpdateInput
	if present["title"] {
		v := stringArg(input, "title")
		in.Title = &v
	}
	if present["reflection"] {
		v := stringArg(input, "reflection")
		in.Reflection = &v
	}
	if present["tags"] {
		v := stringSliceArg(input, "tags")
		in.Tags = &v
	}
	if present["timeSpent"] {
		v := intArg(input, "timeSpent")
		in.TimeSpent = &v
	}
	if present["sourceUrl"] {
		in.SourceURLSet = true
		if v, ok := input["sourceUrl"].(string); ok {
			in.SourceURL = &v
		}
	}

	log, err := r.logs.Update(p.Context, globalID, in)
	if err != nil {
		return nil, asWireError(err)
	}
	return &UpdatePayload{Log: toView(log)}, nil
}

func (r *Resolver) resolveDelete(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})

	deletedID, err := r.logs.Delete(p.Context, stringArg(input, "id"))
	if err != nil {
		return nil, asWireError(err)
	}
	return &DeletePayload{DeletedID: deletedID}, nil
}

func parseFilter(raw interface{}) *services.FilterInput {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	return &services.FilterInput{
		TagsAny: stringSliceArg(m, "tagsAny"),
		TagsAll: stringSliceArg(m, "tagsAll"),
		Q:       stringArg(m, "q"),
		From:    stringArg(m, "from"),
		To:      stringArg(m, "to"),
	}
}

func stringArg(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func intArg(m map[string]interface{}, key string) int {
	v, _ := m[key].(int)
	return v
}

func stringSliceArg(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
