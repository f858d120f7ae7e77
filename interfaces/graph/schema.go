// Package graph exposes the learning-log operations over GraphQL: the
// node lookup, the cursor-paginated learningLogs connection and the
// three mutations. The schema is constructed at startup; resolvers
// delegate to the application services.
package graph

import (
	"github.com/graphql-go/graphql"
)

// LogView is the entity wire shape. createdAt is the ISO-8601 string
// with millisecond precision, id the opaque global id.
type LogView struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Reflection string   `json:"reflection"`
	Tags       []string `json:"tags"`
	TimeSpent  int      `json:"timeSpent"`
	SourceURL  *string  `json:"sourceUrl"`
	CreatedAt  string   `json:"createdAt"`
}

// Edge pairs a node with its opaque cursor.
type Edge struct {
	Node   *LogView `json:"node"`
	Cursor string   `json:"cursor"`
}

// PageInfo is the connection's pagination summary.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// Connection is one resolved page of the learningLogs query.
type Connection struct {
	Edges    []Edge   `json:"edges"`
	PageInfo PageInfo `json:"pageInfo"`
}

// CreatePayload wraps the created entity.
type CreatePayload struct {
	Log *LogView `json:"log"`
}

// UpdatePayload wraps the updated entity.
type UpdatePayload struct {
	Log *LogView `json:"log"`
}

// DeletePayload confirms a deletion with the original global id.
type DeletePayload struct {
	DeletedID string `json:"deletedId"`
}

// NewSchema builds the executable schema around the resolver.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	nodeInterface := graphql.NewInterface(graphql.InterfaceConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	learningLogType := graphql.NewObject(graphql.ObjectConfig{
		Name:       "LearningLog",
		Interfaces: []*graphql.Interface{nodeInterface},
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"reflection": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"tags":       &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
			"timeSpent":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"sourceUrl":  &graphql.Field{Type: graphql.String},
			"createdAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	nodeInterface.ResolveType = func(p graphql.ResolveTypeParams) *graphql.Object {
		if _, ok := p.Value.(*LogView); ok {
			return learningLogType
		}
		return nil
	}

	pageInfoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"startCursor":     &graphql.Field{Type: graphql.String},
			"endCursor":       &graphql.Field{Type: graphql.String},
		},
	})

	edgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LearningLogEdge",
		Fields: graphql.Fields{
			"node":   &graphql.Field{Type: graphql.NewNonNull(learningLogType)},
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	connectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LearningLogConnection",
		Fields: graphql.Fields{
			"edges":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edgeType)))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfoType)},
		},
	})

	filterInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LearningLogFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"tagsAny": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"tagsAll": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"q":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"from":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"to":      &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	createInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateLearningLogInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"reflection": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"tags":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
			"timeSpent":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"sourceUrl":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	updateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateLearningLogInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"title":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"reflection": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"tags":       &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"timeSpent":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"sourceUrl":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	deleteInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "DeleteLearningLogInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	createPayload := graphql.NewObject(graphql.ObjectConfig{
		Name: "CreateLearningLogPayload",
		Fields: graphql.Fields{
			"log": &graphql.Field{Type: graphql.NewNonNull(learningLogType)},
		},
	})

	updatePayload := graphql.NewObject(graphql.ObjectConfig{
		Name: "UpdateLearningLogPayload",
		Fields: graphql.Fields{
			"log": &graphql.Field{Type: graphql.NewNonNull(learningLogType)},
		},
	})

	deletePayload := graphql.NewObject(graphql.ObjectConfig{
		Name: "DeleteLearningLogPayload",
		Fields: graphql.Fields{
			"deletedId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"node": &graphql.Field{
				Type: nodeInterface,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveNode,
			},
			"learningLogs": &graphql.Field{
				Type: graphql.NewNonNull(connectionType),
				Args: graphql.FieldConfigArgument{
					"first":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"after":  &graphql.ArgumentConfig{Type: graphql.String},
					"filter": &graphql.ArgumentConfig{Type: filterInput},
				},
				Resolve: r.resolveLearningLogs,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createLearningLog": &graphql.Field{
				Type: graphql.NewNonNull(createPayload),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createInput)},
				},
				Resolve: r.resolveCreate,
			},
			"updateLearningLog": &graphql.Field{
				Type: graphql.NewNonNull(updatePayload),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateInput)},
				},
				Resolve: r.resolveUpdate,
			},
			"deleteLearningLog": &graphql.Field{
				Type: graphql.NewNonNull(deletePayload),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(deleteInput)},
				},
				Resolve: r.resolveDelete,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
		Types:    []graphql.Type{learningLogType},
	})
}
