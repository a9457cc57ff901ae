// Package external implements store.QuadStore against a single DynamoDB
// table, grounded on the teacher's infrastructure/persistence/dynamodb
// single-table node/edge repository (node_repository.go) and its
// internal/repository/ddb transactional write style, generalized from
// node/edge rows keyed by user+node to RDF quads keyed by graph+subject.
//
// Table layout:
//
//	PK  = graph IRI
//	SK  = subjectKey#predicate#objectKey   (one item per quad)
//
// A single global secondary index reorders the same items by predicate and
// object within a graph, so patterns that specify Predicate/Object but not
// Subject (the shape every membership and containment sub-query in
// projection/graphs.go uses) avoid a table scan:
//
//	GSI1PK = graph IRI
//	GSI1SK = predicate#objectKey
package external

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// translateAWSError maps the AWS error codes the teacher's
// internal/errors/repository_adapter.go switches on to the apperr taxonomy,
// rather than collapsing every DynamoDB failure into BackendFailure: a
// condition check genuinely means ConstraintViolation, a missing table
// genuinely means NotFound, and service.ResourceService's apperr.Wrap keeps
// that type intact for its own callers' apperr.Is* checks.
func translateAWSError(message string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException":
			return apperr.NewNotFound(message)
		case "ConditionalCheckFailedException":
			return apperr.NewConstraintViolation(message)
		}
	}
	return apperr.NewBackendFailure(message, err)
}

// Store is a store.QuadStore backed by a single DynamoDB table.
type Store struct {
	client  *dynamodb.Client
	table   string
	gsiName string
	logger  *zap.Logger
}

// New builds a DynamoDB-backed store. gsiName must name a global secondary
// index projecting ALL attributes with partition key GSI1PK and sort key
// GSI1SK. A nil logger disables logging.
func New(client *dynamodb.Client, table, gsiName string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, table: table, gsiName: gsiName, logger: logger}
}

// item is the DynamoDB wire shape of a single quad. Subject and object are
// stored both as part of the composite keys (for query/delete) and as plain
// attributes (so a read never has to re-parse a key string back into an
// rdf.Term).
type item struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	Graph          string `dynamodbav:"Graph"`
	SubjectKind    string `dynamodbav:"SubjectKind"`
	SubjectValue   string `dynamodbav:"SubjectValue"`
	Predicate      string `dynamodbav:"Predicate"`
	ObjectKind     string `dynamodbav:"ObjectKind"`
	ObjectValue    string `dynamodbav:"ObjectValue"`
	ObjectDatatype string `dynamodbav:"ObjectDatatype,omitempty"`
	ObjectLang     string `dynamodbav:"ObjectLang,omitempty"`
}

// termKey encodes a term into the string used inside SK/GSI1SK. The kind tag
// keeps an IRI "http://x" distinct from a same-spelled literal.
func termKey(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return "iri:" + string(v)
	case rdf.BlankNode:
		return "blank:" + string(v)
	case rdf.Literal:
		return "lit:" + v.Lexical + "\x1f" + string(v.Datatype) + "\x1f" + v.Lang
	default:
		return "iri:" + t.String()
	}
}

func subjectTermKey(s rdf.SubjectTerm) string { return termKey(s) }

func sortKey(q rdf.Quad) string {
	return subjectTermKey(q.Subject) + "#" + string(q.Predicate) + "#" + termKey(q.Object)
}

func gsiSortKey(q rdf.Quad) string {
	return string(q.Predicate) + "#" + termKey(q.Object)
}

func toItem(q rdf.Quad) item {
	it := item{
		PK:        string(q.Graph),
		SK:        sortKey(q),
		GSI1PK:    string(q.Graph),
		GSI1SK:    gsiSortKey(q),
		Graph:     string(q.Graph),
		Predicate: string(q.Predicate),
	}
	switch s := q.Subject.(type) {
	case rdf.IRI:
		it.SubjectKind, it.SubjectValue = "iri", string(s)
	case rdf.BlankNode:
		it.SubjectKind, it.SubjectValue = "blank", string(s)
	}
	switch o := q.Object.(type) {
	case rdf.IRI:
		it.ObjectKind, it.ObjectValue = "iri", string(o)
	case rdf.BlankNode:
		it.ObjectKind, it.ObjectValue = "blank", string(o)
	case rdf.Literal:
		it.ObjectKind, it.ObjectValue, it.ObjectDatatype, it.ObjectLang = "literal", o.Lexical, string(o.Datatype), o.Lang
	}
	return it
}

func (it item) toQuad() (rdf.Quad, error) {
	var subj rdf.SubjectTerm
	switch it.SubjectKind {
	case "iri":
		subj = rdf.IRI(it.SubjectValue)
	case "blank":
		subj = rdf.BlankNode(it.SubjectValue)
	default:
		return rdf.Quad{}, fmt.Errorf("external: unknown subject kind %q", it.SubjectKind)
	}

	var obj rdf.Term
	switch it.ObjectKind {
	case "iri":
		obj = rdf.IRI(it.ObjectValue)
	case "blank":
		obj = rdf.BlankNode(it.ObjectValue)
	case "literal":
		obj = rdf.Literal{Lexical: it.ObjectValue, Datatype: rdf.IRI(it.ObjectDatatype), Lang: it.ObjectLang}
	default:
		return rdf.Quad{}, fmt.Errorf("external: unknown object kind %q", it.ObjectKind)
	}

	return rdf.Quad{Graph: rdf.IRI(it.Graph), Subject: subj, Predicate: rdf.IRI(it.Predicate), Object: obj}, nil
}

func (s *Store) Insert(ctx context.Context, q rdf.Quad) error {
	av, err := attributevalue.MarshalMap(toItem(q))
	if err != nil {
		return apperr.NewBackendFailure("external: marshal quad", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av})
	if err != nil {
		return translateAWSError("external: put item", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, q rdf.Quad) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: string(q.Graph)},
			"SK": &types.AttributeValueMemberS{Value: sortKey(q)},
		},
	})
	if err != nil {
		return translateAWSError("external: delete item", err)
	}
	return nil
}

// graphQueryInput builds the KeyConditionExpression/ExpressionAttributeNames/
// ExpressionAttributeValues triple for "every item in this graph", the same
// expression.NewBuilder().WithKeyCondition(...).Build() shape the teacher's
// node_repository.go uses for every one of its Query calls, rather than
// hand-assembling placeholder strings and a values map by hand.
func graphQueryInput(table string, graph rdf.IRI) (*dynamodb.QueryInput, error) {
	return buildQueryInput(table, "", expression.Key("PK").Equal(expression.Value(string(graph))))
}

func buildQueryInput(table, indexName string, keyCond expression.KeyConditionBuilder) (*dynamodb.QueryInput, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperr.NewBackendFailure("external: build key condition", err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if indexName != "" {
		input.IndexName = aws.String(indexName)
	}
	return input, nil
}

// RemoveGraph deletes every item whose PK is graph, via a query-then-batch-
// delete pass, the same two-step shape the teacher's clearNodeConnections
// uses (DynamoDB has no server-side "delete by partition key" primitive).
func (s *Store) RemoveGraph(ctx context.Context, graph rdf.IRI) error {
	input, err := graphQueryInput(s.table, graph)
	if err != nil {
		return err
	}
	keys, err := s.queryKeys(ctx, input)
	if err != nil {
		return err
	}
	return s.batchDelete(ctx, keys)
}

// queryKeys runs input, paginating, and returns only the PK/SK of each
// matching item — enough to build delete requests without round-tripping
// the full attribute set.
func (s *Store) queryKeys(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var keys []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateAWSError("external: query", err)
		}
		for _, it := range page.Items {
			keys = append(keys, map[string]types.AttributeValue{"PK": it["PK"], "SK": it["SK"]})
		}
	}
	return keys, nil
}

func (s *Store) batchDelete(ctx context.Context, keys []map[string]types.AttributeValue) error {
	if len(keys) == 0 {
		return nil
	}
	const batchSize = 25 // DynamoDB BatchWriteItem's per-call limit
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		var requests []types.WriteRequest
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
		}
		_, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: requests},
		})
		if err != nil {
			return translateAWSError("external: batch delete", err)
		}
	}
	return nil
}

// Query dispatches on which pattern fields are set, picking the cheapest
// access path DynamoDB offers for that shape: a full-graph query, a
// subject-prefix query on the base table, a predicate/object query on the
// GSI, or — only when Graph itself is unset — a table scan.
func (s *Store) Query(ctx context.Context, pattern rdf.Pattern) ([]rdf.Quad, error) {
	items, err := s.queryItems(ctx, pattern)
	if err != nil {
		return nil, err
	}
	out := make([]rdf.Quad, 0, len(items))
	for _, it := range items {
		q, err := it.toQuad()
		if err != nil {
			return nil, apperr.NewBackendFailure("external: decode item", err)
		}
		if pattern.Match(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) Exists(ctx context.Context, pattern rdf.Pattern) (bool, error) {
	quads, err := s.Query(ctx, pattern)
	if err != nil {
		return false, err
	}
	return len(quads) > 0, nil
}

func (s *Store) queryItems(ctx context.Context, pattern rdf.Pattern) ([]item, error) {
	var input *dynamodb.QueryInput
	var err error

	switch {
	case pattern.Graph == nil:
		return s.scanItems(ctx, pattern)

	case pattern.Subject != nil:
		keyCond := expression.Key("PK").Equal(expression.Value(string(*pattern.Graph))).
			And(expression.Key("SK").BeginsWith(subjectTermKey(pattern.Subject) + "#"))
		input, err = buildQueryInput(s.table, "", keyCond)

	case pattern.Predicate != nil:
		prefix := string(*pattern.Predicate)
		if pattern.Object != nil {
			prefix += "#" + termKey(pattern.Object)
		} else {
			prefix += "#"
		}
		keyCond := expression.Key("GSI1PK").Equal(expression.Value(string(*pattern.Graph))).
			And(expression.Key("GSI1SK").BeginsWith(prefix))
		input, err = buildQueryInput(s.table, s.gsiName, keyCond)

	default:
		input, err = graphQueryInput(s.table, *pattern.Graph)
	}
	if err != nil {
		return nil, err
	}

	var out []item
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateAWSError("external: query", err)
		}
		for _, raw := range page.Items {
			var it item
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, apperr.NewBackendFailure("external: unmarshal item", err)
			}
			out = append(out, it)
		}
	}
	return out, nil
}

// scanItems is the fallback path for a pattern with no Graph at all. No
// operation in this module ever issues one (every call site in
// projection/graphs.go and service/resource_service.go names a graph), but
// the store.QuadStore contract permits it, so it's implemented rather than
// left to panic.
func (s *Store) scanItems(ctx context.Context, pattern rdf.Pattern) ([]item, error) {
	s.logger.Warn("external: table scan", zap.String("reason", "pattern has no graph"))

	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}

	var conds []expression.ConditionBuilder
	if pattern.Subject != nil {
		var subjectValue string
		switch v := pattern.Subject.(type) {
		case rdf.IRI:
			subjectValue = string(v)
		case rdf.BlankNode:
			subjectValue = string(v)
		}
		conds = append(conds, expression.Name("SubjectValue").Equal(expression.Value(subjectValue)))
	}
	if pattern.Predicate != nil {
		conds = append(conds, expression.Name("Predicate").Equal(expression.Value(string(*pattern.Predicate))))
	}
	if len(conds) > 0 {
		filter := conds[0]
		for _, c := range conds[1:] {
			filter = filter.And(c)
		}
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, apperr.NewBackendFailure("external: build scan filter", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var out []item
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateAWSError("external: scan", err)
		}
		for _, raw := range page.Items {
			var it item
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, apperr.NewBackendFailure("external: unmarshal item", err)
			}
			out = append(out, it)
		}
	}
	return out, nil
}

// Apply executes the batch as reads (to resolve which keys a
// RemoveGraph/RemoveSubject/RemovePredicate step touches) followed by a
// single TransactWriteItems call, so every write in the batch lands
// together or not at all — the same unit-of-work shape as the teacher's
// ddbRepository.CreateNodeWithEdges. TransactWriteItems caps a call at 100
// items; batches larger than that are split into sequential transactions,
// which gives up cross-chunk atomicity but keeps each chunk atomic.
func (s *Store) Apply(ctx context.Context, ops []store.Mutation) error {
	var writes []types.TransactWriteItem
	for _, op := range ops {
		switch op.Kind {
		case store.MutationInsert:
			av, err := attributevalue.MarshalMap(toItem(op.Quad))
			if err != nil {
				return apperr.NewBackendFailure("external: marshal quad", err)
			}
			writes = append(writes, types.TransactWriteItem{Put: &types.Put{TableName: aws.String(s.table), Item: av}})

		case store.MutationRemoveGraph:
			input, err := graphQueryInput(s.table, op.Graph)
			if err != nil {
				return err
			}
			keys, err := s.queryKeys(ctx, input)
			if err != nil {
				return err
			}
			writes = append(writes, deleteWrites(s.table, keys)...)

		case store.MutationRemoveSubject:
			keyCond := expression.Key("PK").Equal(expression.Value(string(op.Graph))).
				And(expression.Key("SK").BeginsWith(subjectTermKey(op.Subject) + "#"))
			input, err := buildQueryInput(s.table, "", keyCond)
			if err != nil {
				return err
			}
			keys, err := s.queryKeys(ctx, input)
			if err != nil {
				return err
			}
			writes = append(writes, deleteWrites(s.table, keys)...)

		case store.MutationRemovePredicate:
			keyCond := expression.Key("PK").Equal(expression.Value(string(op.Graph))).
				And(expression.Key("SK").BeginsWith(subjectTermKey(op.Subject) + "#" + string(op.Quad.Predicate) + "#"))
			input, err := buildQueryInput(s.table, "", keyCond)
			if err != nil {
				return err
			}
			keys, err := s.queryKeys(ctx, input)
			if err != nil {
				return err
			}
			writes = append(writes, deleteWrites(s.table, keys)...)
		}
	}

	if len(writes) == 0 {
		return nil
	}

	const transactLimit = 100
	for start := 0; start < len(writes); start += transactLimit {
		end := start + transactLimit
		if end > len(writes) {
			end = len(writes)
		}
		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes[start:end]})
		if err != nil {
			return translateAWSError("external: transact write", err)
		}
	}
	return nil
}

func deleteWrites(table string, keys []map[string]types.AttributeValue) []types.TransactWriteItem {
	out := make([]types.TransactWriteItem, len(keys))
	for i, key := range keys {
		out[i] = types.TransactWriteItem{Delete: &types.Delete{TableName: aws.String(table), Key: key}}
	}
	return out
}

var _ store.QuadStore = (*Store)(nil)
