package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/MukeshR-prog/distributer/internal/types"
)

// versionRetries bounds how often a conditional write is retried after a
// concurrent version bump before giving up.
const versionRetries = 3

// DynamoDBStore implements Store using AWS DynamoDB. A distribution is a
// single document; counter changes ride in the same TransactWriteItems
// call as the document write.
type DynamoDBStore struct {
	client *dynamodb.Client
	config StorageConfig
	logger zerolog.Logger
}

// agentItem adds a lowercased email so uniqueness scans do not depend on
// how the caller spelled the address.
type agentItem struct {
	types.Agent
	EmailLower string
}

// distributionItem adds a flat list of agent ids so membership scans can
// use contains() instead of walking the nested groups.
type distributionItem struct {
	types.Distribution
	AgentIDs []string
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg StorageConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == ModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Mode == ModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) CreateAgent(agent types.Agent) error {
	taken, err := s.agentIDByEmail(agent.Email)
	if err != nil {
		return err
	}
	if taken != "" {
		return types.ErrAgentExists
	}

	item, err := attributevalue.MarshalMap(agentItem{
		Agent:      agent,
		EmailLower: strings.ToLower(agent.Email),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName:                 aws.String(s.config.AgentsTable),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("agent %s already exists", agent.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) GetAgent(id string) (*types.Agent, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"ID": id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	result, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.config.AgentsTable),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, types.ErrAgentNotFound
	}

	var agent types.Agent
	if err := attributevalue.UnmarshalMap(result.Item, &agent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent: %w", err)
	}
	return &agent, nil
}

func (s *DynamoDBStore) ListAgents(includeInactive bool) ([]types.Agent, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.config.AgentsTable)}
	if !includeInactive {
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name("IsActive").Equal(expression.Value(true))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	items, err := s.scanAll(input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan agents: %w", err)
	}

	agents := make([]types.Agent, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &agents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agents: %w", err)
	}
	sortAgents(agents)
	return agents, nil
}

func (s *DynamoDBStore) UpdateAgent(agent types.Agent) error {
	taken, err := s.agentIDByEmail(agent.Email)
	if err != nil {
		return err
	}
	if taken != "" && taken != agent.ID {
		return types.ErrAgentExists
	}

	key, err := attributevalue.MarshalMap(map[string]string{"ID": agent.ID})
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	// Counters are owned by the distribution writes and are never part of
	// a profile update.
	update := expression.Set(expression.Name("Name"), expression.Value(agent.Name)).
		Set(expression.Name("Email"), expression.Value(agent.Email)).
		Set(expression.Name("EmailLower"), expression.Value(strings.ToLower(agent.Email))).
		Set(expression.Name("Mobile"), expression.Value(agent.Mobile)).
		Set(expression.Name("IsActive"), expression.Value(agent.IsActive))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.UpdateItem(context.Background(), &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.AgentsTable),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return types.ErrAgentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) DeleteAgent(id string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"ID": id})
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.config.AgentsTable),
		Key:                       key,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return types.ErrAgentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return nil
}

// agentIDByEmail scans for an agent holding the given address. For
// production a GSI on EmailLower would be more efficient.
func (s *DynamoDBStore) agentIDByEmail(email string) (string, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("EmailLower").Equal(expression.Value(strings.ToLower(email)))).
		WithProjection(expression.NamesList(expression.Name("ID"))).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build expression: %w", err)
	}

	items, err := s.scanAll(&dynamodb.ScanInput{
		TableName:                 aws.String(s.config.AgentsTable),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan agents: %w", err)
	}
	if len(items) == 0 {
		return "", nil
	}

	var found struct{ ID string }
	if err := attributevalue.UnmarshalMap(items[0], &found); err != nil {
		return "", fmt.Errorf("failed to unmarshal agent: %w", err)
	}
	return found.ID, nil
}

// CreateDistribution writes the document and all assigned-counter
// increments in one transaction. A vanished agent fails the whole call
// rather than leaving a half-applied create.
func (s *DynamoDBStore) CreateDistribution(dist *types.Distribution) error {
	stored := *dist
	if stored.Version == 0 {
		stored.Version = 1
	}

	item, err := attributevalue.MarshalMap(distributionItem{
		Distribution: stored,
		AgentIDs:     agentIDs(stored.Agents),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	writes := []dbtypes.TransactWriteItem{{
		Put: &dbtypes.Put{
			TableName:                 aws.String(s.config.DistributionsTable),
			Item:                      item,
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}}

	for _, g := range stored.Agents {
		if len(g.Records) == 0 {
			continue
		}
		upd, err := s.counterUpdate(g.AgentID, "AssignedTasks", len(g.Records))
		if err != nil {
			return err
		}
		writes = append(writes, dbtypes.TransactWriteItem{Update: upd})
	}

	_, err = s.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	})
	if err != nil {
		return fmt.Errorf("failed to save distribution: %w", err)
	}

	s.logger.Debug().
		Str("distribution_id", stored.ID).
		Int("records", stored.TotalRecords).
		Int("agents", len(stored.Agents)).
		Msg("distribution created")

	return nil
}

func (s *DynamoDBStore) GetDistribution(id string) (*types.Distribution, error) {
	item, err := s.getDistributionItem(id)
	if err != nil {
		return nil, err
	}
	dist := item.Distribution
	normalizeGroups(&dist)
	return &dist, nil
}

func (s *DynamoDBStore) getDistributionItem(id string) (*distributionItem, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"ID": id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	result, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.config.DistributionsTable),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get distribution: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, types.ErrDistributionNotFound
	}

	var item distributionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution: %w", err)
	}
	return &item, nil
}

// ListDistributions scans the whole table and paginates in memory. Fine
// at this scale; for production a GSI on Strategy would be more
// efficient.
func (s *DynamoDBStore) ListDistributions(opts ListOptions) ([]types.Distribution, int, error) {
	items, err := s.scanAll(&dynamodb.ScanInput{TableName: aws.String(s.config.DistributionsTable)})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan distributions: %w", err)
	}

	var all []distributionItem
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal distributions: %w", err)
	}

	dists := make([]types.Distribution, 0, len(all))
	for _, item := range all {
		d := item.Distribution
		normalizeGroups(&d)
		dists = append(dists, d)
	}
	page, total := applyListOptions(dists, opts)
	return page, total, nil
}

func (s *DynamoDBStore) ListDistributionsByAgent(agentID string) ([]types.Distribution, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("AgentIDs").Contains(agentID)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	items, err := s.scanAll(&dynamodb.ScanInput{
		TableName:                 aws.String(s.config.DistributionsTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan distributions: %w", err)
	}

	var all []distributionItem
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distributions: %w", err)
	}

	dists := make([]types.Distribution, 0, len(all))
	for _, item := range all {
		d := item.Distribution
		normalizeGroups(&d)
		dists = append(dists, d)
	}
	sorted, _ := applyListOptions(dists, ListOptions{})
	return sorted, nil
}

// UpdateRecordStatus rewrites one nested record by document path and
// bumps the version, conditioned on the version it read. The completed
// counter rides in the same transaction.
func (s *DynamoDBStore) UpdateRecordStatus(distID, agentID, recordID string, status types.RecordStatus, notes *string) (*types.Record, error) {
	if _, err := types.ParseRecordStatus(string(status)); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < versionRetries; attempt++ {
		item, err := s.getDistributionItem(distID)
		if err != nil {
			return nil, err
		}
		dist := item.Distribution

		gi := -1
		for i, g := range dist.Agents {
			if g.AgentID == agentID {
				gi = i
				break
			}
		}
		if gi == -1 {
			return nil, types.ErrNotAssigned
		}

		ri := -1
		for i, r := range dist.Agents[gi].Records {
			if r.ID == recordID {
				ri = i
				break
			}
		}
		if ri == -1 {
			return nil, types.ErrRecordNotFound
		}

		rec := dist.Agents[gi].Records[ri]
		prev := rec.Status
		rec.Status = status
		if notes != nil {
			rec.Notes = *notes
		}

		now := time.Now().UTC()
		delta := 0
		switch {
		case prev != types.RecordCompleted && status == types.RecordCompleted:
			rec.CompletedAt = &now
			delta = 1
		case prev == types.RecordCompleted && status != types.RecordCompleted:
			rec.CompletedAt = nil
			delta = -1
		}

		recPath := fmt.Sprintf("Agents[%d].Records[%d]", gi, ri)
		update := expression.
			Set(expression.Name(recPath+".Status"), expression.Value(string(status))).
			Set(expression.Name(recPath+".Notes"), expression.Value(rec.Notes)).
			Set(expression.Name("Version"), expression.Value(dist.Version+1))
		switch {
		case delta > 0:
			update = update.Set(expression.Name(recPath+".CompletedAt"), expression.Value(now))
		case delta < 0:
			update = update.Remove(expression.Name(recPath + ".CompletedAt"))
		}

		expr, err := expression.NewBuilder().
			WithUpdate(update).
			WithCondition(expression.Name("Version").Equal(expression.Value(dist.Version))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}

		key, err := attributevalue.MarshalMap(map[string]string{"ID": distID})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal key: %w", err)
		}

		writes := []dbtypes.TransactWriteItem{{
			Update: &dbtypes.Update{
				TableName:                 aws.String(s.config.DistributionsTable),
				Key:                       key,
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		}}

		// Skip the counter if the agent was deleted; the record change
		// still applies.
		if delta != 0 && s.agentExists(agentID) {
			upd, err := s.counterUpdate(agentID, "CompletedTasks", delta)
			if err != nil {
				return nil, err
			}
			writes = append(writes, dbtypes.TransactWriteItem{Update: upd})
		}

		_, err = s.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
			TransactItems: writes,
		})
		if isTransactionCanceled(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update record: %w", err)
		}

		s.logger.Debug().
			Str("distribution_id", distID).
			Str("agent_id", agentID).
			Str("record_id", recordID).
			Str("from", string(prev)).
			Str("to", string(status)).
			Msg("record status updated")

		out := rec
		if rec.CompletedAt != nil {
			t := *rec.CompletedAt
			out.CompletedAt = &t
		}
		return &out, nil
	}

	return nil, types.ErrConcurrentModification
}

// SaveRedistribution replaces the document if the caller's version still
// matches and shifts assigned totals between the affected agents.
func (s *DynamoDBStore) SaveRedistribution(dist *types.Distribution, moves []types.RecordMove) error {
	stored := *dist
	stored.Version = dist.Version + 1

	item, err := attributevalue.MarshalMap(distributionItem{
		Distribution: stored,
		AgentIDs:     agentIDs(stored.Agents),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("Version").Equal(expression.Value(dist.Version))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	writes := []dbtypes.TransactWriteItem{{
		Put: &dbtypes.Put{
			TableName:                 aws.String(s.config.DistributionsTable),
			Item:                      item,
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}}

	// One transaction item per agent; a record moving a1 -> a2 is -1/+1.
	deltas := make(map[string]int)
	for _, m := range moves {
		if m.FromAgentID == m.ToAgentID {
			continue
		}
		deltas[m.FromAgentID]--
		deltas[m.ToAgentID]++
	}
	for agentID, delta := range deltas {
		if delta == 0 || !s.agentExists(agentID) {
			continue
		}
		upd, err := s.counterUpdate(agentID, "AssignedTasks", delta)
		if err != nil {
			return err
		}
		writes = append(writes, dbtypes.TransactWriteItem{Update: upd})
	}

	_, err = s.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	})
	if isTransactionCanceled(err) {
		if _, getErr := s.getDistributionItem(dist.ID); errors.Is(getErr, types.ErrDistributionNotFound) {
			return types.ErrDistributionNotFound
		}
		return types.ErrConcurrentModification
	}
	if err != nil {
		return fmt.Errorf("failed to save redistribution: %w", err)
	}

	s.logger.Debug().
		Str("distribution_id", dist.ID).
		Int("moves", len(moves)).
		Msg("redistribution saved")

	return nil
}

// DeleteDistribution removes the document and takes back every total it
// contributed, conditioned on the version it read so the decrements
// match what is actually deleted.
func (s *DynamoDBStore) DeleteDistribution(id string) error {
	for attempt := 0; attempt < versionRetries; attempt++ {
		item, err := s.getDistributionItem(id)
		if err != nil {
			return err
		}

		key, err := attributevalue.MarshalMap(map[string]string{"ID": id})
		if err != nil {
			return fmt.Errorf("failed to marshal key: %w", err)
		}

		expr, err := expression.NewBuilder().
			WithCondition(expression.Name("Version").Equal(expression.Value(item.Version))).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build expression: %w", err)
		}

		writes := []dbtypes.TransactWriteItem{{
			Delete: &dbtypes.Delete{
				TableName:                 aws.String(s.config.DistributionsTable),
				Key:                       key,
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		}}

		for _, g := range item.Agents {
			assigned := len(g.Records)
			completed := 0
			for _, r := range g.Records {
				if r.Status == types.RecordCompleted {
					completed++
				}
			}
			if assigned == 0 || !s.agentExists(g.AgentID) {
				continue
			}

			add := expression.Add(expression.Name("AssignedTasks"), expression.Value(-assigned))
			if completed != 0 {
				add = add.Add(expression.Name("CompletedTasks"), expression.Value(-completed))
			}
			cexpr, err := expression.NewBuilder().
				WithUpdate(add).
				WithCondition(expression.AttributeExists(expression.Name("ID"))).
				Build()
			if err != nil {
				return fmt.Errorf("failed to build expression: %w", err)
			}
			akey, err := attributevalue.MarshalMap(map[string]string{"ID": g.AgentID})
			if err != nil {
				return fmt.Errorf("failed to marshal key: %w", err)
			}
			writes = append(writes, dbtypes.TransactWriteItem{Update: &dbtypes.Update{
				TableName:                 aws.String(s.config.AgentsTable),
				Key:                       akey,
				UpdateExpression:          cexpr.Update(),
				ConditionExpression:       cexpr.Condition(),
				ExpressionAttributeNames:  cexpr.Names(),
				ExpressionAttributeValues: cexpr.Values(),
			}})
		}

		_, err = s.client.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{
			TransactItems: writes,
		})
		if isTransactionCanceled(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to delete distribution: %w", err)
		}

		s.logger.Debug().Str("distribution_id", id).Msg("distribution deleted")
		return nil
	}

	return types.ErrConcurrentModification
}

func (s *DynamoDBStore) Close() error { return nil }

// counterUpdate builds a transactional ADD on one agent counter. The
// attribute_exists guard keeps a deleted agent from being resurrected as
// a counter-only item.
func (s *DynamoDBStore) counterUpdate(agentID, counter string, delta int) (*dbtypes.Update, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name(counter), expression.Value(delta))).
		WithCondition(expression.AttributeExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	key, err := attributevalue.MarshalMap(map[string]string{"ID": agentID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	return &dbtypes.Update{
		TableName:                 aws.String(s.config.AgentsTable),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func (s *DynamoDBStore) agentExists(id string) bool {
	_, err := s.GetAgent(id)
	return err == nil
}

func (s *DynamoDBStore) scanAll(input *dynamodb.ScanInput) ([]map[string]dbtypes.AttributeValue, error) {
	var items []map[string]dbtypes.AttributeValue
	for {
		result, err := s.client.Scan(context.Background(), input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return items, nil
}

func agentIDs(groups []types.AgentGroup) []string {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.AgentID)
	}
	return ids
}

// normalizeGroups re-derives assignedCount and replaces nil record
// slices after unmarshaling.
func normalizeGroups(dist *types.Distribution) {
	for i := range dist.Agents {
		if dist.Agents[i].Records == nil {
			dist.Agents[i].Records = []types.Record{}
		}
		dist.Agents[i].AssignedCount = len(dist.Agents[i].Records)
	}
}

func isConditionalCheckFailed(err error) bool {
	var ccf *dbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func isTransactionCanceled(err error) bool {
	var tce *dbtypes.TransactionCanceledException
	return errors.As(err, &tce)
}
