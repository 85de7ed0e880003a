package types

import "time"

// RecordStatus represents the lifecycle state of a single record
type RecordStatus string

const (
	RecordPending    RecordStatus = "pending"
	RecordInProgress RecordStatus = "in-progress"
	RecordCompleted  RecordStatus = "completed"
	RecordFailed     RecordStatus = "failed"
)

// Strategy selects how records are partitioned across agents
type Strategy string

const (
	StrategyEqual    Strategy = "equal"    // contiguous equal shares
	StrategyWeighted Strategy = "weighted" // shares proportional to performance x workload
	StrategyPriority Strategy = "priority" // complex records round-robin to top performers
)

// DistributionStatus represents the state of a whole distribution
type DistributionStatus string

const (
	DistributionProcessing DistributionStatus = "processing"
	DistributionCompleted  DistributionStatus = "completed"
	DistributionFailed     DistributionStatus = "failed"
)

// RecordInput is one normalized upload row before assignment
type RecordInput struct {
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

// Record is one unit of work assigned to an agent
type Record struct {
	ID            string       `json:"id" dynamodbav:"ID"`
	FirstName     string       `json:"firstName" dynamodbav:"FirstName"`
	Phone         string       `json:"phone" dynamodbav:"Phone"`
	Notes         string       `json:"notes" dynamodbav:"Notes"`
	Status        RecordStatus `json:"status" dynamodbav:"Status"`
	AssignedAt    time.Time    `json:"assignedAt" dynamodbav:"AssignedAt"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty" dynamodbav:"CompletedAt,omitempty"`
	Redistributed bool         `json:"redistributed,omitempty" dynamodbav:"Redistributed"`
}

// AgentGroup is the per-agent slice of a distribution
type AgentGroup struct {
	AgentID       string   `json:"agentId" dynamodbav:"AgentID"`
	AgentName     string   `json:"agentName" dynamodbav:"AgentName"`
	AgentEmail    string   `json:"agentEmail" dynamodbav:"AgentEmail"`
	AssignedCount int      `json:"assignedCount" dynamodbav:"AssignedCount"` // always == len(Records)
	Records       []Record `json:"records" dynamodbav:"Records"`
}

// Summary contains aggregate stats computed at distribution time
type Summary struct {
	TotalAgentsAssigned    int     `json:"totalAgentsAssigned" dynamodbav:"TotalAgentsAssigned"`
	AverageRecordsPerAgent float64 `json:"averageRecordsPerAgent" dynamodbav:"AverageRecordsPerAgent"`
	DistributionTime       int64   `json:"distributionTime" dynamodbav:"DistributionTime"` // milliseconds
	MinRecordsAssigned     int     `json:"minRecordsAssigned" dynamodbav:"MinRecordsAssigned"`
	MaxRecordsAssigned     int     `json:"maxRecordsAssigned" dynamodbav:"MaxRecordsAssigned"`
	DistributionVariance   int     `json:"distributionVariance" dynamodbav:"DistributionVariance"` // max - min
	FairnessScore          float64 `json:"fairnessScore" dynamodbav:"FairnessScore"`               // 0-1, 1 = perfectly even
}

// Distribution is one upload's full assignment plan across all agents
type Distribution struct {
	ID               string             `json:"id" dynamodbav:"ID"`
	FileName         string             `json:"fileName" dynamodbav:"FileName"`
	OriginalFileName string             `json:"originalFileName" dynamodbav:"OriginalFileName"`
	FileSize         int64              `json:"fileSize" dynamodbav:"FileSize"` // bytes
	TotalRecords     int                `json:"totalRecords" dynamodbav:"TotalRecords"`
	UploadedBy       string             `json:"uploadedBy" dynamodbav:"UploadedBy"`
	Strategy         Strategy           `json:"strategy" dynamodbav:"Strategy"`
	Status           DistributionStatus `json:"status" dynamodbav:"Status"`
	Agents           []AgentGroup       `json:"agents" dynamodbav:"Agents"`
	Summary          Summary            `json:"summary" dynamodbav:"Summary"`
	CreatedAt        time.Time          `json:"createdAt" dynamodbav:"CreatedAt"`
	Version          int64              `json:"version" dynamodbav:"Version"` // optimistic concurrency token
}

// RecordMove describes one record's reassignment during redistribution
type RecordMove struct {
	RecordID    string `json:"recordId"`
	FromAgentID string `json:"fromAgentId"`
	ToAgentID   string `json:"toAgentId"`
}

// Agent represents a worker who receives and completes records.
// AssignedTasks and CompletedTasks are lifetime totals shared across
// every distribution the agent participates in.
type Agent struct {
	ID             string    `json:"id" dynamodbav:"ID"`
	Name           string    `json:"name" dynamodbav:"Name"`
	Email          string    `json:"email" dynamodbav:"Email"`
	Mobile         string    `json:"mobile,omitempty" dynamodbav:"Mobile"`
	IsActive       bool      `json:"isActive" dynamodbav:"IsActive"`
	AssignedTasks  int       `json:"assignedTasks" dynamodbav:"AssignedTasks"`
	CompletedTasks int       `json:"completedTasks" dynamodbav:"CompletedTasks"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}
