package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAffiliateSync pulls conversions from one affiliate network.
	TaskAffiliateSync = "affiliate:sync"
)

// AffiliateSyncPayload selects the network to sync.
type AffiliateSyncPayload struct {
	Network string `json:"network"`
}

// NewAffiliateSyncTask constructs an Asynq task.
func NewAffiliateSyncTask(network string) (*asynq.Task, error) {
	if network == "" {
		return nil, fmt.Errorf("jobs: %s requires a network", TaskAffiliateSync)
	}
	data, err := json.Marshal(AffiliateSyncPayload{Network: network})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliateSync, data), nil
}
