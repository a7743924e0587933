package models

import (
	"sync"
	"time"
)

type Service interface {
	Start()
	Health() ServiceHealth
	Stop()
}

type RunnerStatus struct {
	TransactionId       string `json:"transaction_id,omitempty"`
	Phase               Phase  `json:"phase,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Pending             int    `json:"pending,omitempty"`
}

type ServiceHealth struct {
	Name                string    `json:"name"`
	LastSyncTime        time.Time `json:"last_sync_time"`
	NextSyncTime        time.Time `json:"next_sync_time"`
	TransactionId       string    `json:"transaction_id,omitempty"`
	Phase               Phase     `json:"phase,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Pending             int       `json:"pending,omitempty"`
	Healthy             bool      `json:"healthy"`
}

type EmptyService struct {
	wg *sync.WaitGroup
}

func (e *EmptyService) Start() {}

func (e *EmptyService) Stop() {
	e.wg.Done()
}

const EmptyServiceName = "empty"

func (e *EmptyService) Health() ServiceHealth {
	return ServiceHealth{
		Name:         EmptyServiceName,
		LastSyncTime: time.Now(),
		NextSyncTime: time.Now(),
		Healthy:      true,
	}
}

func NewEmptyService(wg *sync.WaitGroup) *EmptyService {
	return &EmptyService{
		wg: wg,
	}
}

type Health struct {
	Hostname       string          `bson:"hostname" json:"hostname"`
	Healthy        bool            `bson:"healthy" json:"healthy"`
	ServiceHealths []ServiceHealth `bson:"service_healths" json:"service_healths"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at" json:"updated_at"`
}
