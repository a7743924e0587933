package app

import (
	"context"
	"os"
	"time"

	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	CollectionHealthChecks = "healthchecks"
	HealthServiceName      = "HEALTH"
)

// HealthCheckRunner snapshots the health of every running service and
// upserts it into the healthchecks collection under this host's name.
type HealthCheckRunner struct {
	hostname string
	services func() []models.ServiceHealth
	timeout  time.Duration

	lastHealth models.Health
}

func (x *HealthCheckRunner) Status() models.RunnerStatus {
	pending := 0
	for _, s := range x.lastHealth.ServiceHealths {
		if !s.Healthy {
			pending++
		}
	}
	return models.RunnerStatus{Pending: pending}
}

func (x *HealthCheckRunner) ServiceHealths() []models.ServiceHealth {
	if x.services == nil {
		return nil
	}
	return x.services()
}

func (x *HealthCheckRunner) FindLastHealth() (models.Health, error) {
	ctx, cancel := context.WithTimeout(context.Background(), x.timeout)
	defer cancel()

	var health models.Health
	filter := bson.M{"hostname": x.hostname}
	err := DB.FindOne(ctx, CollectionHealthChecks, filter, &health)
	return health, err
}

func (x *HealthCheckRunner) PostHealth() bool {
	log.Debug("[HEALTH] Posting health")

	healths := x.ServiceHealths()
	healthy := true
	for _, h := range healths {
		if !h.Healthy {
			healthy = false
		}
	}

	now := time.Now()
	filter := bson.M{"hostname": x.hostname}
	update := bson.M{
		"$set": bson.M{
			"healthy":         healthy,
			"service_healths": healths,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"hostname":   x.hostname,
			"created_at": now,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), x.timeout)
	defer cancel()

	if err := DB.UpsertOne(ctx, CollectionHealthChecks, filter, update); err != nil {
		log.WithError(err).Error("[HEALTH] Error posting health")
		return false
	}

	x.lastHealth = models.Health{
		Hostname:       x.hostname,
		Healthy:        healthy,
		ServiceHealths: healths,
		UpdatedAt:      now,
	}

	log.Info("[HEALTH] Posted health")
	return true
}

func (x *HealthCheckRunner) Run() {
	x.PostHealth()
}

func NewHealthCheck(services func() []models.ServiceHealth) *HealthCheckRunner {
	log.Debug("[HEALTH] Initializing health")

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatal("[HEALTH] Error getting hostname: ", err)
	}

	x := &HealthCheckRunner{
		hostname: hostname,
		services: services,
		timeout:  time.Duration(Config.MongoDB.TimeoutMillis) * time.Millisecond,
	}

	if last, err := x.FindLastHealth(); err == nil {
		log.WithField("updated_at", last.UpdatedAt).Debug("[HEALTH] Found last health")
	}

	log.Info("[HEALTH] Initialized health")

	return x
}
