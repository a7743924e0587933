package app

import (
	"strings"
	"sync"
	"time"

	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
)

type Runner interface {
	Run()
	Status() models.RunnerStatus
}

// RunnerService calls Run on its runner every interval until stopped.
type RunnerService struct {
	name     string
	runner   Runner
	interval time.Duration
	wg       *sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once

	healthMu sync.RWMutex
	health   models.ServiceHealth
}

func (x *RunnerService) Start() {
	log.Debugf("[%s] Starting service", x.name)
	defer x.wg.Done()
	for {
		select {
		case <-x.stop:
			log.Debugf("[%s] Stopped service", x.name)
			return
		default:
		}

		x.runner.Run()
		x.UpdateHealth()

		select {
		case <-x.stop:
			log.Debugf("[%s] Stopped service", x.name)
			return
		case <-time.After(x.interval):
		}
	}
}

// Stop never blocks, so it is safe to call from inside Run.
func (x *RunnerService) Stop() {
	x.stopOnce.Do(func() {
		log.Debugf("[%s] Stopping service", x.name)
		close(x.stop)
	})
}

func (x *RunnerService) Stopped() bool {
	select {
	case <-x.stop:
		return true
	default:
		return false
	}
}

func (x *RunnerService) Health() models.ServiceHealth {
	x.healthMu.RLock()
	defer x.healthMu.RUnlock()

	return x.health
}

func (x *RunnerService) UpdateHealth() {
	status := x.runner.Status()

	x.healthMu.Lock()
	defer x.healthMu.Unlock()

	lastSyncTime := time.Now()

	x.health = models.ServiceHealth{
		Name:                x.name,
		LastSyncTime:        lastSyncTime,
		NextSyncTime:        lastSyncTime.Add(x.interval),
		TransactionId:       status.TransactionId,
		Phase:               status.Phase,
		ConsecutiveFailures: status.ConsecutiveFailures,
		Pending:             status.Pending,
		Healthy:             true,
	}
}

func NewRunnerService(
	name string,
	runner Runner,
	wg *sync.WaitGroup,
	interval time.Duration,
) *RunnerService {
	if strings.TrimSpace(name) == "" || runner == nil || wg == nil || interval <= 0 {
		log.Error("[RUNNER] Invalid parameters for runner service")
		return nil
	}

	return &RunnerService{
		name:     name,
		runner:   runner,
		interval: interval,
		wg:       wg,
		stop:     make(chan struct{}),
		health: models.ServiceHealth{
			Name:    name,
			Healthy: true,
		},
	}
}
