package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/dan13ram/xbridge-engine/models"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func readConfigFromENV(envFile string) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil {
			log.Warn("[ENV] Error loading .env file: ", err.Error())
		}
	}

	// logging
	if os.Getenv("LOG_LEVEL") != "" {
		Config.Logger.Level = os.Getenv("LOG_LEVEL")
	}
	if os.Getenv("LOG_FORMAT") != "" {
		Config.Logger.Format = os.Getenv("LOG_FORMAT")
	}

	// store
	if os.Getenv("STORE_BACKEND") != "" {
		Config.Store.Backend = os.Getenv("STORE_BACKEND")
	}

	// mongodb
	if os.Getenv("MONGODB_URI") != "" {
		Config.MongoDB.URI = os.Getenv("MONGODB_URI")
	}
	if os.Getenv("MONGODB_DATABASE") != "" {
		Config.MongoDB.Database = os.Getenv("MONGODB_DATABASE")
	}
	if os.Getenv("MONGODB_TIMEOUT_MS") != "" {
		timeoutMillis, err := strconv.ParseInt(os.Getenv("MONGODB_TIMEOUT_MS"), 10, 64)
		if err != nil {
			log.Warn("[ENV] Error parsing MONGODB_TIMEOUT_MS: ", err.Error())
		} else {
			Config.MongoDB.TimeoutMillis = timeoutMillis
		}
	}

	// redis
	if os.Getenv("REDIS_ENABLED") != "" {
		enabled, err := strconv.ParseBool(os.Getenv("REDIS_ENABLED"))
		if err != nil {
			log.Warn("[ENV] Error parsing REDIS_ENABLED: ", err.Error())
		} else {
			Config.Redis.Enabled = enabled
		}
	}
	if os.Getenv("REDIS_HOST") != "" {
		Config.Redis.Host = os.Getenv("REDIS_HOST")
	}
	if os.Getenv("REDIS_PORT") != "" {
		port, err := strconv.Atoi(os.Getenv("REDIS_PORT"))
		if err != nil {
			log.Warn("[ENV] Error parsing REDIS_PORT: ", err.Error())
		} else {
			Config.Redis.Port = port
		}
	}

	// monitor
	if os.Getenv("MONITOR_INTERVAL_MS") != "" {
		intervalMillis, err := strconv.ParseInt(os.Getenv("MONITOR_INTERVAL_MS"), 10, 64)
		if err != nil {
			log.Warn("[ENV] Error parsing MONITOR_INTERVAL_MS: ", err.Error())
		} else {
			Config.Monitor.IntervalMillis = intervalMillis
		}
	}
	if os.Getenv("MONITOR_QUERY_TIMEOUT_MS") != "" {
		timeoutMillis, err := strconv.ParseInt(os.Getenv("MONITOR_QUERY_TIMEOUT_MS"), 10, 64)
		if err != nil {
			log.Warn("[ENV] Error parsing MONITOR_QUERY_TIMEOUT_MS: ", err.Error())
		} else {
			Config.Monitor.QueryTimeoutMillis = timeoutMillis
		}
	}
	if os.Getenv("MONITOR_RESUME_ON_START") != "" {
		resume, err := strconv.ParseBool(os.Getenv("MONITOR_RESUME_ON_START"))
		if err != nil {
			log.Warn("[ENV] Error parsing MONITOR_RESUME_ON_START: ", err.Error())
		} else {
			Config.Monitor.ResumeOnStart = resume
		}
	}

	// bridge
	if os.Getenv("BRIDGE_DEFAULT_PROVIDER") != "" {
		Config.Bridge.DefaultProvider = models.Provider(os.Getenv("BRIDGE_DEFAULT_PROVIDER"))
	}

	// notifications
	if os.Getenv("NOTIFICATIONS_ENABLED") != "" {
		enabled, err := strconv.ParseBool(os.Getenv("NOTIFICATIONS_ENABLED"))
		if err != nil {
			log.Warn("[ENV] Error parsing NOTIFICATIONS_ENABLED: ", err.Error())
		} else {
			Config.Notifications.Enabled = enabled
		}
	}
	if os.Getenv("KAFKA_BROKERS") != "" {
		Config.Notifications.Kafka.Brokers = strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
	}
	if os.Getenv("KAFKA_TOPIC") != "" {
		Config.Notifications.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	}

	// http
	if os.Getenv("HTTP_ENABLED") != "" {
		enabled, err := strconv.ParseBool(os.Getenv("HTTP_ENABLED"))
		if err != nil {
			log.Warn("[ENV] Error parsing HTTP_ENABLED: ", err.Error())
		} else {
			Config.HTTP.Enabled = enabled
		}
	}
	if os.Getenv("HTTP_LISTEN_ADDR") != "" {
		Config.HTTP.ListenAddr = os.Getenv("HTTP_LISTEN_ADDR")
	}

	// google secret manager
	if os.Getenv("GOOGLE_SECRET_MANAGER_ENABLED") != "" {
		enabled, err := strconv.ParseBool(os.Getenv("GOOGLE_SECRET_MANAGER_ENABLED"))
		if err != nil {
			log.Warn("[ENV] Error parsing GOOGLE_SECRET_MANAGER_ENABLED: ", err.Error())
		} else {
			Config.GoogleSecretManager.Enabled = enabled
		}
	}
	if os.Getenv("GOOGLE_PROJECT_ID") != "" {
		Config.GoogleSecretManager.ProjectId = os.Getenv("GOOGLE_PROJECT_ID")
	}

	// per provider api keys, e.g. WORMHOLE_API_KEY
	for i, p := range Config.Bridge.Providers {
		key := strings.ToUpper(string(p.Name)) + "_API_KEY"
		if os.Getenv(key) != "" {
			Config.Bridge.Providers[i].APIKey = os.Getenv(key)
		}
	}
}
