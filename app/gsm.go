package app

import (
	"context"
	"fmt"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	log "github.com/sirupsen/logrus"
)

func accessSecretVersion(ctx context.Context, client *secretmanager.Client, name string) (string, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", Config.GoogleSecretManager.ProjectId, name),
	}

	result, err := client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", err
	}

	return string(result.Payload.Data), nil
}

// readKeysFromGSM fills in relayer api keys that were not set in the config file or env.
func readKeysFromGSM() {
	if !Config.GoogleSecretManager.Enabled {
		log.Debug("[GSM] Google Secret Manager is disabled")
		return
	}

	if Config.GoogleSecretManager.ProjectId == "" {
		log.Fatalf("[GSM] ProjectId is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		log.Fatalf("[GSM] Failed to create secretmanager client: %v", err)
	}
	defer client.Close()

	for i, p := range Config.Bridge.Providers {
		if p.APIKey != "" {
			continue
		}
		secretName, ok := Config.GoogleSecretManager.Secrets[string(p.Name)]
		if !ok || secretName == "" {
			continue
		}

		log.Debugf("[GSM] Reading api key for provider %s", p.Name)
		key, err := accessSecretVersion(ctx, client, secretName)
		if err != nil {
			log.Fatalf("[GSM] Failed to access api key for provider %s: %v", p.Name, err)
		}
		Config.Bridge.Providers[i].APIKey = key
		log.Infof("[GSM] Successfully read api key for provider %s", p.Name)
	}
}
