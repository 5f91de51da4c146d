package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/myway-api/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the image started by StartPostgres
const PostgresImage = "postgres:16-alpine"

// PostgresContainer is a throwaway Postgres server
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
	Database  string
	User      string
	Password  string
}

// StartPostgres runs a Postgres container and waits until it accepts connections
func StartPostgres(ctx context.Context, database, user, password string) (*PostgresContainer, error) {
	tcpPort, err := nat.NewPort("tcp", "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to create DB port: %w", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        PostgresImage,
			ExposedPorts: []string{string(tcpPort)},
			Env: map[string]string{
				"POSTGRES_DB":       database,
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
			},
			// Postgres restarts once after initdb; the second ready line is the real one
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(tcpPort),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, tcpPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &PostgresContainer{
		Container: container,
		Host:      host,
		Port:      mapped.Port(),
		Database:  database,
		User:      user,
		Password:  password,
	}, nil
}

// Config returns a configuration pointing at the container
func (p *PostgresContainer) Config() *config.Config {
	return &config.Config{
		Port:              "3000",
		DBType:            "postgres",
		DBHost:            p.Host,
		DBPort:            p.Port,
		DBDatabase:        p.Database,
		DBUser:            p.User,
		DBPassword:        p.Password,
		DBConnectionLimit: 5,
		JWTSecret:         "integration-secret",
		TokenTTL:          time.Hour,
		PhotoStore:        "db",
	}
}

// Terminate stops and removes the container
func (p *PostgresContainer) Terminate(ctx context.Context) error {
	if p == nil || p.Container == nil {
		return nil
	}
	return p.Container.Terminate(ctx)
}
