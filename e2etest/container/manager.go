package container

import (
	"fmt"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/pkg"
)

const (
	mongoUsername = "user"
	mongoPassword = "password"
	mongoDatabase = "staking-pool-e2e"

	// rabbitmq's built-in guest user only accepts connections from inside
	// the container, so the broker is started with explicit credentials
	rabbitmqUsername = "user"
	rabbitmqPassword = "password"
)

// Manager starts and tears down the docker containers backing an e2e run.
type Manager struct {
	images    ImageConfig
	pool      *dockertest.Pool
	resources []*dockertest.Resource
}

// NewManager creates a Manager connected to the local docker daemon.
func NewManager() (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("failed to create dockertest pool: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("docker daemon is not reachable: %w", err)
	}

	return &Manager{
		images: NewImageConfig(),
		pool:   pool,
	}, nil
}

// RunMongo starts a mongo container and returns a db config pointing at its
// mapped port. The container is not ready the moment this returns; callers
// wait on a ping.
func (m *Manager) RunMongo() (*config.DbConfig, error) {
	resource, err := m.pool.RunWithOptions(
		&dockertest.RunOptions{
			Name:       "mongo-e2e-" + pkg.RandString(3),
			Repository: m.images.MongoRepository,
			Tag:        m.images.MongoVersion,
			Env: []string{
				fmt.Sprintf("MONGO_INITDB_ROOT_USERNAME=%s", mongoUsername),
				fmt.Sprintf("MONGO_INITDB_ROOT_PASSWORD=%s", mongoPassword),
			},
		},
		func(cfg *docker.HostConfig) {
			cfg.AutoRemove = true
			cfg.RestartPolicy = docker.RestartPolicy{Name: "no"}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mongo container: %w", err)
	}
	m.resources = append(m.resources, resource)

	return &config.DbConfig{
		Username: mongoUsername,
		Password: mongoPassword,
		DbName:   mongoDatabase,
		Address:  fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp")),
	}, nil
}

// RunRabbitmq starts a rabbitmq broker and returns a queue config pointing
// at its mapped AMQP port.
func (m *Manager) RunRabbitmq(queueName string) (*config.QueueConfig, error) {
	resource, err := m.pool.RunWithOptions(
		&dockertest.RunOptions{
			Name:       "rabbitmq-e2e-" + pkg.RandString(3),
			Repository: m.images.RabbitmqRepository,
			Tag:        m.images.RabbitmqVersion,
			Env: []string{
				fmt.Sprintf("RABBITMQ_DEFAULT_USER=%s", rabbitmqUsername),
				fmt.Sprintf("RABBITMQ_DEFAULT_PASS=%s", rabbitmqPassword),
			},
		},
		func(cfg *docker.HostConfig) {
			cfg.AutoRemove = true
			cfg.RestartPolicy = docker.RestartPolicy{Name: "no"}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start rabbitmq container: %w", err)
	}
	m.resources = append(m.resources, resource)

	return &config.QueueConfig{
		QueueUser:     rabbitmqUsername,
		QueuePassword: rabbitmqPassword,
		Url:           fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp")),
		QueueName:     queueName,
		QueueType:     "classic",
	}, nil
}

// ClearResources purges every container this manager started.
func (m *Manager) ClearResources() {
	for _, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			log.Error().Err(err).Str("container", resource.Container.Name).Msg("failed to purge container")
		}
	}
	m.resources = nil
}
