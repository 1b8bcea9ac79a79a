package container

// ImageConfig contains all images and their respective tags
// needed for running e2e tests.
type ImageConfig struct {
	MongoRepository    string
	MongoVersion       string
	RabbitmqRepository string
	RabbitmqVersion    string
}

const (
	dockerMongoRepository = "mongo"
	// should be in sync with mongo version used in production
	dockerMongoVersionTag    = "7.0.5"
	dockerRabbitmqRepository = "rabbitmq"
	dockerRabbitmqVersionTag = "3.13"
)

// NewImageConfig returns the image set used for running e2e tests.
func NewImageConfig() ImageConfig {
	return ImageConfig{
		MongoRepository:    dockerMongoRepository,
		MongoVersion:       dockerMongoVersionTag,
		RabbitmqRepository: dockerRabbitmqRepository,
		RabbitmqVersion:    dockerRabbitmqVersionTag,
	}
}
