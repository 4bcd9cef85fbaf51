package common

const (
	RedisStreamBulletinIngest = "bulletin.ingest"
	RedisStreamAutoCancel     = "signal.autocancel"

	RedisStreamGroup    = "engine-group"
	RedisStreamConsumer = "engine-consumer"
)
